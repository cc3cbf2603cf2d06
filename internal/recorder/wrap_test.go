package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cachedEval calls eval at most once per key.
func cachedEval(eval func(int) int) func(int) int {
	cache := map[int]int{}
	return func(k int) int {
		if v, ok := cache[k]; ok {
			return v
		}
		v := eval(k)
		cache[k] = v
		return v
	}
}

func TestFunc1_RecordsEachInvocation(t *testing.T) {
	r := New()
	eval := Func1(r, "eval", func(x int) int { return x * x })

	lookup := cachedEval(eval)
	assert.Equal(t, 9, lookup(3))
	assert.Equal(t, 9, lookup(3))
	assert.Equal(t, 16, lookup(4))

	assert.Equal(t, 2, r.CountInvoke("eval"), "second lookup of 3 is served from cache")

	recs := r.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, []any{3}, recs[0].Args)
	assert.Equal(t, []any{4}, recs[1].Args)
}

func TestFunc0AndFunc2(t *testing.T) {
	r := New()
	next := Func0(r, "next", func() bool { return true })
	add := Func2(r, "add", func(a, b int) int { return a + b })

	assert.True(t, next())
	assert.Equal(t, 5, add(2, 3))

	assert.Equal(t, 2, r.Count(KindInvoke))
	assert.Equal(t, 1, r.CountInvoke("next"))

	last, ok := r.Last(KindInvoke)
	require.True(t, ok)
	assert.Equal(t, "add", last.Name)
	assert.Equal(t, []any{2, 3}, last.Args)
}
