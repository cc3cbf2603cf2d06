package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AppendsInCallOrder(t *testing.T) {
	r := New()
	r.Record(KindRead, 4, 4, []byte{1, 2, 3, 4})
	r.Record(KindWrite, 2, 2, []byte{9, 9})
	r.Record(KindRead, 4, 0, nil)

	recs := r.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{recs[0].Seq, recs[1].Seq, recs[2].Seq})
	assert.Equal(t, KindRead, recs[0].Kind)
	assert.Equal(t, KindWrite, recs[1].Kind)
	assert.True(t, recs[2].Short())
	assert.False(t, recs[0].Short())
}

func TestRecorder_PayloadIsCopied(t *testing.T) {
	r := New()
	buf := []byte{1, 2, 3}
	r.Record(KindWrite, 3, 3, buf)
	buf[0] = 0xFF

	last, ok := r.Last(KindWrite)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, last.Payload)
}

func TestRecorder_CountAndLast(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Count(KindRead))

	_, ok := r.Last(KindRead)
	assert.False(t, ok)

	r.Record(KindRead, 8, 8, nil)
	r.Record(KindSeek, 16, 16, nil)
	r.Record(KindRead, 8, 3, nil)

	assert.Equal(t, 2, r.Count(KindRead))
	assert.Equal(t, 1, r.Count(KindSeek))
	assert.Equal(t, 0, r.Count(KindWrite))

	last, ok := r.Last(KindRead)
	require.True(t, ok)
	assert.Equal(t, int64(3), last.Seq)
	assert.Equal(t, 3, last.Actual)
	assert.Equal(t, 11, r.BytesTransferred(KindRead))
}

func TestRecorder_WithoutResetCountsAccumulate(t *testing.T) {
	r := New()

	// First scenario reads once.
	r.Record(KindRead, 4, 4, nil)
	// Second scenario reuses the recorder without Reset and also reads once.
	r.Record(KindRead, 4, 4, nil)

	assert.Equal(t, 2, r.Count(KindRead), "counts leak across scenarios without Reset")
}

func TestRecorder_ResetIsolatesScenarios(t *testing.T) {
	r := New()
	r.Record(KindRead, 4, 4, nil)
	r.Reset()
	r.Record(KindRead, 4, 4, nil)

	assert.Equal(t, 1, r.Count(KindRead))
	assert.Equal(t, 1, r.Len())

	last, _ := r.Last(KindRead)
	assert.Equal(t, int64(1), last.Seq, "sequence restarts after Reset")
}

func TestRecorder_RecordsIsSnapshot(t *testing.T) {
	r := New()
	r.Record(KindTell, 0, 0, nil)
	snap := r.Records()
	r.Record(KindTell, 0, 0, nil)

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, r.Len())
}

func TestRecorder_InvalidKindPanics(t *testing.T) {
	r := New()
	assert.Panics(t, func() { r.Record(KindInvalid, 0, 0, nil) })
	assert.Panics(t, func() { r.Record(NumKinds, 0, 0, nil) })
}

func TestCallRecord_String(t *testing.T) {
	rec := CallRecord{Seq: 2, Kind: KindRead, Requested: 4, Actual: 1}
	assert.Equal(t, "#2 read requested=4 actual=1", rec.String())

	inv := CallRecord{Seq: 5, Kind: KindInvoke, Name: "eval", Args: []any{3}}
	assert.Equal(t, "#5 invoke eval[3]", inv.String())
}
