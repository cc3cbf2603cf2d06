package mockchan

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/focal/internal/recorder"
)

func TestNext_FullBufferInOneCall(t *testing.T) {
	ch := New([]byte{0x01, 0x00, 0x00, 0x00})

	got := ch.Next(4)
	assert.Len(t, got, 4)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, got)
	assert.Equal(t, 4, ch.Offset(), "cursor sits at end of buffer")
	assert.Equal(t, 0, ch.Remaining())
}

func TestNext_EmptyChannel(t *testing.T) {
	ch := New(nil)
	assert.Empty(t, ch.Next(4))
	assert.Equal(t, 0, ch.Offset())
}

func TestNext_ClampsToBuffer(t *testing.T) {
	ch := New([]byte{1, 2, 3})

	assert.Equal(t, []byte{1, 2}, ch.Next(2))
	assert.Equal(t, []byte{3}, ch.Next(10))
	assert.Empty(t, ch.Next(10))
	assert.Equal(t, 3, ch.Offset())

	last, ok := ch.Recorder().Last(recorder.KindRead)
	require.True(t, ok)
	assert.Equal(t, 10, last.Requested)
	assert.Equal(t, 0, last.Actual)
}

func TestNext_NegativeMaxIsZero(t *testing.T) {
	ch := New([]byte{1})
	assert.Empty(t, ch.Next(-3))
	assert.Equal(t, 0, ch.Offset())
}

func TestNew_CopiesInput(t *testing.T) {
	in := []byte{5, 6}
	ch := New(in)
	in[0] = 0

	assert.Equal(t, []byte{5, 6}, ch.Next(2))
}

func TestShortReadFault_FiresOnce(t *testing.T) {
	ch := New([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	ch.ArmFault(FaultShortRead)
	assert.True(t, ch.Armed(FaultShortRead))

	first := ch.Next(4)
	assert.Empty(t, first)
	assert.False(t, ch.Armed(FaultShortRead), "fault disarms after firing")

	second := ch.Next(4)
	assert.Equal(t, []byte{1, 2, 3, 4}, second, "second read is unaffected")
}

func TestShortReadFault_Limit(t *testing.T) {
	ch := New([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	ch.ArmFaultLimit(FaultShortRead, 3)
	assert.Equal(t, []byte{1, 2, 3}, ch.Next(4))

	// A limit at or above the request still yields a short read.
	ch.ArmFaultLimit(FaultShortRead, 100)
	got := ch.Next(4)
	assert.Len(t, got, 3)
	assert.Equal(t, []byte{4, 5, 6}, got)
}

func TestRead_IOView(t *testing.T) {
	ch := New([]byte("abc"))
	buf := make([]byte, 2)

	n, err := ch.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ch.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ch.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRead_InjectedZeroByteRead(t *testing.T) {
	ch := New([]byte("abc"))
	ch.ArmFault(FaultShortRead)

	n, err := ch.Read(make([]byte, 3))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrInjected)

	all, err := io.ReadAll(ch)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(all))
}

func TestPut_AppendsToSink(t *testing.T) {
	ch := New(nil)
	assert.Equal(t, 2, ch.Put([]byte{1, 2}))
	assert.Equal(t, 1, ch.Put([]byte{3}))
	assert.Equal(t, []byte{1, 2, 3}, ch.Written())
}

func TestShortWriteFault(t *testing.T) {
	ch := New(nil)
	ch.ArmFaultLimit(FaultShortWrite, 1)

	assert.Equal(t, 1, ch.Put([]byte{9, 8, 7}))
	assert.Equal(t, 2, ch.Put([]byte{6, 5}))
	assert.Equal(t, []byte{9, 6, 5}, ch.Written())

	last, ok := ch.Recorder().Last(recorder.KindWrite)
	require.True(t, ok)
	assert.False(t, last.Short())
}

func TestWrite_IOViewReportsShortWrite(t *testing.T) {
	ch := New(nil)
	ch.ArmFault(FaultShortWrite)

	n, err := ch.Write([]byte("hello"))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.ErrShortWrite)

	n, err = ch.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(ch.Written()))
}

func TestWritten_IsCopy(t *testing.T) {
	ch := New(nil)
	ch.Put([]byte{1})
	w := ch.Written()
	w[0] = 42
	assert.Equal(t, []byte{1}, ch.Written())
}

func TestSeekAndTell(t *testing.T) {
	ch := New([]byte{0, 1, 2, 3, 4, 5})

	pos, err := ch.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)
	assert.Equal(t, int64(4), ch.Tell())
	assert.Equal(t, []byte{4, 5}, ch.Next(8))

	pos, err = ch.Seek(-2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	pos, err = ch.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)
}

func TestSeek_OutOfRangeKeepsCursor(t *testing.T) {
	ch := New([]byte{0, 1, 2})
	ch.Next(1)

	_, err := ch.Seek(10, io.SeekStart)
	assert.ErrorIs(t, err, ErrSeekRange)
	assert.Equal(t, 1, ch.Offset())

	_, err = ch.Seek(-5, io.SeekCurrent)
	assert.ErrorIs(t, err, ErrSeekRange)

	_, err = ch.Seek(0, 42)
	assert.ErrorIs(t, err, ErrWhence)
	assert.Equal(t, 1, ch.Offset())
}

func TestSeekFault(t *testing.T) {
	ch := New([]byte{0, 1, 2})
	ch.ArmFault(FaultSeek)

	_, err := ch.Seek(2, io.SeekStart)
	assert.True(t, errors.Is(err, ErrInjected))
	assert.Equal(t, 0, ch.Offset())

	_, err = ch.Seek(2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Offset())
	assert.Equal(t, 2, ch.Recorder().Count(recorder.KindSeek))
}

func TestOperationsAreRecordedInOrder(t *testing.T) {
	rec := recorder.New()
	ch := New([]byte{1, 2, 3, 4}, WithRecorder(rec))

	ch.Next(2)
	ch.Put([]byte{9})
	ch.Tell()
	_, _ = ch.Seek(0, io.SeekStart)

	recs := rec.Records()
	require.Len(t, recs, 4)
	kinds := []recorder.Kind{recs[0].Kind, recs[1].Kind, recs[2].Kind, recs[3].Kind}
	assert.Equal(t, []recorder.Kind{recorder.KindRead, recorder.KindWrite, recorder.KindTell, recorder.KindSeek}, kinds)
	assert.Equal(t, []byte{1, 2}, recs[0].Payload)
	assert.Equal(t, 2, recs[2].Actual)
}

func TestArmFault_InvalidArgumentsPanic(t *testing.T) {
	ch := New(nil)
	assert.Panics(t, func() { ch.ArmFault(FaultKind(99)) })
	assert.Panics(t, func() { ch.ArmFaultLimit(FaultShortRead, -1) })
	assert.False(t, ch.Armed(FaultKind(-1)))
}

func TestParseFault(t *testing.T) {
	for _, k := range []FaultKind{FaultShortRead, FaultShortWrite, FaultSeek} {
		got, ok := ParseFault(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseFault("explode")
	assert.False(t, ok)
	assert.Equal(t, "invalid", FaultKind(7).String())
}
