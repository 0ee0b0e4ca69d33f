package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryAdapterOpenCreatesAndSizes(t *testing.T) {
	a := NewMemoryAdapter()

	res, err := a.Open("disk0", 1<<20, 0.8)
	require.NoError(t, err)
	require.True(t, res.Truncated)
	require.False(t, res.IsBlock)
	require.EqualValues(t, 1<<20, res.Length)

	res2, err := a.Open("disk0", 1<<20, 0.8)
	require.NoError(t, err)
	require.False(t, res2.Truncated)
}

func TestMemoryAdapterBufferIsPageRounded(t *testing.T) {
	a := NewMemoryAdapter()
	buf, err := a.AllocateIOBuffer(100)
	require.NoError(t, err)
	require.Len(t, buf, 100)
	require.GreaterOrEqual(t, cap(buf), a.PageSize())
}

func TestMemoryQueueReadWriteRoundTrip(t *testing.T) {
	a := NewMemoryAdapter()
	res, err := a.Open("disk0", 4096, 0.8)
	require.NoError(t, err)

	q, err := a.QueueCreate(res.Handle, 8)
	require.NoError(t, err)
	defer q.Destroy()

	write := []byte("the quick brown fox")
	require.NoError(t, q.SubmitWrite(1, write, 0))
	completions, err := q.Reap(true)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	require.Equal(t, 1, completions[0].SlotIndex)
	require.EqualValues(t, len(write), completions[0].Result)

	read := make([]byte, len(write))
	require.NoError(t, q.SubmitRead(2, read, 0))
	completions, err = q.Reap(true)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	require.Equal(t, 2, completions[0].SlotIndex)
	require.Equal(t, write, read)
}

func TestMemoryQueueWriteBeyondEndFails(t *testing.T) {
	a := NewMemoryAdapter()
	res, err := a.Open("disk0", 8, 0.8)
	require.NoError(t, err)
	q, err := a.QueueCreate(res.Handle, 8)
	require.NoError(t, err)
	defer q.Destroy()

	err = q.SubmitWrite(0, make([]byte, 16), 0)
	require.Error(t, err)
}

func TestMemoryAdapterTruncate(t *testing.T) {
	a := NewMemoryAdapter()
	res, err := a.Open("disk0", 4096, 0.8)
	require.NoError(t, err)
	require.NoError(t, a.Truncate(res.Handle, 8192))

	q, err := a.QueueCreate(res.Handle, 1)
	require.NoError(t, err)
	defer q.Destroy()

	require.NoError(t, q.SubmitWrite(0, []byte("x"), 8100))
	completions, err := q.Reap(true)
	require.NoError(t, err)
	require.Len(t, completions, 1)
}

func TestNewAdapterReturnsUsableAdapter(t *testing.T) {
	a := NewAdapter()
	require.NotNil(t, a)
	require.Positive(t, a.PageSize())
}
