package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-behrlich/diskbench/internal/platform"
	"github.com/ehrlich-behrlich/diskbench/internal/workload"
)

func newTestWorker(t *testing.T, fileSize uint64, ioLimit uint64, depth int) (*Worker, platform.Adapter) {
	t.Helper()
	a := platform.NewMemoryAdapter()
	res, err := a.Open("disk", fileSize, 0.8)
	require.NoError(t, err)

	buf, err := a.AllocateIOBuffer(depth * a.PageSize())
	require.NoError(t, err)

	w := New(a, res.Handle, res.Length, buf, ioLimit, false)
	w.QueueDepth = depth
	return w, a
}

func TestWorkerStopsExactlyAtByteBudget(t *testing.T) {
	const reqSize = 512
	const reqCount = 10

	w, _ := newTestWorker(t, 1<<20, reqSize*reqCount, 4)
	g := workload.NewSequential(platform.Read)
	g.Reset(w.FileSize, reqSize)
	w.Generator = g

	require.NoError(t, w.Run(2*time.Second))

	require.EqualValues(t, reqCount, w.Stats.ReadRequests)
	require.EqualValues(t, reqSize*reqCount, w.SubmittedBytes())
	require.LessOrEqual(t, w.SubmittedBytes(), w.IOLimit)
}

func TestWorkerSequentialWriteAdvancesHighWaterMark(t *testing.T) {
	const reqSize = 512
	w, _ := newTestWorker(t, 1<<20, reqSize*20, 4)
	g := workload.NewSequential(platform.Write)
	g.Reset(w.FileSize, reqSize)
	w.Generator = g

	require.NoError(t, w.Run(2*time.Second))
	require.EqualValues(t, reqSize*20, w.HighWater.Get())
}

func TestWorkerWriteThenReadRoundTripsWithoutIntegrityError(t *testing.T) {
	const reqSize = 512
	w, _ := newTestWorker(t, 1<<20, reqSize*16, 4)
	writeGen := workload.NewSequential(platform.Write)
	writeGen.Reset(w.FileSize, reqSize)
	w.Generator = writeGen
	require.NoError(t, w.Run(2*time.Second))
	highWater := w.HighWater.Get()
	require.Positive(t, highWater)

	readGen := workload.NewSequential(platform.Read)
	readGen.Reset(w.FileSize, reqSize)
	w.Generator = readGen
	w.IOLimit = reqSize * 16
	require.NoError(t, w.Run(2*time.Second))
	require.EqualValues(t, 16, w.Stats.ReadRequests)
}

func TestWorkerDetectsIntegrityMismatch(t *testing.T) {
	const reqSize = 512
	w, a := newTestWorker(t, 4096, reqSize*8, 4)
	writeGen := workload.NewSequential(platform.Write)
	writeGen.Reset(w.FileSize, reqSize)
	w.Generator = writeGen
	require.NoError(t, w.Run(2*time.Second))

	// Corrupt the underlying storage directly, bypassing the integrity path.
	mem := a.(*platform.MemoryAdapter)
	res, err := mem.Open("disk", 0, 0.8) // reopen same path to reach the same backing data
	require.NoError(t, err)
	q, err := mem.QueueCreate(res.Handle, 1)
	require.NoError(t, err)
	corrupt := make([]byte, reqSize)
	require.NoError(t, q.SubmitWrite(0, corrupt, 0))
	_, err = q.Reap(true)
	require.NoError(t, err)
	require.NoError(t, q.Destroy())

	readGen := workload.NewSequential(platform.Read)
	readGen.Reset(w.FileSize, reqSize)
	w.Generator = readGen
	w.IOLimit = reqSize * 8
	err = w.Run(2 * time.Second)
	require.Error(t, err)
}

func TestWorkerMaxActiveNeverExceedsDepth(t *testing.T) {
	const reqSize = 512
	w, _ := newTestWorker(t, 1<<20, reqSize*50, 4)
	g := workload.NewRandom(platform.Read)
	g.Reset(w.FileSize, reqSize)
	w.Generator = g

	require.NoError(t, w.Run(2*time.Second))
	require.LessOrEqual(t, w.Stats.MaxActive, w.QueueDepth)
}
