package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-behrlich/diskbench/internal/platform"
	"github.com/ehrlich-behrlich/diskbench/internal/worker"
	"github.com/ehrlich-behrlich/diskbench/internal/workload"
)

func newSweepEntry(t *testing.T, path string, fileSize uint64, maxDepth int) *Entry {
	t.Helper()
	return newSweepEntryWithBufferBytes(t, path, fileSize, maxDepth*4096)
}

func newSweepEntryWithBufferBytes(t *testing.T, path string, fileSize uint64, bufferBytes int) *Entry {
	t.Helper()
	a := platform.NewMemoryAdapter()
	res, err := a.Open(path, fileSize, 0.8)
	require.NoError(t, err)

	buf, err := a.AllocateIOBuffer(bufferBytes)
	require.NoError(t, err)

	w := worker.New(a, res.Handle, res.Length, buf, res.Length, false)
	w.Generator = workload.NewSequential(platform.Write)
	return &Entry{Worker: w}
}

func TestRunProducesOneLinePerRequestSizeDepthPair(t *testing.T) {
	e := newSweepEntry(t, "disk0", 1<<20, 8)

	result := Run(Config{
		Description:      "Sequential write",
		RequestSizes:      []int{4096, 8192},
		QueueDepths:       []int{2, 4},
		MaxExecutionTime:  50 * time.Millisecond,
	}, []*Entry{e})

	require.NoError(t, result.Err)
	require.Len(t, result.Lines, 4)
	for _, line := range result.Lines {
		require.Positive(t, line.TotalBytes)
	}
}

func TestRunSkipsDepthExceedingBufferRegion(t *testing.T) {
	e := newSweepEntry(t, "disk1", 1<<20, 4) // buffer sized for depth 4

	result := Run(Config{
		Description:      "Sequential write",
		RequestSizes:      []int{4096},
		QueueDepths:       []int{4, 64}, // 64 slots won't fit the page-sized regions
		MaxExecutionTime:  20 * time.Millisecond,
	}, []*Entry{e})

	require.NoError(t, result.Err)
	require.Len(t, result.Lines, 1) // only depth 4 ran
}

func TestRunAccumulatesOverallAggregate(t *testing.T) {
	e := newSweepEntry(t, "disk2", 1<<20, 4)

	result := Run(Config{
		Description:      "Sequential write",
		RequestSizes:      []int{4096},
		QueueDepths:       []int{4},
		MaxExecutionTime:  20 * time.Millisecond,
	}, []*Entry{e})

	require.NoError(t, result.Err)
	require.Len(t, result.Lines, 1)
	require.Equal(t, result.Lines[0].TotalBytes, result.Overall.TotalBytes)
}

func TestRunSkipsRequestSizeExceedingFileSize(t *testing.T) {
	// A 2048-byte file can never satisfy a 4096-byte request: Random would
	// divide by a zero block count if this combination reached Fill.
	e := newSweepEntryWithBufferBytes(t, "disk4", 2048, 4*4096)
	e.Worker.Generator = workload.NewRandom(platform.Write)

	result := Run(Config{
		Description:      "Random write",
		RequestSizes:     []int{4096},
		QueueDepths:      []int{4},
		MaxExecutionTime: 20 * time.Millisecond,
	}, []*Entry{e})

	require.NoError(t, result.Err)
	require.Empty(t, result.Lines)
}

func TestRunSkipsDepthBelowPageSize(t *testing.T) {
	// Sliced 4 ways, an 8KiB buffer gives 2KiB regions: below any real page
	// size, so queue.Create's precondition would otherwise fail.
	e := newSweepEntryWithBufferBytes(t, "disk5", 1<<20, 8192)

	result := Run(Config{
		Description:      "Sequential write",
		RequestSizes:     []int{512},
		QueueDepths:      []int{4},
		MaxExecutionTime: 20 * time.Millisecond,
	}, []*Entry{e})

	require.NoError(t, result.Err)
	require.Empty(t, result.Lines)
}

func TestRunTracksSignatureBucket(t *testing.T) {
	// Buffer region must subdivide (at depth 4) into regions >= the largest
	// swept request size (131072) for that depth to not be skipped.
	e := newSweepEntryWithBufferBytes(t, "disk3", 4<<20, 4*131072)

	result := Run(Config{
		Description:          "Sequential write",
		RequestSizes:         []int{4096, 131072},
		QueueDepths:          []int{4},
		MaxExecutionTime:     20 * time.Millisecond,
		SignatureRequestSize: 131072,
	}, []*Entry{e})

	require.NoError(t, result.Err)
	require.NotNil(t, result.Signature)
	require.Len(t, result.Lines, 2)
}
