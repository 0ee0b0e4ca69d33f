package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildLineDerivesThroughputAndIOPS(t *testing.T) {
	start := time.Now()
	samples := []WorkerSample{
		{
			ReadBytes: 1 << 20, ReadRequests: 256,
			ReadElapsed: 256 * time.Millisecond,
			ReadMinLatency: time.Millisecond, ReadMaxLatency: 2 * time.Millisecond,
			Start: start, End: start.Add(time.Second),
			QueueDepth: 4, WeightedIOSize: 4096,
		},
	}

	line := BuildLine("Random read", 4096, 4, samples)

	require.EqualValues(t, 1<<20, line.TotalBytes)
	require.EqualValues(t, 256, line.TotalRequests)
	require.InDelta(t, float64(1<<20), line.BytesPerSecond, 1.0)
	require.InDelta(t, 256.0, line.IOPS, 1.0)
	require.True(t, line.HasLatency)
	require.Equal(t, time.Millisecond, line.MinLatency)
	require.Equal(t, 2*time.Millisecond, line.MaxLatency)
}

func TestBuildLineElapsedSpansAllWorkers(t *testing.T) {
	base := time.Now()
	samples := []WorkerSample{
		{ReadRequests: 1, ReadElapsed: time.Millisecond, Start: base, End: base.Add(500 * time.Millisecond), QueueDepth: 1, WeightedIOSize: 4096, ReadBytes: 4096},
		{ReadRequests: 1, ReadElapsed: time.Millisecond, Start: base.Add(100 * time.Millisecond), End: base.Add(900 * time.Millisecond), QueueDepth: 1, WeightedIOSize: 4096, ReadBytes: 4096},
	}

	line := BuildLine("Random read", 4096, 1, samples)
	require.Equal(t, 900*time.Millisecond, line.TotalElapsed)
}

func TestAggregateOverallScore(t *testing.T) {
	var agg Aggregate
	agg.Add(TestLine{BytesPerSecond: 100, WeightedBytesPerSecond: 50, Weight: 5})
	agg.Add(TestLine{BytesPerSecond: 200, WeightedBytesPerSecond: 150, Weight: 10})

	require.InDelta(t, 200.0/15.0, agg.OverallScore(), 1e-9)
	require.Equal(t, float64(100), agg.MinLineBytesPerSecond)
	require.Equal(t, float64(200), agg.MaxLineBytesPerSecond)
}

func TestMovingWindowTerminatesWhenNotImproving(t *testing.T) {
	var w MovingWindow
	require.False(t, w.Observe(10))
	require.False(t, w.Observe(20))
	require.False(t, w.Observe(30)) // window now full (3 values), mean=20, 30>20 -> no terminate
	require.True(t, w.Observe(15))  // window becomes [20,30,15], mean=21.67, 15<=mean -> terminate
}

func TestMovingWindowKeepsTerminatingIfGrowthStalls(t *testing.T) {
	var w MovingWindow
	w.Observe(100)
	w.Observe(100)
	require.True(t, w.Observe(100)) // flat throughput terminates immediately once window fills
	require.True(t, w.Observe(100)) // and keeps terminating while it stays flat
}
