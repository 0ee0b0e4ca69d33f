package workload

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-behrlich/diskbench/internal/platform"
)

func TestSequentialAdvancesAndWraps(t *testing.T) {
	g := NewSequential(platform.Write)
	g.Reset(1024, 400)

	var req Request
	g.Fill(&req)
	require.EqualValues(t, 0, req.Offset)
	require.Equal(t, 400, req.Size)
	require.Equal(t, platform.Write, req.Direction)

	g.Fill(&req)
	require.EqualValues(t, 400, req.Offset)

	// off advances to 800, a valid offset in its own right; the cursor only
	// wraps for the *next* call, so this fill still reports 800.
	g.Fill(&req)
	require.EqualValues(t, 800, req.Offset)

	// the cursor crossed the file size after the third fill, so the fourth
	// wraps back to 0.
	g.Fill(&req)
	require.EqualValues(t, 0, req.Offset)
}

func TestSequentialMaxIOSizeTracksRequestSize(t *testing.T) {
	g := NewSequential(platform.Read)
	g.Reset(1<<20, 4096)
	require.Equal(t, 4096, g.MaxIOSize())
	require.Equal(t, 128*1024, g.WeightedIOSize())
}

func TestRandomOffsetsAreBlockAligned(t *testing.T) {
	g := NewRandom(platform.Read)
	g.Reset(1<<20, 4096)

	var req Request
	for i := 0; i < 100; i++ {
		g.Fill(&req)
		require.Zero(t, req.Offset%int64(req.Size))
		require.Less(t, req.Offset, int64(1<<20))
		require.Equal(t, 4096, req.Size)
		require.Equal(t, platform.Read, req.Direction)
	}
}

func TestRandomIsDeterministicGivenFreshGenerator(t *testing.T) {
	g1 := NewRandom(platform.Write)
	g1.Reset(1<<20, 4096)
	g2 := NewRandom(platform.Write)
	g2.Reset(1<<20, 4096)

	var r1, r2 Request
	for i := 0; i < 20; i++ {
		g1.Fill(&r1)
		g2.Fill(&r2)
		require.Equal(t, r1.Offset, r2.Offset)
		require.Equal(t, r1.Size, r2.Size)
	}
}

func TestMixedProducesValidSizesAndDirections(t *testing.T) {
	g := NewMixed()
	g.Reset(64<<20, 4096)

	var reads, writes int
	var req Request
	for i := 0; i < 5000; i++ {
		g.Fill(&req)
		require.Positive(t, req.Size)
		require.LessOrEqual(t, req.Offset+int64(req.Size), int64(64<<20))
		require.GreaterOrEqual(t, req.Offset, int64(0))

		valid := false
		for _, bs := range mixedBlockSizes {
			if req.Size == int(bs) {
				valid = true
				break
			}
		}
		require.True(t, valid, "unexpected request size %d", req.Size)

		switch req.Direction {
		case platform.Read:
			reads++
		case platform.Write:
			writes++
		}
	}

	// roughly 75/25 split; allow generous slack since this is a statistical property.
	require.InDelta(t, 0.75, float64(reads)/5000.0, 0.05)
	require.InDelta(t, 0.25, float64(writes)/5000.0, 0.05)
}

func TestMixedMaxAndWeightedIOSize(t *testing.T) {
	g := NewMixed()
	g.Reset(1<<20, 4096)
	require.Equal(t, 2<<20, g.MaxIOSize())
	require.Equal(t, 4096, g.WeightedIOSize())
}

func TestMixedRespectsMinBlockSizeFloor(t *testing.T) {
	g := NewMixed()
	g.Reset(64<<20, 256*1024) // floor excludes sizes below 256KiB

	var req Request
	for i := 0; i < 2000; i++ {
		g.Fill(&req)
		require.GreaterOrEqual(t, req.Size, 256*1024)
	}
}
