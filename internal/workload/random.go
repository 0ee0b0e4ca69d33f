package workload

import (
	"github.com/ehrlich-behrlich/diskbench/internal/constants"
	"github.com/ehrlich-behrlich/diskbench/internal/platform"
	"github.com/ehrlich-behrlich/diskbench/internal/xorshift"
)

// Random draws a uniformly distributed, block-aligned offset each fill:
// offset = (xorshift64() mod blocks) * req_size. Its RNG stream is private
// to the generator (spec.md's redesign note keeps it separate from the
// integrity layer's worker seed) and persists across Reset calls, matching
// the reference implementation's one-seed-per-worker-lifetime behavior.
type Random struct {
	direction platform.Direction
	seed      uint64

	reqSize int
	blocks  uint64
}

// NewRandom constructs a Random generator for the given direction.
func NewRandom(direction platform.Direction) *Random {
	return &Random{direction: direction, seed: constants.InitialRandomSeed}
}

func (r *Random) Reset(fileSize uint64, reqSize int) {
	r.reqSize = reqSize
	r.blocks = fileSize / uint64(reqSize)
}

func (r *Random) Fill(req *Request) {
	base := xorshift.Next(&r.seed)
	req.Offset = int64((base % r.blocks) * uint64(r.reqSize))
	req.Size = r.reqSize
	req.Direction = r.direction
}

func (r *Random) MaxIOSize() int { return r.reqSize }

func (r *Random) WeightedIOSize() int { return 4096 }
