package workload

import "github.com/ehrlich-behrlich/diskbench/internal/platform"

// Sequential emits a monotone stream of offsets in one fixed direction,
// wrapping to 0 once the advanced cursor reaches or passes the file size. A
// request that starts inside the file may still extend past its end.
type Sequential struct {
	direction platform.Direction
	off       int64
	reqSize   int
	fileSize  uint64
}

// NewSequential constructs a Sequential generator for the given direction.
func NewSequential(direction platform.Direction) *Sequential {
	return &Sequential{direction: direction}
}

func (s *Sequential) Reset(fileSize uint64, reqSize int) {
	s.fileSize = fileSize
	s.reqSize = reqSize
	s.off = 0
}

// Fill emits (off, reqSize, direction) at the current cursor, then advances
// the cursor for the next call. If the advanced cursor reaches or passes the
// file size, it wraps to 0 for the next call — this fill's own offset is
// left untouched, so a wrap never overwrites the request it was computed
// for (spec.md §8 scenario S3: file size 1024, req_size 400 emits
// (0,400),(400,400),(800,400), then wraps to (0,400) on the fourth call).
func (s *Sequential) Fill(req *Request) {
	req.Offset = s.off
	req.Size = s.reqSize
	req.Direction = s.direction

	s.off += int64(s.reqSize)
	if s.off >= int64(s.fileSize) {
		s.off = 0
	}
}

func (s *Sequential) MaxIOSize() int { return s.reqSize }

func (s *Sequential) WeightedIOSize() int { return 128 * 1024 }
