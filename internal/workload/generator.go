// Package workload implements the sequential, uniform-random, and mixed
// request generators that drive the worker loop's offset/size/direction
// choices (spec.md §4.4).
package workload

import "github.com/ehrlich-behrlich/diskbench/internal/platform"

// Request is the offset/size/direction a generator's Fill populates.
type Request struct {
	Offset    int64
	Size      int
	Direction platform.Direction
}

// Generator is the polymorphic request producer every workload variant
// implements. Reset re-seeds internal state for a new (worker, request
// size) pair; Fill draws the next request from that state.
type Generator interface {
	Fill(req *Request)
	Reset(fileSize uint64, reqSize int)
	MaxIOSize() int
	WeightedIOSize() int
}
