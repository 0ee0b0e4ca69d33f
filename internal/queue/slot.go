package queue

import (
	"time"

	"github.com/ehrlich-behrlich/diskbench/internal/platform"
)

// Slot is the in-flight unit the async queue hands to the platform adapter.
// It has a stable identity (Index) for the duration of a test; the adapter
// keys its per-op descriptor by that index rather than by pointer.
type Slot struct {
	Index int

	// Buffer is this slot's fixed, page-aligned region, sliced from the
	// worker's single buffer region at queue creation time. Its capacity is
	// never exceeded: the largest request any in-flight workload emits fits
	// inside it.
	Buffer []byte

	Offset    int64
	Size      int
	Direction platform.Direction

	PreSubmission  time.Time
	PostSubmission time.Time
	Completed      time.Time
}

// inFlight reports whether the slot currently belongs to the adapter, i.e.
// it has been submitted but not yet reaped.
func (s *Slot) inFlight() bool {
	return !s.PostSubmission.IsZero() && s.Completed.IsZero()
}
