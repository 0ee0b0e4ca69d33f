// Package platform provides the capability interface the async queue and
// worker loop drive for unbuffered, direct I/O against a file or raw block
// device — one implementation per host OS.
package platform

import (
	"github.com/ehrlich-behrlich/diskbench/internal/logging"
)

// Direction distinguishes a read request from a write request.
type Direction int

const (
	Read Direction = iota
	Write
)

// Handle is an opaque, adapter-owned reference to an open file or device.
type Handle interface{}

// OpenResult describes what Open actually did, per spec.md §6.
type OpenResult struct {
	Handle    Handle
	Length    uint64
	Truncated bool
	IsBlock   bool
}

// Completion is one reaped I/O completion, carrying back the stable slot
// index the submission was keyed by.
type Completion struct {
	SlotIndex int
	Result    int32 // bytes transferred on success, negative errno on failure
	Err       error
}

// Queue is the adapter-private state backing one worker's async queue.
// Adapters key their per-operation descriptors by slot index, recovered as a
// direct array index rather than by pointer arithmetic (spec.md §9).
type Queue interface {
	// SubmitRead enqueues exactly one async read for the given slot.
	SubmitRead(slotIndex int, buf []byte, offset int64) error

	// SubmitWrite enqueues exactly one async write for the given slot.
	SubmitWrite(slotIndex int, buf []byte, offset int64) error

	// Reap returns whatever completions are ready. If blocking is true it
	// waits for at least one completion before returning.
	Reap(blocking bool) ([]Completion, error)

	// Destroy releases adapter-private queue resources.
	Destroy() error
}

// Adapter is the per-OS capability surface described in spec.md §4.1.
type Adapter interface {
	PageSize() int
	MinIOSize() int

	// AllocateIOBuffer returns a region aligned to at least PageSize(),
	// suitable for unbuffered direct I/O. Size is rounded up to the next page.
	AllocateIOBuffer(size int) ([]byte, error)

	// Open opens an existing file or creates one, sizing it per spec.md §6,
	// and returns a handle opened in unbuffered/direct mode.
	Open(path string, requestedSize uint64, freespaceFraction float64) (OpenResult, error)

	Truncate(h Handle, length uint64) error
	Close(h Handle) error
	Flush(h Handle) error

	// QueueCreate allocates adapter-private state for a queue of the given
	// depth, bound to the given open file handle.
	QueueCreate(h Handle, depth int) (Queue, error)
}

// NewAdapter returns the adapter for the running host OS.
func NewAdapter() Adapter {
	logger := logging.Default()
	logger.Debug("creating platform adapter")
	return newHostAdapter()
}
