//go:build !linux

package platform

import (
	"fmt"
	"os"

	"github.com/ehrlich-behrlich/diskbench/internal/constants"
)

// newHostAdapter on non-Linux hosts falls back to the in-memory adapter so
// the core packages remain buildable and testable off the target platform.
// The real direct-I/O path only exists on Linux (spec.md §1: adapters are an
// external collaborator, one per OS; this repo ships the Linux one).
func newHostAdapter() Adapter {
	return NewMemoryAdapter()
}

// MemoryAdapter backs files with process memory instead of O_DIRECT file
// descriptors, so worker/sweep/integrity code can be exercised without a
// kernel. Open creates a file of the requested size (128MiB when the
// requested size is 0) and resizes an existing file only when a nonzero
// requested size differs from its length; it applies none of the real
// adapter's free-space, reuse-threshold or rounding rules.
type MemoryAdapter struct {
	pageSize int
	files    map[string]*memoryFile
}

type memoryFile struct {
	data []byte
}

// NewMemoryAdapter constructs a MemoryAdapter. Exported so tests on any
// platform can opt into it explicitly instead of relying on build tags.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{pageSize: os.Getpagesize(), files: make(map[string]*memoryFile)}
}

func (a *MemoryAdapter) PageSize() int  { return a.pageSize }
func (a *MemoryAdapter) MinIOSize() int { return 512 }

func (a *MemoryAdapter) AllocateIOBuffer(size int) ([]byte, error) {
	rounded := size
	if rem := size % a.pageSize; rem != 0 {
		rounded += a.pageSize - rem
	}
	return make([]byte, rounded)[:size], nil
}

type memoryHandle struct {
	path string
}

func (a *MemoryAdapter) Open(path string, requestedSize uint64, freespaceFraction float64) (OpenResult, error) {
	f, exists := a.files[path]
	var truncated bool
	if !exists {
		size := requestedSize
		if size == 0 {
			size = uint64(constants.RegularFileSizeRoundTo)
		}
		f = &memoryFile{data: make([]byte, size)}
		a.files[path] = f
		truncated = true
	} else if requestedSize != 0 && uint64(len(f.data)) != requestedSize {
		f.data = make([]byte, requestedSize)
		truncated = true
	}
	return OpenResult{
		Handle:    &memoryHandle{path: path},
		Length:    uint64(len(f.data)),
		Truncated: truncated,
		IsBlock:   false,
	}, nil
}

func (a *MemoryAdapter) Truncate(h Handle, length uint64) error {
	f := a.files[h.(*memoryHandle).path]
	data := make([]byte, length)
	copy(data, f.data)
	f.data = data
	return nil
}

func (a *MemoryAdapter) Close(h Handle) error { return nil }
func (a *MemoryAdapter) Flush(h Handle) error { return nil }

func (a *MemoryAdapter) QueueCreate(h Handle, depth int) (Queue, error) {
	f := a.files[h.(*memoryHandle).path]
	return &memoryQueue{file: f, pending: make(chan Completion, depth)}, nil
}

// memoryQueue completes every submission immediately (pushed to a buffered
// channel) so Reap can drain it either blocking or polling.
type memoryQueue struct {
	file    *memoryFile
	pending chan Completion
}

func (q *memoryQueue) SubmitRead(slotIndex int, buf []byte, offset int64) error {
	n := copy(buf, dataAt(q.file.data, offset, len(buf)))
	q.pending <- Completion{SlotIndex: slotIndex, Result: int32(n)}
	return nil
}

func (q *memoryQueue) SubmitWrite(slotIndex int, buf []byte, offset int64) error {
	if int(offset)+len(buf) > len(q.file.data) {
		return fmt.Errorf("write beyond end of file")
	}
	n := copy(q.file.data[offset:], buf)
	q.pending <- Completion{SlotIndex: slotIndex, Result: int32(n)}
	return nil
}

func dataAt(data []byte, offset int64, length int) []byte {
	if offset >= int64(len(data)) {
		return nil
	}
	end := offset + int64(length)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end]
}

func (q *memoryQueue) Reap(blocking bool) ([]Completion, error) {
	var out []Completion
	if blocking {
		out = append(out, <-q.pending)
	}
	for {
		select {
		case c := <-q.pending:
			out = append(out, c)
		default:
			return out, nil
		}
	}
}

func (q *memoryQueue) Destroy() error { return nil }
