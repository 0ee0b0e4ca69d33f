// Package queue implements the fixed-depth async I/O queue: a pool of
// request slots dispatched to a platform adapter, with free/active
// accounting and a ready list for slot reuse.
package queue

import (
	"fmt"
	"time"

	"github.com/ehrlich-behrlich/diskbench/internal/platform"
)

// CompletionHandler dispatches a reaped completion to the integrity layer.
// Only two callbacks exist (read-complete, write-complete); the queue
// dispatches on the slot's Direction tag rather than storing a function
// pointer per slot.
type CompletionHandler interface {
	OnReadComplete(slot *Slot, err error)
	OnWriteComplete(slot *Slot, err error)
}

// Queue owns a contiguous array of N request slots, a ready list of slots
// free for reuse, and the platform adapter/queue backing this worker.
// Invariant: free + active == N at every quiescent point (spec invariant 1).
type Queue struct {
	adapter platform.Adapter
	handle  platform.Handle
	pq      platform.Queue
	handler CompletionHandler

	slots []Slot
	ready []int // FIFO of ready slot indices; front = next to pop, returns go to the tail

	free   int
	active int

	maxActive int
}

// Create allocates depth slots, slices bufferRegion into depth equal
// page-aligned subregions (one per slot), pushes all slots onto the ready
// list, and asks the adapter to create its queue. Precondition (checked by
// the caller/sweep driver): len(bufferRegion)/depth >= adapter.PageSize().
func Create(adapter platform.Adapter, handle platform.Handle, depth int, bufferRegion []byte, handler CompletionHandler) (*Queue, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("queue depth must be positive, got %d", depth)
	}
	regionSize := len(bufferRegion) / depth
	if regionSize < adapter.PageSize() {
		return nil, fmt.Errorf("buffer region too small for depth %d: %d bytes/slot < page size %d", depth, regionSize, adapter.PageSize())
	}

	pq, err := adapter.QueueCreate(handle, depth)
	if err != nil {
		return nil, fmt.Errorf("adapter queue_create: %w", err)
	}

	q := &Queue{
		adapter: adapter,
		handle:  handle,
		pq:      pq,
		handler: handler,
		slots:   make([]Slot, depth),
		ready:   make([]int, depth),
		free:    depth,
		active:  0,
	}
	for i := range q.slots {
		q.slots[i] = Slot{
			Index:  i,
			Buffer: bufferRegion[i*regionSize : (i+1)*regionSize : (i+1)*regionSize],
		}
		q.ready[i] = i
	}
	return q, nil
}

// Free returns the number of slots currently on the ready list.
func (q *Queue) Free() int { return q.free }

// Active returns the number of submissions not yet reaped.
func (q *Queue) Active() int { return q.active }

// MaxActive returns the largest Active() has ever been for this queue.
func (q *Queue) MaxActive() int { return q.maxActive }

// PopReady pops a slot from the ready list without changing free/active
// counts; the caller decides whether to submit it or push it back.
func (q *Queue) PopReady() (*Slot, bool) {
	if len(q.ready) == 0 {
		return nil, false
	}
	idx := q.ready[0]
	q.ready = q.ready[1:]
	return &q.slots[idx], true
}

// PushReady returns a slot to the tail of the ready list without touching
// free/active — used when a popped slot is not submitted (byte-budget
// exhausted, spec.md §4.5 step 3).
func (q *Queue) PushReady(slot *Slot) {
	q.ready = append(q.ready, slot.Index)
}

// SubmitRead stamps the slot's offset/size/direction, increments active,
// decrements free, stamps pre/post-submission, and hands the slot to the
// adapter. The buffer belongs exclusively to the adapter until reaped.
func (q *Queue) SubmitRead(slot *Slot, offset int64, size int) error {
	slot.Offset = offset
	slot.Size = size
	slot.Direction = platform.Read
	slot.Completed = time.Time{}

	slot.PreSubmission = time.Now()
	q.free--
	q.active++

	if err := q.pq.SubmitRead(slot.Index, slot.Buffer[:size], offset); err != nil {
		q.free++
		q.active--
		return fmt.Errorf("submit_read: %w", err)
	}
	slot.PostSubmission = time.Now()
	if q.active > q.maxActive {
		q.maxActive = q.active
	}
	return nil
}

// SubmitWrite is SubmitRead's write counterpart. The caller is responsible
// for stamping the integrity pattern into slot.Buffer before calling this —
// the queue layer does not know about the integrity format.
func (q *Queue) SubmitWrite(slot *Slot, offset int64, size int) error {
	slot.Offset = offset
	slot.Size = size
	slot.Direction = platform.Write
	slot.Completed = time.Time{}

	slot.PreSubmission = time.Now()
	q.free--
	q.active++

	if err := q.pq.SubmitWrite(slot.Index, slot.Buffer[:size], offset); err != nil {
		q.free++
		q.active--
		return fmt.Errorf("submit_write: %w", err)
	}
	slot.PostSubmission = time.Now()
	if q.active > q.maxActive {
		q.maxActive = q.active
	}
	return nil
}

// Wait is a drain loop: while active > 0, reap from the adapter (blocking
// when fewer completions have arrived than requested, or when there are no
// free slots to submit more work with). Returns the number of completions
// observed; if an iteration makes no progress, it returns early.
func (q *Queue) Wait(requestedEvents int) (int, error) {
	observed := 0
	for q.active > 0 {
		blocking := observed < requestedEvents || q.free == 0
		completions, err := q.pq.Reap(blocking)
		if err != nil {
			return observed, fmt.Errorf("reap: %w", err)
		}
		if len(completions) == 0 {
			return observed, nil
		}
		for _, c := range completions {
			q.notify(c)
			observed++
		}
	}
	return observed, nil
}

// Barrier drains all in-flight operations: equivalent to Wait(active).
func (q *Queue) Barrier() (int, error) {
	return q.Wait(q.active)
}

// notify runs the completed slot's handler, pushes it back onto the ready
// list, and updates the free/active counters.
func (q *Queue) notify(c platform.Completion) {
	slot := &q.slots[c.SlotIndex]
	slot.Completed = time.Now()

	var err error
	if c.Result < 0 {
		err = c.Err
		if err == nil {
			err = fmt.Errorf("completion reported negative result %d", c.Result)
		}
	}

	switch slot.Direction {
	case platform.Read:
		q.handler.OnReadComplete(slot, err)
	case platform.Write:
		q.handler.OnWriteComplete(slot, err)
	}

	q.ready = append(q.ready, slot.Index)
	q.free++
	q.active--
}

// Destroy tears down the adapter-private queue state. Slot storage is
// released when the Go GC collects the Queue.
func (q *Queue) Destroy() error {
	return q.pq.Destroy()
}
