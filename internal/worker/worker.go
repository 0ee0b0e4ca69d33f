// Package worker implements the per-file, per-test worker loop: pulling a
// free slot, asking the workload generator to fill it, stamping/verifying
// through the integrity layer, and submitting to the async queue until a
// time budget or byte limit is reached (spec.md §4.5).
package worker

import (
	"time"

	"github.com/ehrlich-behrlich/diskbench/internal/integrity"
	"github.com/ehrlich-behrlich/diskbench/internal/platform"
	"github.com/ehrlich-behrlich/diskbench/internal/queue"
	"github.com/ehrlich-behrlich/diskbench/internal/workload"
)

// Stats accumulates the counters spec.md §3 assigns to a workload: bytes,
// request counts, and per-direction latency, for one completed test.
type Stats struct {
	ReadBytes, WriteBytes       uint64
	ReadRequests, WriteRequests uint64
	ReadElapsed, WriteElapsed   time.Duration
	ReadMinLatency              time.Duration
	ReadMaxLatency              time.Duration
	WriteMinLatency             time.Duration
	WriteMaxLatency             time.Duration
	StartTime, EndTime          time.Time
	MaxActive                   int
}

// Worker binds one open file to one test configuration: buffer region, byte
// limit, workload generator, and the integrity state (high-water mark plus
// stamper) that persists across tests of the same file.
type Worker struct {
	Adapter      platform.Adapter
	Handle       platform.Handle
	FileSize     uint64
	BufferRegion []byte
	IOLimit      uint64
	QueueDepth   int
	Generator    workload.Generator
	RandomMode   bool

	HighWater integrity.HighWaterMark
	Stamper   *integrity.Stamper

	Stats Stats

	submittedBytes uint64
	err            error
}

// New constructs a Worker. The Stamper is created here rather than taken as
// a parameter because its seed must start at the fixed initial value and
// persist across this worker's tests, exactly like HighWater.
func New(adapter platform.Adapter, handle platform.Handle, fileSize uint64, bufferRegion []byte, ioLimit uint64, randomMode bool) *Worker {
	return &Worker{
		Adapter:      adapter,
		Handle:       handle,
		FileSize:     fileSize,
		BufferRegion: bufferRegion,
		IOLimit:      ioLimit,
		RandomMode:   randomMode,
		Stamper:      integrity.NewStamper(randomMode),
	}
}

// Run executes one test: creates a queue of QueueDepth against BufferRegion,
// drives the worker loop until maxExecutionTime elapses or IOLimit is
// reached, then barriers and destroys the queue. Returns the first fatal
// error observed (I/O failure, submit failure, or an integrity mismatch);
// timeout and byte-limit exhaustion are not errors.
func (w *Worker) Run(maxExecutionTime time.Duration) error {
	w.Stats = Stats{}
	w.submittedBytes = 0
	w.err = nil

	start := time.Now()
	w.Stats.StartTime = start
	terminateAt := start.Add(maxExecutionTime)

	q, err := queue.Create(w.Adapter, w.Handle, w.QueueDepth, w.BufferRegion, w)
	if err != nil {
		return err
	}

	var req workload.Request
	for w.err == nil && !time.Now().After(terminateAt) {
		slot, ok := q.PopReady()
		if !ok {
			if _, waitErr := q.Wait(1); waitErr != nil {
				w.err = waitErr
			}
			continue
		}

		w.Generator.Fill(&req)
		if w.submittedBytes+uint64(req.Size) > w.IOLimit {
			q.PushReady(slot)
			break
		}

		var submitErr error
		if req.Direction == platform.Write {
			w.Stamper.Stamp(slot.Buffer[:req.Size], req.Offset)
			submitErr = q.SubmitWrite(slot, req.Offset, req.Size)
		} else {
			submitErr = q.SubmitRead(slot, req.Offset, req.Size)
		}
		if submitErr != nil {
			w.err = submitErr
			break
		}
		w.submittedBytes += uint64(req.Size)

		if _, waitErr := q.Wait(0); waitErr != nil {
			w.err = waitErr
		}
	}

	if _, barrierErr := q.Barrier(); barrierErr != nil && w.err == nil {
		w.err = barrierErr
	}
	w.Stats.EndTime = time.Now()
	w.Stats.MaxActive = q.MaxActive()

	if destroyErr := q.Destroy(); destroyErr != nil && w.err == nil {
		w.err = destroyErr
	}

	return w.err
}

// SubmittedBytes reports the bytes submitted so far in the current/last run.
func (w *Worker) SubmittedBytes() uint64 { return w.submittedBytes }

func (w *Worker) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// OnReadComplete implements queue.CompletionHandler. It updates read
// latency/byte/request counters, then verifies the integrity pattern for
// every group below the high-water mark. A mismatch is fatal. Verification
// is skipped when the completion itself reported an error, and only the
// first error of a run is kept.
func (w *Worker) OnReadComplete(slot *queue.Slot, err error) {
	elapsed := slot.Completed.Sub(slot.PreSubmission)
	updateLatency(&w.Stats.ReadMinLatency, &w.Stats.ReadMaxLatency, elapsed, w.Stats.ReadRequests)
	w.Stats.ReadRequests++
	w.Stats.ReadBytes += uint64(slot.Size)
	w.Stats.ReadElapsed += elapsed

	if err != nil {
		w.setErr(err)
		return
	}

	if verr := integrity.Verify(slot.Buffer[:slot.Size], slot.Offset, w.HighWater.Get(), w.RandomMode); verr != nil {
		w.setErr(verr)
	}
}

// OnWriteComplete implements queue.CompletionHandler. It updates write
// latency/byte/request counters, then advances the high-water mark if this
// write was contiguous with it.
func (w *Worker) OnWriteComplete(slot *queue.Slot, err error) {
	elapsed := slot.Completed.Sub(slot.PreSubmission)
	updateLatency(&w.Stats.WriteMinLatency, &w.Stats.WriteMaxLatency, elapsed, w.Stats.WriteRequests)
	w.Stats.WriteRequests++
	w.Stats.WriteBytes += uint64(slot.Size)
	w.Stats.WriteElapsed += elapsed

	if err != nil {
		w.setErr(err)
		return
	}

	w.HighWater.Advance(slot.Offset, int64(slot.Size))
}

func updateLatency(min, max *time.Duration, elapsed time.Duration, priorCount uint64) {
	if priorCount == 0 {
		*min = elapsed
		*max = elapsed
		return
	}
	if elapsed < *min {
		*min = elapsed
	}
	if elapsed > *max {
		*max = elapsed
	}
}
