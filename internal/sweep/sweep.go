// Package sweep implements the benchmark driver: the two-level sweep over
// request size × queue depth, one OS thread (goroutine) per participating
// worker per test, with adaptive early termination and per-test-line
// statistics (spec.md §4.6).
package sweep

import (
	"sync"
	"time"

	"github.com/ehrlich-behrlich/diskbench/internal/logging"
	"github.com/ehrlich-behrlich/diskbench/internal/stats"
	"github.com/ehrlich-behrlich/diskbench/internal/worker"
)

// Entry binds one worker to the sweep; its Generator is reset at the start
// of every test.
type Entry struct {
	Worker *worker.Worker
}

// Result is everything produced by one named sweep ("Sequential write",
// "Random read", ...): the ordered test lines, the overall aggregate, and
// any signature-size aggregate requested via Config.SignatureRequestSize.
type Result struct {
	Description string
	Lines       []stats.TestLine
	Overall     stats.Aggregate
	Signature   *stats.Aggregate

	// Err is the first fatal error encountered by any worker (I/O failure or
	// integrity mismatch). Per spec.md §7 this takes precedence over every
	// other outcome and halts the sweep — the lines collected up to and
	// including the failing test are still valid and are kept in Lines.
	Err error
}

// Config parameterizes one sweep invocation.
type Config struct {
	Description string

	// RequestSizes and QueueDepths are iterated in order; in auto mode
	// (AdaptiveTermination true) iteration over each dimension stops early
	// once its MovingWindow signals no further improvement.
	RequestSizes []int
	QueueDepths  []int

	MaxExecutionTime    time.Duration
	AdaptiveTermination bool

	// SignatureRequestSize, if nonzero, accumulates a second aggregate for
	// test lines at exactly this request size (spec.md §4.6's "signature"
	// buckets, e.g. 128KiB for sequential or 4KiB for random workloads).
	SignatureRequestSize int
}

// Run drives entries through the cross-product of cfg.RequestSizes ×
// cfg.QueueDepths, skipping depths the buffer region can't support and
// terminating each dimension early in adaptive mode.
func Run(cfg Config, entries []*Entry) *Result {
	logger := logging.Default()
	result := &Result{Description: cfg.Description}
	if cfg.SignatureRequestSize != 0 {
		result.Signature = &stats.Aggregate{}
	}

	reqWindow := &stats.MovingWindow{}

	for _, reqSize := range cfg.RequestSizes {
		depthWindow := &stats.MovingWindow{}
		var lastLineThisReqSize stats.TestLine
		var ranAnyDepth bool

		for _, depth := range cfg.QueueDepths {
			skip := false
			for _, e := range entries {
				e.Worker.Generator.Reset(e.Worker.FileSize, reqSize)
				e.Worker.QueueDepth = depth

				regionPerSlot := len(e.Worker.BufferRegion) / depth
				switch {
				case e.Worker.Generator.MaxIOSize() > regionPerSlot:
					// Buffer region sliced depth ways can't hold one request.
					skip = true
				case e.Worker.Generator.MaxIOSize() > int(e.Worker.FileSize):
					// No request of this size fits inside the file at all;
					// random/mixed generators would divide by a zero block
					// count (spec.md §8 invariant 10).
					skip = true
				case regionPerSlot < e.Worker.Adapter.PageSize():
					// Below the adapter's page-size precondition for
					// queue.Create; skip rather than let it fail (spec.md §8
					// invariant 11).
					skip = true
				}
			}
			if skip {
				logger.Debugf("%s: depth %d exhausted at request size %d", cfg.Description, depth, reqSize)
				break
			}

			line, err := runOneTest(cfg.Description, reqSize, depth, entries, cfg.MaxExecutionTime)
			result.Lines = append(result.Lines, line)
			result.Overall.Add(line)
			if result.Signature != nil && reqSize == cfg.SignatureRequestSize {
				result.Signature.Add(line)
			}
			if err != nil {
				result.Err = err
				return result
			}

			lastLineThisReqSize = line
			ranAnyDepth = true

			if cfg.AdaptiveTermination && depthWindow.Observe(line.BytesPerSecond) {
				break
			}
		}

		if !ranAnyDepth {
			break
		}
		if cfg.AdaptiveTermination && reqWindow.Observe(lastLineThisReqSize.BytesPerSecond) {
			break
		}
	}

	return result
}

// runOneTest spawns one goroutine per entry running its worker loop,
// joins, flushes every file, then folds the raw counters into a TestLine.
// No entry's goroutine touches another's state: aggregation happens here,
// on the driver goroutine, only after every worker has returned.
func runOneTest(description string, reqSize, depth int, entries []*Entry, maxExecutionTime time.Duration) (stats.TestLine, error) {
	logger := logging.Default()
	var wg sync.WaitGroup
	runErrs := make([]error, len(entries))

	for i, e := range entries {
		wg.Add(1)
		go func(i int, e *Entry) {
			defer wg.Done()
			runErrs[i] = e.Worker.Run(maxExecutionTime)
		}(i, e)
	}
	wg.Wait()

	var firstErr error
	for _, err := range runErrs {
		if err != nil {
			logger.Errorf("%s: worker failed at reqsize=%d depth=%d: %v", description, reqSize, depth, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for _, e := range entries {
		if err := e.Worker.Adapter.Flush(e.Worker.Handle); err != nil {
			logger.Warnf("flush failed: %v", err)
		}
	}

	samples := make([]stats.WorkerSample, len(entries))
	for i, e := range entries {
		s := e.Worker.Stats
		samples[i] = stats.WorkerSample{
			ReadBytes: s.ReadBytes, WriteBytes: s.WriteBytes,
			ReadRequests: s.ReadRequests, WriteRequests: s.WriteRequests,
			ReadElapsed: s.ReadElapsed, WriteElapsed: s.WriteElapsed,
			ReadMinLatency: s.ReadMinLatency, ReadMaxLatency: s.ReadMaxLatency,
			WriteMinLatency: s.WriteMinLatency, WriteMaxLatency: s.WriteMaxLatency,
			Start: s.StartTime, End: s.EndTime,
			QueueDepth:     depth,
			WeightedIOSize: e.Worker.Generator.WeightedIOSize(),
			MaxActive:      s.MaxActive,
		}
	}

	return stats.BuildLine(description, reqSize, depth, samples), firstErr
}
