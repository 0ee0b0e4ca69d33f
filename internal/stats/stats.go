// Package stats implements the statistics aggregator: per-test-line
// derived metrics (throughput, IOPS, latency, weighted score) and the
// running aggregate across a family of tests (spec.md §4.6, §4.7).
package stats

import "time"

// WorkerSample is one worker's raw counters for a single completed test,
// the input the aggregator turns into a TestLine.
type WorkerSample struct {
	ReadBytes, WriteBytes       uint64
	ReadRequests, WriteRequests uint64
	ReadElapsed, WriteElapsed   time.Duration
	ReadMinLatency              time.Duration
	ReadMaxLatency              time.Duration
	WriteMinLatency             time.Duration
	WriteMaxLatency             time.Duration
	Start, End                  time.Time
	QueueDepth                  int
	WeightedIOSize              int
	MaxActive                   int
}

// TestLine is the aggregate for one (description, request-size, depth)
// combination across all participating workers.
type TestLine struct {
	Description string
	RequestSize int
	QueueDepth  int

	TotalBytes    uint64
	TotalRequests uint64
	TotalElapsed  time.Duration

	BytesPerSecond float64
	IOPS           float64
	AvgLatency     time.Duration

	MinLatency    time.Duration
	MaxLatency    time.Duration
	HasLatency    bool

	WeightedBytesPerSecond float64
	Weight                 float64

	MaxActive int
}

// BuildLine derives a TestLine from the raw per-worker samples collected
// for one test.
func BuildLine(description string, requestSize, queueDepth int, samples []WorkerSample) TestLine {
	line := TestLine{Description: description, RequestSize: requestSize, QueueDepth: queueDepth}
	if len(samples) == 0 {
		return line
	}

	minStart := samples[0].Start
	maxEnd := samples[0].End
	for _, s := range samples[1:] {
		if s.Start.Before(minStart) {
			minStart = s.Start
		}
		if s.End.After(maxEnd) {
			maxEnd = s.End
		}
	}
	line.TotalElapsed = maxEnd.Sub(minStart)

	var sumElapsed time.Duration
	for _, s := range samples {
		line.TotalBytes += s.ReadBytes + s.WriteBytes
		line.TotalRequests += s.ReadRequests + s.WriteRequests
		sumElapsed += s.ReadElapsed + s.WriteElapsed

		if s.ReadRequests > 0 {
			line.considerLatency(s.ReadMinLatency, s.ReadMaxLatency)
		}
		if s.WriteRequests > 0 {
			line.considerLatency(s.WriteMinLatency, s.WriteMaxLatency)
		}
		if s.MaxActive > line.MaxActive {
			line.MaxActive = s.MaxActive
		}
	}

	elapsedMicros := float64(line.TotalElapsed.Microseconds())
	if elapsedMicros > 0 {
		line.BytesPerSecond = float64(line.TotalBytes) * 1e6 / elapsedMicros
		line.IOPS = float64(line.TotalRequests) * 1e6 / elapsedMicros
	}
	if line.TotalRequests > 0 {
		line.AvgLatency = sumElapsed / time.Duration(line.TotalRequests)
	}

	line.Weight, line.WeightedBytesPerSecond = weighTestLine(queueDepth, samples)

	return line
}

func (l *TestLine) considerLatency(min, max time.Duration) {
	if !l.HasLatency {
		l.MinLatency = min
		l.MaxLatency = max
		l.HasLatency = true
		return
	}
	if min < l.MinLatency {
		l.MinLatency = min
	}
	if max > l.MaxLatency {
		l.MaxLatency = max
	}
}

// weighTestLine implements spec.md §4.6's weighting formula: per worker,
// distance = max(avg,target)/min(avg,target), weight = 10/(distance+depth);
// the line's weighted throughput is the weight-sum of per-worker bytes/sec,
// and the line's own weight is the average per-worker weight divided again
// by the worker count.
func weighTestLine(queueDepth int, samples []WorkerSample) (weight, weightedBytesPerSecond float64) {
	count := len(samples)
	if count == 0 {
		return 0, 0
	}

	var sumWeight, sumWeightedBytesPerSecond float64
	for _, s := range samples {
		totalBytes := s.ReadBytes + s.WriteBytes
		totalRequests := s.ReadRequests + s.WriteRequests
		if totalRequests == 0 || s.WeightedIOSize == 0 {
			continue
		}

		avg := float64(totalBytes) / float64(totalRequests)
		target := float64(s.WeightedIOSize)
		distance := maxF(avg, target) / minF(avg, target)
		workerWeight := 10.0 / (distance + float64(queueDepth))

		elapsedSeconds := s.End.Sub(s.Start).Seconds()
		var bytesPerSecond float64
		if elapsedSeconds > 0 {
			bytesPerSecond = float64(totalBytes) / elapsedSeconds
		}

		sumWeight += workerWeight
		sumWeightedBytesPerSecond += workerWeight * bytesPerSecond
	}

	avgWeight := sumWeight / float64(count)
	lineWeight := avgWeight / float64(count)
	return lineWeight, sumWeightedBytesPerSecond
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Aggregate accumulates across a family of TestLines: summed bytes and
// requests, summed weighted throughput and weight, min/max line throughput,
// and peak active concurrency.
type Aggregate struct {
	TotalBytes                uint64
	TotalRequests             uint64
	SumWeightedBytesPerSecond float64
	SumWeight                 float64
	MinLineBytesPerSecond     float64
	MaxLineBytesPerSecond     float64
	PeakActive                int

	lineCount int
}

// Add folds one TestLine into the aggregate.
func (a *Aggregate) Add(line TestLine) {
	a.TotalBytes += line.TotalBytes
	a.TotalRequests += line.TotalRequests
	a.SumWeightedBytesPerSecond += line.WeightedBytesPerSecond
	a.SumWeight += line.Weight

	if a.lineCount == 0 || line.BytesPerSecond < a.MinLineBytesPerSecond {
		a.MinLineBytesPerSecond = line.BytesPerSecond
	}
	if a.lineCount == 0 || line.BytesPerSecond > a.MaxLineBytesPerSecond {
		a.MaxLineBytesPerSecond = line.BytesPerSecond
	}
	if line.MaxActive > a.PeakActive {
		a.PeakActive = line.MaxActive
	}
	a.lineCount++
}

// OverallScore is Σ weighted_bytes_per_second / Σ weight across every line
// folded into the aggregate so far.
func (a *Aggregate) OverallScore() float64 {
	if a.SumWeight == 0 {
		return 0
	}
	return a.SumWeightedBytesPerSecond / a.SumWeight
}
