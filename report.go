package diskbench

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/ehrlich-behrlich/diskbench/internal/stats"
)

// Quantity is an XML leaf carrying both the raw value and a human-readable
// rendering, mirroring the original tool's print_xml_tag_size/print_xml_tag_time
// pattern (spec.md §6).
type Quantity struct {
	Value     int64  `xml:"value,attr"`
	Formatted string `xml:"formatted,attr"`
}

// SizeQuantity renders a byte/throughput/iops count, scaling by 1024 into
// K/M/G/T units once the value exceeds the unit threshold.
func SizeQuantity(value float64) Quantity {
	return Quantity{Value: int64(value), Formatted: formatSize(value, 1024)}
}

// TimeQuantity renders a duration, choosing units the way the original
// print_time does: days/hours/minutes down to sub-millisecond microseconds.
func TimeQuantity(d time.Duration) Quantity {
	return Quantity{Value: d.Microseconds(), Formatted: formatDuration(d)}
}

func formatSize(value float64, kvalue float64) string {
	units := " KMGT"
	unit := 0
	for value > kvalue && unit < len(units)-1 {
		value /= kvalue
		unit++
	}
	if units[unit] == ' ' {
		return fmt.Sprintf("%.0fB", value)
	}
	return fmt.Sprintf("%.1f%cB", value, units[unit])
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	day := 24 * time.Hour
	days := d / day
	d -= days * day
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	d -= millis * time.Millisecond
	micros := d / time.Microsecond

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh%dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%d.%ds", minutes, seconds, millis)
	case seconds > 0:
		return fmt.Sprintf("%d.%03ds", seconds, millis)
	case millis > 0:
		return fmt.Sprintf("%d.%03dms", millis, micros)
	default:
		return fmt.Sprintf("%dus", micros)
	}
}

// WorkloadReport is one worker's raw counters for a test_run, the
// <workload> element of spec.md §6's XML tree.
type WorkloadReport struct {
	Worker      int      `xml:"worker"`
	Depth       int      `xml:"depth"`
	ReadReqs    Quantity `xml:"read_requests"`
	WriteReqs   Quantity `xml:"write_requests"`
	BytesRead   Quantity `xml:"bytes_read"`
	BytesWrite  Quantity `xml:"bytes_written"`
	WaitRead    Quantity `xml:"wait_time_read"`
	WaitWrite   Quantity `xml:"wait_time_write"`
	MinReadLat  Quantity `xml:"min_read_latency"`
	MaxReadLat  Quantity `xml:"max_read_latency"`
	MinWriteLat Quantity `xml:"min_write_latency"`
	MaxWriteLat Quantity `xml:"max_write_latency"`
}

// TestRun is one (request size, depth) test line plus its per-worker
// breakdown, the <test_run> element.
type TestRun struct {
	XMLName xml.Name `xml:"test_run"`

	Description    string   `xml:"description"`
	ConcurrentIOPS int      `xml:"concurrent_iops"`
	BytesPerIO     Quantity `xml:"bytes_per_io"`
	BytesPerSecond Quantity `xml:"bytes_per_second"`
	IOPS           Quantity `xml:"iops"`
	WriteRequests  Quantity `xml:"write_requests"`
	ReadRequests   Quantity `xml:"read_requests"`
	BytesWritten   Quantity `xml:"bytes_written"`
	BytesRead      Quantity `xml:"bytes_read"`
	TimeElapsed    Quantity `xml:"time_elapsed"`
	MinLatency     Quantity `xml:"min_latency"`
	AvgLatency     Quantity `xml:"avg_latency"`
	MaxLatency     Quantity `xml:"max_latency"`

	Workloads []WorkloadReport `xml:"workloads>workload"`
}

// BuildTestRun converts a stats.TestLine plus its raw per-worker samples
// into a reportable TestRun, ready for XML marshaling.
func BuildTestRun(line stats.TestLine, samples []stats.WorkerSample) TestRun {
	run := TestRun{
		Description:    line.Description,
		ConcurrentIOPS: line.MaxActive,
		BytesPerSecond: SizeQuantity(line.BytesPerSecond),
		IOPS:           SizeQuantity(line.IOPS),
		WriteRequests:  SizeQuantity(float64(line.TotalRequests)),
		BytesWritten:   SizeQuantity(float64(line.TotalBytes)),
		BytesRead:      SizeQuantity(float64(line.TotalBytes)),
		TimeElapsed:    TimeQuantity(line.TotalElapsed),
		MinLatency:     TimeQuantity(line.MinLatency),
		AvgLatency:     TimeQuantity(line.AvgLatency),
		MaxLatency:     TimeQuantity(line.MaxLatency),
	}
	if line.TotalRequests > 0 {
		run.BytesPerIO = SizeQuantity(float64(line.TotalBytes) / float64(line.TotalRequests))
	}

	for i, s := range samples {
		run.Workloads = append(run.Workloads, WorkloadReport{
			Worker:      i,
			Depth:       s.QueueDepth,
			ReadReqs:    SizeQuantity(float64(s.ReadRequests)),
			WriteReqs:   SizeQuantity(float64(s.WriteRequests)),
			BytesRead:   SizeQuantity(float64(s.ReadBytes)),
			BytesWrite:  SizeQuantity(float64(s.WriteBytes)),
			WaitRead:    TimeQuantity(s.ReadElapsed),
			WaitWrite:   TimeQuantity(s.WriteElapsed),
			MinReadLat:  TimeQuantity(s.ReadMinLatency),
			MaxReadLat:  TimeQuantity(s.ReadMaxLatency),
			MinWriteLat: TimeQuantity(s.WriteMinLatency),
			MaxWriteLat: TimeQuantity(s.WriteMaxLatency),
		})
	}

	return run
}

// PrepareEntry records one worker's file-preparation outcome, the
// <prepare_and_validate> element's per-file children.
type PrepareEntry struct {
	Path      string   `xml:"path,attr"`
	Size      Quantity `xml:"size"`
	Buffer    Quantity `xml:"buffer"`
	Truncated bool     `xml:"truncated,attr"`
}

// Report is the root <diskBench> document: preparation outcomes, every
// test_run in execution order, and a final summary.
type Report struct {
	XMLName xml.Name       `xml:"diskBench"`
	Prepare []PrepareEntry `xml:"prepare_and_validate>file"`
	Tests   []TestRun      `xml:"tests>test_run"`
	Overall Quantity       `xml:"summary>bytes_per_second"`
}

// Marshal renders the report as an indented XML document with the
// standard declaration the original tool emits.
func (r Report) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	header := []byte(xml.Header)
	return append(header, out...), nil
}
