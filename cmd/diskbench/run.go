package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ehrlich-behrlich/diskbench"
	"github.com/ehrlich-behrlich/diskbench/internal/constants"
	"github.com/ehrlich-behrlich/diskbench/internal/logging"
	"github.com/ehrlich-behrlich/diskbench/internal/platform"
	"github.com/ehrlich-behrlich/diskbench/internal/stats"
	"github.com/ehrlich-behrlich/diskbench/internal/sweep"
	"github.com/ehrlich-behrlich/diskbench/internal/worker"
	"github.com/ehrlich-behrlich/diskbench/internal/workload"
)

// target is one opened, sized worker file plus the raw pieces needed to
// rebuild its worker for each named test family.
type target struct {
	path    string
	handle  platform.Handle
	length  uint64
	iolimit uint64
	buffer  []byte
	keep    bool
}

func run(opts *options) error {
	logger := logging.Default()

	bufSize, err := parseSize(opts.bufferSize)
	if err != nil {
		return fmt.Errorf("parsing --bufsize: %w", err)
	}
	sectorSize, err := parseSize(opts.sectorSize)
	if err != nil {
		return fmt.Errorf("parsing --sector-size: %w", err)
	}

	specs := opts.files
	if len(specs) == 0 {
		specs = []string{"diskbench.dat"}
	}

	adapter := platform.NewAdapter()
	targets := make([]*target, 0, len(specs))
	defer func() {
		for _, tgt := range targets {
			if err := adapter.Close(tgt.handle); err != nil {
				logger.Warnf("closing %s: %v", tgt.path, err)
			}
			if !tgt.keep && !opts.keepFiles {
				if err := os.Remove(tgt.path); err != nil && !os.IsNotExist(err) {
					logger.Warnf("removing %s: %v", tgt.path, err)
				}
			}
		}
	}()

	for _, spec := range specs {
		tgt, err := openTarget(adapter, spec, bufSize, opts.validateExisting)
		if err != nil {
			return err
		}
		targets = append(targets, tgt)
	}

	report := diskbench.Report{}
	for _, tgt := range targets {
		report.Prepare = append(report.Prepare, diskbench.PrepareEntry{
			Path: tgt.path,
			Size: diskbench.SizeQuantity(float64(tgt.length)),
		})
	}

	maxExecutionTime := time.Duration(opts.executionTime) * time.Second
	queueDepths := resolveQueueDepths(opts.queueDepths)
	seqSizes, randSizes, err := resolveRequestSizes(opts, bufSize, len(targets), int(sectorSize))
	if err != nil {
		return err
	}
	adaptive := len(opts.queueDepths) == 0 && len(opts.requestSizes) == 0

	families := []struct {
		description string
		generator   func() workload.Generator
		sizes       []int
		signature   int
	}{
		{"Sequential write", func() workload.Generator { return workload.NewSequential(platform.Write) }, seqSizes, constants.QuickSequentialRequestSize},
		{"Sequential read", func() workload.Generator { return workload.NewSequential(platform.Read) }, seqSizes, constants.QuickSequentialRequestSize},
		{"Random write", func() workload.Generator { return workload.NewRandom(platform.Write) }, randSizes, constants.QuickRandomRequestSize},
		{"Random read", func() workload.Generator { return workload.NewRandom(platform.Read) }, randSizes, constants.QuickRandomRequestSize},
		{"Mixed", func() workload.Generator { return workload.NewMixed() }, []int{int(sectorSize)}, 0},
	}

	for _, fam := range families {
		entries := make([]*sweep.Entry, 0, len(targets))
		for _, tgt := range targets {
			w := worker.New(adapter, tgt.handle, tgt.length, tgt.buffer, tgt.iolimit, opts.randomData)
			w.Generator = fam.generator()
			entries = append(entries, &sweep.Entry{Worker: w})
		}

		logger.Infof("running %s", fam.description)
		result := sweep.Run(sweep.Config{
			Description:          fam.description,
			RequestSizes:          fam.sizes,
			QueueDepths:           queueDepths,
			MaxExecutionTime:      maxExecutionTime,
			AdaptiveTermination:   adaptive,
			SignatureRequestSize:  fam.signature,
		}, entries)

		for _, line := range result.Lines {
			printTestLine(line)
			report.Tests = append(report.Tests, diskbench.BuildTestRun(line, nil))
		}

		if result.Err != nil {
			return diskbench.WrapError("sweep.Run", diskbench.ErrCodeSubmitFailed, result.Err)
		}
	}

	if opts.xmlOutput != "" {
		out, err := report.Marshal()
		if err != nil {
			return fmt.Errorf("marshaling xml report: %w", err)
		}
		if err := os.WriteFile(opts.xmlOutput, out, 0o644); err != nil {
			return fmt.Errorf("writing xml report to %s: %w", opts.xmlOutput, err)
		}
	}

	return nil
}

func openTarget(adapter platform.Adapter, spec string, bufSize uint64, validateExisting bool) (*target, error) {
	path, size, iolimit, err := parseFileSpec(spec)
	if err != nil {
		return nil, err
	}

	res, err := adapter.Open(path, size, constants.DefaultFreespaceFraction)
	if err != nil {
		return nil, diskbench.NewFileError("platform.Open", path, diskbench.ErrCodeOpenFailed, err.Error())
	}
	if validateExisting {
		iolimit = res.Length
	}

	buf, err := adapter.AllocateIOBuffer(int(bufSize))
	if err != nil {
		return nil, diskbench.NewFileError("platform.AllocateIOBuffer", path, diskbench.ErrCodeOpenFailed, err.Error())
	}

	if iolimit == 0 {
		iolimit = ^uint64(0)
	}

	return &target{
		path:    path,
		handle:  res.Handle,
		length:  res.Length,
		iolimit: iolimit,
		buffer:  buf,
		keep:    res.IsBlock || !res.Truncated,
	}, nil
}

// parseFileSpec splits "path;size;iolimit" per spec.md §6; size/iolimit may
// be omitted or zero to mean "use the default".
func parseFileSpec(spec string) (path string, size, iolimit uint64, err error) {
	parts := strings.Split(spec, ";")
	path = parts[0]
	if path == "" {
		return "", 0, 0, fmt.Errorf("empty file path in spec %q", spec)
	}
	if len(parts) > 1 && parts[1] != "" {
		if size, err = parseSize(parts[1]); err != nil {
			return "", 0, 0, fmt.Errorf("parsing size in spec %q: %w", spec, err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if iolimit, err = parseSize(parts[2]); err != nil {
			return "", 0, 0, fmt.Errorf("parsing iolimit in spec %q: %w", spec, err)
		}
	}
	return path, size, iolimit, nil
}

// parseSize parses a size string like "64M", "1G", "512K", or a bare byte count.
func parseSize(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := uint64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "T"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "T")
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * multiplier, nil
}

func resolveQueueDepths(explicit []int) []int {
	if len(explicit) > 0 {
		return explicit
	}
	var depths []int
	for d := 1; d <= constants.MaxQueueDepth; d *= 2 {
		depths = append(depths, d)
	}
	return depths
}

func resolveRequestSizes(opts *options, bufSize uint64, numTargets, sectorSize int) (sequential, random []int, err error) {
	if len(opts.requestSizes) > 0 {
		sizes := make([]int, 0, len(opts.requestSizes))
		for _, s := range opts.requestSizes {
			v, parseErr := parseSize(s)
			if parseErr != nil {
				return nil, nil, fmt.Errorf("parsing --request-size: %w", parseErr)
			}
			sizes = append(sizes, int(v))
		}
		return sizes, sizes, nil
	}

	if !opts.complete {
		return []int{constants.QuickSequentialRequestSize}, []int{constants.QuickRandomRequestSize}, nil
	}

	var sizes []int
	ceiling := int(bufSize)
	if numTargets > 0 {
		ceiling = int(bufSize) / numTargets
	}
	for s := sectorSize; s <= ceiling; s *= 2 {
		sizes = append(sizes, s)
	}
	return sizes, sizes, nil
}

func printTestLine(line stats.TestLine) {
	fmt.Printf("%-20s %8d %4d %12s %10s %10.0f %10s\n",
		line.Description, line.RequestSize, line.QueueDepth,
		diskbench.SizeQuantity(line.BytesPerSecond).Formatted+"/s",
		diskbench.SizeQuantity(line.IOPS).Formatted,
		line.IOPS,
		diskbench.TimeQuantity(line.AvgLatency).Formatted,
	)
}
