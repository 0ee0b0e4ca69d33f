// Command diskbench drives the async-queue disk benchmark core: it opens
// the requested files/devices, runs either an explicit or an auto-sweeping
// series of request-size/queue-depth tests against each, and writes a text
// table and optional XML report (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options collects every CLI flag 1:1 onto the worker-options fields
// spec.md §6 names.
type options struct {
	machineID        string
	bufferSize       string
	files             []string
	validateExisting bool
	preparationTime  int
	executionTime    int
	randomData       bool
	queueDepths      []int
	requestSizes     []string
	sectorSize       string
	complete         bool
	xmlOutput        string
	keepFiles        bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "diskbench",
		Short: "Async-queue disk I/O benchmark",
		Long: "diskbench drives one worker per target file/device through a " +
			"sweep of request sizes and queue depths, verifying every byte it " +
			"writes and reads back.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.machineID, "machine-id", "m", "unknown", "identification string (accepted; not written to any output)")
	flags.StringVarP(&opts.bufferSize, "bufsize", "b", "32M", "I/O buffer size per worker, limits concurrent I/O")
	flags.StringArrayVarP(&opts.files, "files", "f", nil, "path;size;iolimit (repeatable); size/iolimit may be omitted for defaults")
	flags.BoolVarP(&opts.validateExisting, "validate-existing", "v", false, "set each file's I/O byte limit to its full length; the write tests still run")
	flags.IntVarP(&opts.preparationTime, "preparation-time", "p", 300, "max seconds spent opening/sizing files (accepted; no time cap is applied)")
	flags.IntVarP(&opts.executionTime, "time", "t", 30, "execution time per test, in seconds")
	flags.BoolVarP(&opts.randomData, "random-data", "d", true, "stamp pseudorandom data on write instead of a fixed pattern")
	flags.IntSliceVarP(&opts.queueDepths, "queue-depth", "q", nil, "explicit queue depths to test; default auto-sweeps with adaptive termination")
	flags.StringArrayVarP(&opts.requestSizes, "request-size", "r", nil, "explicit request sizes to test; default auto-sweeps with adaptive termination")
	flags.StringVarP(&opts.sectorSize, "sector-size", "s", "512", "minimum I/O alignment in bytes")
	flags.BoolVarP(&opts.complete, "complete", "c", false, "run the complete sweep instead of the quick (capped) one")
	flags.StringVarP(&opts.xmlOutput, "xml-output", "x", "", "write the XML report to this path")
	flags.BoolVarP(&opts.keepFiles, "keep-files", "k", false, "don't delete files diskbench created")

	return cmd
}
