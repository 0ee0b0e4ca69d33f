// Package constants holds the tunable defaults shared across diskbench's
// core packages.
package constants

import "time"

// Default configuration constants, mirroring aelstad/diskBench's built-in
// defaults.
const (
	// DefaultQueueDepth is the default I/O queue depth per worker.
	DefaultQueueDepth = 32

	// DefaultSectorSize is the default minimum I/O alignment in bytes.
	DefaultSectorSize = 512

	// DefaultPageSize is the common 4KiB page size. The platform adapters
	// query the host page size at run time and do not read this constant.
	DefaultPageSize = 4096

	// DefaultBufferSize is the default per-worker I/O buffer region size (64MiB).
	DefaultBufferSize = 64 << 20

	// DefaultMaxExecutionTime is how long a single (reqsize, depth) test runs
	// before the worker loop's time budget expires.
	DefaultMaxExecutionTime = 2 * time.Second

	// DefaultFreespaceFraction is the fraction of (current + free) space a
	// newly sized regular file is allowed to claim.
	DefaultFreespaceFraction = 0.8

	// RegularFileSizeRoundTo is the rounding boundary (128MiB) applied when
	// diskbench picks a file size from scratch.
	RegularFileSizeRoundTo = 128 << 20

	// ReuseExistingFileThreshold is the size at or above which an existing regular
	// file is reused unchanged rather than resized.
	ReuseExistingFileThreshold = 128 << 20

	// MaxQueueDepth caps the auto-generated queue-depth sweep (1,2,4,...) when
	// the caller supplies no explicit depths.
	MaxQueueDepth = 4096

	// QuickSequentialRequestSize and QuickRandomRequestSize are the single
	// request sizes a quick (non-complete) run tests, instead of sweeping.
	QuickSequentialRequestSize = 128 * 1024
	QuickRandomRequestSize     = 4096
)

// Integrity pattern constants, ground truth for the deterministic byte
// pattern stamped on write and verified on read (spec.md §4.3).
const (
	// IntegrityGroupSize is the size in bytes of one stamped/verified group.
	IntegrityGroupSize = 512

	// NonRandomFillConstant is the repeated 8-byte pattern used in non-random
	// mode, in place of the xorshift64 stream.
	NonRandomFillConstant = uint64(0xABCDEF9876543210)

	// InitialRandomSeed is the worker's starting xorshift64 seed.
	InitialRandomSeed = uint64(0x0139408DCBBF7A44)
)

// Adaptive-termination constants (spec.md §4.6, §9).
const (
	// MinTests is the size of the moving-average window the sweep driver
	// keeps per dimension before adaptive termination is allowed to fire.
	MinTests = 3
)

// Mixed-workload size-distribution constants (spec.md §4.4).
const (
	// MixedRandomPivot is the request size the random sub-stream's size
	// distribution peaks at.
	MixedRandomPivot = 4096

	// MixedSequentialPivot is the request size the sequential sub-stream's
	// size distribution peaks at.
	MixedSequentialPivot = 128 * 1024

	// MixedMaxIOSize is the largest request size the mixed generator emits.
	MixedMaxIOSize = 2 << 20

	// MixedWeightedIOSize is the "natural" request size used to weight a
	// mixed workload's contribution to the overall score.
	MixedWeightedIOSize = 4096
)
