// Package integrity implements the deterministic per-offset byte pattern
// stamped on every write and verified on every read below a file's
// high-water mark.
package integrity

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-behrlich/diskbench/internal/constants"
	"github.com/ehrlich-behrlich/diskbench/internal/xorshift"
)

// MismatchError reports a detected data-integrity failure. Per spec.md it
// takes precedence over every other failure mode: the whole run aborts.
type MismatchError struct {
	Offset int64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("data integrity error at offset %d", e.Offset)
}

// Xorshift64Next advances seed in place per the stream
// x ^= x<<13; x ^= x>>7; x ^= x<<17, and returns the new state — the
// mutated value is the emitted one, not the pre-mutation value.
func Xorshift64Next(seed *uint64) uint64 {
	return xorshift.Next(seed)
}

// Stamper writes the integrity pattern into write buffers, carrying the
// worker's random seed forward across calls. The seed only ever advances on
// writes — reads recover and verify against whatever seed was stamped into
// the buffer, independent of the stamper's current state.
type Stamper struct {
	seed       uint64
	randomMode bool
}

// NewStamper constructs a Stamper seeded per spec.md's fixed initial value.
func NewStamper(randomMode bool) *Stamper {
	return &Stamper{seed: constants.InitialRandomSeed, randomMode: randomMode}
}

// Seed returns the stamper's current seed (for tests and diagnostics).
func (s *Stamper) Seed() uint64 { return s.seed }

// Stamp fills buf, which represents the bytes at [offset, offset+len(buf)),
// with the integrity pattern in 512-byte groups. Each group's first 8 bytes
// are its own absolute offset; the remainder is either the xorshift64 stream
// seeded by the stamper's current seed (random mode) or the fixed constant
// (non-random mode).
func (s *Stamper) Stamp(buf []byte, offset int64) {
	const groupSize = constants.IntegrityGroupSize
	for i := 0; i < len(buf); i += groupSize {
		end := i + groupSize
		if end > len(buf) {
			end = len(buf)
		}
		group := buf[i:end]
		binary.LittleEndian.PutUint64(group[0:8], uint64(offset)+uint64(i))

		if s.randomMode {
			binary.LittleEndian.PutUint64(group[8:16], s.seed)
			for w := 16; w+8 <= len(group); w += 8 {
				v := Xorshift64Next(&s.seed)
				binary.LittleEndian.PutUint64(group[w:w+8], v)
			}
		} else {
			for w := 8; w+8 <= len(group); w += 8 {
				binary.LittleEndian.PutUint64(group[w:w+8], constants.NonRandomFillConstant)
			}
		}
	}
}

// Verify recomputes and compares the pattern for every group in buf whose
// absolute offset lies strictly below highWaterMark; groups at or beyond the
// mark were never written and are skipped. randomMode must match the mode
// the buffer was stamped with.
func Verify(buf []byte, offset int64, highWaterMark int64, randomMode bool) error {
	const groupSize = constants.IntegrityGroupSize

	i := 0
	off := offset
	for i < len(buf) && off < highWaterMark {
		end := i + groupSize
		if end > len(buf) {
			end = len(buf)
		}
		group := buf[i:end]

		got := int64(binary.LittleEndian.Uint64(group[0:8]))
		if got != off {
			return &MismatchError{Offset: off}
		}

		if randomMode {
			seed := binary.LittleEndian.Uint64(group[8:16])
			for w := 16; w+8 <= len(group); w += 8 {
				want := Xorshift64Next(&seed)
				if binary.LittleEndian.Uint64(group[w:w+8]) != want {
					return &MismatchError{Offset: off + int64(w)}
				}
			}
		} else {
			for w := 8; w+8 <= len(group); w += 8 {
				if binary.LittleEndian.Uint64(group[w:w+8]) != constants.NonRandomFillConstant {
					return &MismatchError{Offset: off + int64(w)}
				}
			}
		}

		i += groupSize
		off = offset + int64(i)
	}
	return nil
}
