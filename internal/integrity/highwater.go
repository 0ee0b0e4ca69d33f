package integrity

// HighWaterMark tracks the furthest offset ever written for a worker's file.
// Read-side verification is bounded by this value; it persists across tests
// of the same worker (spec.md §3's worker lifecycle).
type HighWaterMark struct {
	mark int64
}

// Get returns the current mark.
func (h *HighWaterMark) Get() int64 { return h.mark }

// Advance moves the mark forward only when the just-completed write begins
// exactly at the current mark — contiguous-forward growth only. Holes never
// lower the mark; they are simply skipped by Verify.
func (h *HighWaterMark) Advance(offset, size int64) {
	if offset == h.mark {
		h.mark = offset + size
	}
}
