package schedule

// IsIntervalAvailable reports whether [start, start+duration) is free: fully
// inside the operating window and not overlapping any booked block. A
// candidate that would run past closing time is unavailable, never
// truncated. Overlap uses open-interval semantics: [a,b) and [c,d) overlap
// iff a < d && c < b.
//
// The predicate is pure; callers must re-evaluate it against a freshly
// fetched booking list immediately before committing a new booking, since
// a concurrent write may have landed after the availability computation.
func (w Window) IsIntervalAvailable(start, duration int, blocks []TimeBlock) bool {
	end := start + duration
	if start < 0 || end > w.Length() {
		return false
	}
	for _, block := range blocks {
		if start < block.End && block.Start < end {
			return false
		}
	}
	return true
}
