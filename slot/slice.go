// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package slot

import "sort"

// maxSlices bounds the slice tracker's array, per §3: "an array of up to N
// (e.g. 8) contiguous byte-range slices".
const maxSlices = 8

// byteRange is a half-open [Start, End) span within the current frame.
type byteRange struct {
	Start int64
	End   int64
}

// SliceTracker maintains the contiguous-from-zero "main" slice of a frame
// plus up to maxSlices-1 out-of-order extra spans, re-merging them into
// main as gaps close. Used only by the slice handler (§4.3.4), which
// requires incomplete-frame acceptance to be enabled.
type SliceTracker struct {
	main   byteRange
	extras []byteRange
	size   int64 // slice_size: the granularity a "slice ready" event fires on
}

// NewSliceTracker creates a tracker for a frame whose slice-ready
// granularity is sliceSize bytes.
func NewSliceTracker(sliceSize int64) *SliceTracker {
	return &SliceTracker{size: sliceSize}
}

// Reset clears all tracked spans for a new frame.
func (t *SliceTracker) Reset() {
	t.main = byteRange{}
	t.extras = t.extras[:0]
}

// MainSize returns the length of the contiguous-from-zero main slice.
func (t *SliceTracker) MainSize() int64 {
	return t.main.End
}

// Add registers a newly received [offset, offset+length) span, merges any
// extras now adjacent to main, and reports whether a new slice boundary was
// crossed — i.e. main.size/slice_size advanced — per §3 and §4.3.4.
func (t *SliceTracker) Add(offset, length int64) (crossedBoundary bool, newMainSize int64) {
	before := t.main.End / t.size

	if offset == t.main.End {
		t.main.End += length
		t.absorbExtras()
	} else if offset > t.main.End {
		t.insertExtra(byteRange{Start: offset, End: offset + length})
	}
	// offset < main.End: already-covered retransmission; nothing to do.

	after := t.main.End / t.size

	return after > before, t.main.End
}

func (t *SliceTracker) insertExtra(r byteRange) {
	// Merge with any existing extra that is adjacent or overlapping.
	for i, e := range t.extras {
		if r.Start <= e.End && e.Start <= r.End {
			merged := byteRange{Start: min64(r.Start, e.Start), End: max64(r.End, e.End)}
			t.extras[i] = merged
			t.sortExtras()

			return
		}
	}

	if len(t.extras) >= maxSlices-1 {
		return // tracker full; drop the out-of-order span, it will be re-delivered.
	}

	t.extras = append(t.extras, r)
	t.sortExtras()
}

func (t *SliceTracker) sortExtras() {
	sort.Slice(t.extras, func(i, j int) bool { return t.extras[i].Start < t.extras[j].Start })
}

// absorbExtras pulls any extras now contiguous with main into main,
// repeating until no more absorb, per §3: "main slice ... absorbs adjacent
// slices on each packet arrival, re-merging out-of-order extras."
func (t *SliceTracker) absorbExtras() {
	for {
		absorbed := false

		for i, e := range t.extras {
			if e.Start == t.main.End {
				t.main.End = e.End
				t.extras = append(t.extras[:i], t.extras[i+1:]...)
				absorbed = true

				break
			}
		}

		if !absorbed {
			return
		}
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}
