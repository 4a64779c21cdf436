// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package slot implements the per-in-flight-frame reassembly state of §3
// and §4.2: the bitmap of received packets, the extended sequence base, and
// the slice tracker, plus the slot-selection/recycling algorithm itself.
package slot

import "math/bits"

// Bitmap is a packet-received bitmap indexed by (seq - seq_base). Bits are
// test-and-set so that duplicate detection (§4.3.1's test_and_set) and the
// §5 "both threads write disjoint bits, guarded by the atomic duplicate
// test" rule are one operation.
type Bitmap struct {
	words []uint64
}

// NewBitmap allocates a bitmap wide enough for at least nbits bits.
func NewBitmap(nbits int) *Bitmap {
	n := (nbits + 63) / 64
	if n < 1 {
		n = 1
	}

	return &Bitmap{words: make([]uint64, n)}
}

// Capacity returns the number of addressable bits.
func (b *Bitmap) Capacity() int {
	return len(b.words) * 64
}

// TestAndSet sets bit i and reports whether it was already set. Returns
// (false, false) — "not already set, not placed" — if i is out of range;
// the second result is what tells an out-of-range index (the OutOfWindow
// error kind of §7) apart from a fresh set.
func (b *Bitmap) TestAndSet(i uint32) (alreadySet bool, inRange bool) {
	if !b.InRange(i) {
		return false, false
	}

	word := i / 64
	bit := uint64(1) << (i % 64)

	old := b.words[word]
	b.words[word] = old | bit

	return old&bit != 0, true
}

// InRange reports whether i addresses a bit this bitmap has room for.
func (b *Bitmap) InRange(i uint32) bool {
	return int(i) < b.Capacity()
}

// PopCount returns the number of set bits, used to verify the §8 invariant
// popcount(bitmap) == pkts_received + pkts_redundant.
func (b *Bitmap) PopCount() int {
	count := 0
	for _, w := range b.words {
		count += bits.OnesCount64(w)
	}

	return count
}

// AllSetBelow reports whether every bit in [0, n) is set, used to verify a
// frame marked Complete actually has a contiguous run from the first
// packet (§8).
func (b *Bitmap) AllSetBelow(n uint32) bool {
	for i := uint32(0); i < n; i++ {
		word := i / 64
		bit := uint64(1) << (i % 64)
		if b.words[word]&bit == 0 {
			return false
		}
	}

	return true
}

// Clear zeroes every word, for slot recycling.
func (b *Bitmap) Clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}
