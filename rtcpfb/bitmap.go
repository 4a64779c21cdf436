// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package rtcpfb

import "fmt"

// Bitmap is the §4.6 "recent-sequence bitmap of configurable size": a
// fixed-size ring keyed by RTP sequence number (mod size) that remembers
// which of the last `size` sequence numbers have been seen. Sequence
// numbers within skipWindow of the highest seen are never reported as
// gaps — they may simply be reordered and still arriving.
type Bitmap struct {
	size       int
	skipWindow int

	slotSeq  []uint16
	received []bool

	highest     uint16
	haveHighest bool
}

// NewBitmap builds a Bitmap holding `size` recent sequence numbers, never
// reporting the most recent `skipWindow` of them as gaps.
func NewBitmap(size, skipWindow int) (*Bitmap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidBitmapSize, size)
	}
	if skipWindow < 0 || skipWindow >= size {
		return nil, fmt.Errorf("%w: skip_window=%d size=%d", errInvalidSkipWindow, skipWindow, size)
	}

	return &Bitmap{
		size:       size,
		skipWindow: skipWindow,
		slotSeq:    make([]uint16, size),
		received:   make([]bool, size),
	}, nil
}

func (b *Bitmap) index(seq uint16) int {
	return int(seq) % b.size
}

// seqGreater reports whether a is ahead of b on the 16-bit RTP sequence
// space, per RFC 1982 serial number arithmetic.
func seqGreater(a, b uint16) bool {
	return int16(a-b) > 0
}

// Record marks seq as received, opening gap slots for any sequence numbers
// between the previous highest and seq that have not yet arrived.
func (b *Bitmap) Record(seq uint16) {
	if !b.haveHighest {
		b.highest = seq
		b.haveHighest = true
		b.mark(seq, true)
		return
	}

	if seqGreater(seq, b.highest) {
		// Walk backward from seq-1, capped at the ring's own size, so a huge
		// jump (e.g. after a long outage) never spins a 64k-iteration loop.
		missing := seq - 1
		for filled := 0; filled < b.size-1 && missing != b.highest; filled++ {
			b.mark(missing, false)
			missing--
		}
		b.highest = seq
	}

	b.mark(seq, true)
}

func (b *Bitmap) mark(seq uint16, received bool) {
	idx := b.index(seq)
	b.slotSeq[idx] = seq
	b.received[idx] = received
}

// Gaps returns every sequence number older than skipWindow (relative to
// the highest seen) that is still marked un-received, oldest first.
func (b *Bitmap) Gaps() []uint16 {
	if !b.haveHighest {
		return nil
	}

	var gaps []uint16
	oldestReportable := b.highest - uint16(b.skipWindow)
	for count := 0; count < b.size; count++ {
		candidate := b.highest - uint16(count)
		if candidate == b.highest {
			continue // the highest itself was always received
		}
		if seqGreater(candidate, oldestReportable) {
			continue // still inside the skip window, give it time to arrive
		}
		idx := b.index(candidate)
		if b.slotSeq[idx] == candidate && !b.received[idx] {
			gaps = append(gaps, candidate)
		}
	}

	// Reverse into oldest-first order (the scan above walks newest-first).
	for i, j := 0, len(gaps)-1; i < j; i, j = i+1, j-1 {
		gaps[i], gaps[j] = gaps[j], gaps[i]
	}
	return gaps
}
