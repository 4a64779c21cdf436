// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package slot

import "sync/atomic"

// capturedFlag marks bit 32 of the packed state to distinguish "base is
// zero" from "base was never captured" — the same packed-atomic trick the
// teacher's transmit-side sequencer uses to fit two pieces of state
// (sequence number, rollover count) into one atomic.Uint64 without a mutex.
const capturedFlag = uint64(1) << 32

// SeqBase captures a reassembly slot's extended sequence base exactly once,
// per §3's "seq_base is captured exactly once per slot, on the first
// accepted packet" invariant, and per §4.7's rule that only the control
// thread may perform that capture — a late co-thread packet must never
// misinitialize it. The single atomic word makes the "exactly once, control
// thread only" rule a lock-free compare-and-swap instead of a mutex.
type SeqBase struct {
	state atomic.Uint64
}

// TryCapture attempts to set the base to value. It only succeeds if the
// base has not yet been captured AND the caller is the control thread.
// Returns (the effective base, true) if this call captured it or it was
// already captured with this exact value; returns (existing base, false)
// if another value already won the race.
func (s *SeqBase) TryCapture(value uint32, isControlThread bool) (uint32, bool) {
	for {
		cur := s.state.Load()
		if cur&capturedFlag != 0 {
			return uint32(cur), uint32(cur) == value
		}

		if !isControlThread {
			return 0, false
		}

		next := capturedFlag | uint64(value)
		if s.state.CompareAndSwap(cur, next) {
			return value, true
		}
	}
}

// Captured reports whether a base has been set, and its value.
func (s *SeqBase) Captured() (uint32, bool) {
	cur := s.state.Load()

	return uint32(cur), cur&capturedFlag != 0
}

// Reset clears the captured base, for slot recycling.
func (s *SeqBase) Reset() {
	s.state.Store(0)
}

// Index returns seq minus the captured base, modulo 2^32, per §3:
// "all subsequent packets compute index (seq − seq_base) mod 2³²".
func (s *SeqBase) Index(seq uint32) (idx uint32, ok bool) {
	base, captured := s.Captured()
	if !captured {
		return 0, false
	}

	return seq - base, true
}
