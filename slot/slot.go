// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package slot

import (
	"time"

	"github.com/prankurgit/Media-Transport-Library/framepool"
)

// Disposition is the frame-level outcome decided at slot close, per §7.
type Disposition int

// Dispositions a slot can close with.
const (
	DispositionIdle Disposition = iota
	DispositionCapturing
	DispositionComplete
	DispositionReconstructed
	DispositionCorrupted
)

func (d Disposition) String() string {
	switch d {
	case DispositionIdle:
		return "idle"
	case DispositionCapturing:
		return "capturing"
	case DispositionComplete:
		return "complete"
	case DispositionReconstructed:
		return "reconstructed"
	case DispositionCorrupted:
		return "corrupted"
	default:
		return "unknown"
	}
}

// reconstructedThreshold is the §4.5 / §8 redundancy threshold: a frame is
// Reconstructed rather than Complete when the secondary port contributed
// more than this many packets beyond trivial overlap.
const reconstructedThreshold = 16

// Slot is one reassembly slot: the per-in-flight-frame state of §3.
// A session owns K≥1 slots, selected by RTP timestamp.
type Slot struct {
	Timestamp        uint32
	SeqBase          SeqBase
	Bitmap           *Bitmap
	PktsReceived     uint32
	PktsRedundant    uint32
	FrameRecvSize    int64 // written only by the control thread, per §5
	CoThreadRecvSize int64 // written only by the co-thread, per §5
	SecondField      bool
	FirstPacketAt    time.Time
	Slice            *SliceTracker // nil unless the slice handler is in use
	ExpectedSize     int64         // frame_size, or the ST 2110-22 marker-derived size
	ExpectedPackets  uint32        // 0 means "unknown until completion check by size"
	BoxHeaderLen     int64         // ST 2110-22 only: combined jpvs+colr length, subtracted from offsets

	// Buffer is the frame buffer lent to this slot by the session's frame
	// pool, per §3: "lent to at most one slot at a time". Nil until the
	// slot has been assigned one by slot_by_timestamp.
	Buffer *framepool.Buffer

	disposition Disposition
}

// FrameBuffer returns the buffer currently lent to this slot, or nil.
func (s *Slot) FrameBuffer() *framepool.Buffer {
	return s.Buffer
}

// NewSlot allocates a slot with a bitmap sized for bitmapBits addressable
// packet indices.
func NewSlot(bitmapBits int) *Slot {
	return &Slot{Bitmap: NewBitmap(bitmapBits), disposition: DispositionIdle}
}

// Reset reinitializes the slot for a new frame, per §4.2 step 3: "flush the
// evicted slot ... initialize the new slot with ts, clear the bitmap".
func (s *Slot) Reset(ts uint32, expectedSize int64, expectedPackets uint32) {
	s.Timestamp = ts
	s.SeqBase.Reset()
	s.Bitmap.Clear()
	s.PktsReceived = 0
	s.PktsRedundant = 0
	s.FrameRecvSize = 0
	s.CoThreadRecvSize = 0
	s.SecondField = false
	s.FirstPacketAt = time.Time{}
	s.ExpectedSize = expectedSize
	s.ExpectedPackets = expectedPackets
	s.BoxHeaderLen = 0
	s.Buffer = nil
	s.disposition = DispositionCapturing
	if s.Slice != nil {
		s.Slice.Reset()
	}
}

// AssignBuffer lends a frame buffer to the slot, per §4.1/§4.2: acquired
// from the session's frame pool when the slot is (re)initialized.
func (s *Slot) AssignBuffer(buf *framepool.Buffer) {
	s.Buffer = buf
}

// TotalRecvSize is the authoritative received-byte total, per §4.7: the sum
// of the two disjoint per-thread counters, never a single contended field.
func (s *Slot) TotalRecvSize() int64 {
	return s.FrameRecvSize + s.CoThreadRecvSize
}

// IsComplete reports whether enough bytes have arrived to close the frame,
// per §3's invariant: frame_recv_size <= frame_size, complete on equality.
func (s *Slot) IsComplete() bool {
	return s.ExpectedSize > 0 && s.TotalRecvSize() >= s.ExpectedSize
}

// RecordArrival records one accepted (non-duplicate) packet's contribution.
// ctrlThread selects which of the two disjoint size counters is advanced,
// per §4.7 and §9's "two disjoint sub-states" design note.
func (s *Slot) RecordArrival(n int64, ctrlThread bool) {
	if ctrlThread {
		s.FrameRecvSize += n
	} else {
		s.CoThreadRecvSize += n
	}
	s.PktsReceived++
	if s.FirstPacketAt.IsZero() {
		s.FirstPacketAt = time.Now()
	}
}

// RecordRedundant records a duplicate packet that only set an
// already-set bitmap bit, per §4.5: "payload is placed only on the first
// arrival" so a redundant packet never changes TotalRecvSize.
func (s *Slot) RecordRedundant() {
	s.PktsRedundant++
}

// Close computes the final disposition for the slot, per §7 and §4.5. dmaEmpty
// must be true (or DMA unused) before a frame is announced Complete, per the
// §5 ordering rule: "DMA completions are drained before checking frame
// complete". multiPort must be true only when the session has a secondary
// port pipeline (ground-truth `ops->num_port > 1`); a single-port session
// never has a redundant path to reconstruct from, so it can only ever close
// Complete or Corrupted.
func (s *Slot) Close(dmaEmpty bool, multiPort bool) Disposition {
	if !s.IsComplete() || !dmaEmpty {
		s.disposition = DispositionCorrupted

		return s.disposition
	}

	if multiPort && s.PktsRedundant+reconstructedThreshold < s.PktsReceived {
		s.disposition = DispositionReconstructed
	} else {
		s.disposition = DispositionComplete
	}

	return s.disposition
}

// Disposition returns the last disposition Close computed, or
// DispositionCapturing/DispositionIdle if the slot hasn't been closed yet.
func (s *Slot) Disposition() Disposition {
	return s.disposition
}

// MissingPacketEstimate implements the §7 corrupted-frame estimate:
// (frame_size - received) / (received / pkts_received).
func (s *Slot) MissingPacketEstimate() uint32 {
	received := s.TotalRecvSize()
	if s.PktsReceived == 0 || received == 0 || received >= s.ExpectedSize {
		return 0
	}

	avgPacketSize := received / int64(s.PktsReceived)
	if avgPacketSize == 0 {
		return 0
	}

	missingBytes := s.ExpectedSize - received

	return uint32(missingBytes / avgPacketSize) // nolint: gosec // G115, bounded by packet counts in practice
}
