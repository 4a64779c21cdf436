// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package handler implements the packet handlers of §4.3: one Handler per
// session mode (frame, slice, RTP passthrough, ST 2110-22, header-split,
// detect, detect-failed), mirroring the teacher's Depacketizer/Payloader
// interface-per-concern style — one small interface, one type per wire
// format, no shared base class.
package handler

import (
	"github.com/prankurgit/Media-Transport-Library/detect"
	"github.com/prankurgit/Media-Transport-Library/framepool"
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/slot"
)

// DropReason is one of the counted, non-error packet-level outcomes of §6's
// statistics block and §7's error kinds. Packet-level problems are never
// returned as Go errors on the hot path; only attach/config-time failures
// are, per SPEC_FULL's AMBIENT STACK error-handling note.
type DropReason int

// Drop reasons, matching the §6 `pkts_*` stat counter names.
const (
	DropNone DropReason = iota
	DropIdxDropped
	DropIdxOutOfBitmap
	DropNoSlot
	DropOffsetDropped
	DropRedundant // not an error, but routed through the same path
	DropWrongHdr
	DropRTPRingFull
	DropSimulateLoss
	DropMultiSegments
	DropNotBPM
	DropWrongPayloadHdrSplit
)

// String names a DropReason the way the §6 stat counters are named.
func (r DropReason) String() string {
	switch r {
	case DropNone:
		return "none"
	case DropIdxDropped:
		return "pkts_idx_dropped"
	case DropIdxOutOfBitmap:
		return "pkts_idx_oo_bitmap"
	case DropNoSlot:
		return "pkts_no_slot"
	case DropOffsetDropped:
		return "pkts_offset_dropped"
	case DropRedundant:
		return "pkts_redundant_dropped"
	case DropWrongHdr:
		return "pkts_wrong_hdr_dropped"
	case DropRTPRingFull:
		return "pkts_rtp_ring_full"
	case DropSimulateLoss:
		return "pkts_simulate_loss"
	case DropMultiSegments:
		return "pkts_multi_segments"
	case DropNotBPM:
		return "pkts_not_bpm"
	case DropWrongPayloadHdrSplit:
		return "pkts_wrong_payload_hdr_split"
	default:
		return "unknown"
	}
}

// FrameEvent is delivered to Notifier.NotifyFrameReady on slot close.
type FrameEvent struct {
	Buffer       *framepool.Buffer
	Disposition  slot.Disposition
	UserMetaSize int
	MissingPkts  uint32
}

// SliceEvent is delivered to Notifier.NotifySliceReady, per §4.3.4.
type SliceEvent struct {
	Buffer          *framepool.Buffer
	ContiguousLines int64
	ContiguousBytes int64
}

// Notifier is the application-facing callback set of §6. A handler never
// blocks on these; implementations are expected to enqueue and return.
type Notifier interface {
	NotifyFrameReady(evt FrameEvent)
	NotifySliceReady(evt SliceEvent)
	NotifyRTPReady(pkt rtpwire.Packet)
	NotifyEvent(eventID string, data any)
	// NotifyDetected delivers a successful auto-detect result, per §4.3.6.
	// The application's reply may veto the detected format; the bool
	// return mirrors the source's "&reply" out-parameter.
	NotifyDetected(result detect.Result) (accept bool)
}

// Result is what HandlePacket returns: either the packet was accepted (with
// the slot it landed in, for the caller to check completion) or it was
// dropped for a counted reason.
type Result struct {
	Accepted bool
	Slot     *slot.Slot
	Drop     DropReason
}

// Handler is implemented by each packet-handler mode of §4.3. ctrlThread
// distinguishes the control thread from the optional packet co-thread of
// §4.7 — only the control thread may ever capture a slot's seq_base.
type Handler interface {
	HandlePacket(hdr rtpwire.Header, payload []byte, ctrlThread bool) Result
}

// SlotLookup resolves the slot for an incoming packet's RTP timestamp,
// implementing §4.2's slot_by_timestamp. Handlers depend on this instead of
// owning slot selection themselves, since selection is session-wide, not
// handler-specific.
type SlotLookup interface {
	SlotByTimestamp(ts uint32, dmaInFlight bool) (s *slot.Slot, ok bool, noSlot bool)
}

// Geometry bundles the derived per-session sizing a frame/slice handler
// needs, computed once at attach time per §3.
type Geometry = pixelfmt.Geometry
