// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/slot"
)

// BPMSize is the fixed per-packet payload size assumed by header-split
// placement verification, per §4.3.3: the NIC writes each packet's payload
// at frame_base + pkt_idx*BPM_SIZE.
type BPMSize = int64

// PayloadSlotCallback picks the next mbuf payload slot from the NIC's
// power-of-two ring, per §4.3.3, returning the address the NIC actually
// wrote the payload to (so the handler can verify placement).
type PayloadSlotCallback func() (writtenAddr uintptr, ok bool)

// HeaderSplitHandlerConfig configures one HeaderSplitHandler.
type HeaderSplitHandlerConfig struct {
	Geometry    pixelfmt.Geometry
	PayloadType uint8
	Lookup      SlotLookup
	BPMSize     BPMSize
	NextSlot    PayloadSlotCallback
	FrameBase   func() uintptr // resolves the current slot's frame_base address
}

// HeaderSplitHandler implements §4.3.3: the NIC splits the RTP header from
// the payload and DMAs the payload directly into a pre-mapped frame pool.
// Single-port only, per the spec's explicit constraint.
type HeaderSplitHandler struct {
	cfg HeaderSplitHandlerConfig
}

// NewHeaderSplitHandler builds a HeaderSplitHandler from its configuration.
func NewHeaderSplitHandler(cfg HeaderSplitHandlerConfig) *HeaderSplitHandler {
	return &HeaderSplitHandler{cfg: cfg}
}

// HandlePacket implements Handler.
func (h *HeaderSplitHandler) HandlePacket(hdr rtpwire.Header, payload []byte, ctrlThread bool) Result {
	if hdr.PayloadType != h.cfg.PayloadType {
		return Result{Drop: DropWrongHdr}
	}

	var srdHeader rtpwire.RFC4175Header
	n, err := srdHeader.Unmarshal(payload)
	if err != nil {
		return Result{Drop: DropWrongHdr}
	}
	payloadLen := int64(len(payload) - n)

	s, ok, noSlot := h.cfg.Lookup.SlotByTimestamp(hdr.Timestamp, false)
	if noSlot || !ok {
		return Result{Drop: DropNoSlot}
	}

	isFirstPacket := srdHeader.SRD.Row == 0 && srdHeader.SRD.Offset == 0

	if _, captured := s.SeqBase.Captured(); !captured {
		if !isFirstPacket {
			return Result{Drop: DropWrongPayloadHdrSplit}
		}
		if _, capturedNow := s.SeqBase.TryCapture(
			uint32(srdHeader.ExtendedSeqNum)<<16|uint32(hdr.SequenceNumber), ctrlThread,
		); !capturedNow {
			return Result{Drop: DropIdxDropped}
		}
	}

	pktIdx, ok := s.SeqBase.Index(uint32(srdHeader.ExtendedSeqNum)<<16 | uint32(hdr.SequenceNumber))
	if !ok {
		return Result{Drop: DropIdxDropped}
	}

	writtenAddr, slotOK := h.cfg.NextSlot()
	if !slotOK {
		return Result{Drop: DropRTPRingFull}
	}

	expectedAddr := h.cfg.FrameBase() + uintptr(int64(pktIdx)*h.cfg.BPMSize) // nolint: gosec // G115
	if writtenAddr != expectedAddr {
		if hdr.Marker {
			h.softwareFallback(s, pktIdx, payload[n:])
		} else {
			return Result{Drop: DropWrongPayloadHdrSplit}
		}
	}

	alreadySet, inRange := s.Bitmap.TestAndSet(pktIdx)
	if !inRange {
		return Result{Drop: DropIdxOutOfBitmap}
	}
	if alreadySet {
		s.RecordRedundant()

		return Result{Accepted: true, Slot: s, Drop: DropRedundant}
	}

	s.RecordArrival(payloadLen, ctrlThread)

	return Result{Accepted: true, Slot: s}
}

// softwareFallback is taken when a marker-bit packet's placement address
// doesn't match the NIC's expected address, per §4.3.3: fall back to a
// memcpy rather than trusting a zero-copy placement that may be wrong.
func (h *HeaderSplitHandler) softwareFallback(s *slot.Slot, pktIdx uint32, body []byte) {
	offset := int64(pktIdx) * h.cfg.BPMSize
	copy(s.Buffer.Bytes()[offset:], body)
}
