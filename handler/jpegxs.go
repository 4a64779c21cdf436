// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/slot"
)

// JPEGXSHandlerConfig configures one JPEGXSHandler, built once at attach
// time for an ST 2110-22 session.
type JPEGXSHandlerConfig struct {
	PayloadType uint8
	Lookup      SlotLookup
}

// JPEGXSHandler implements the ST 2110-22 / RFC 9134 packet handler of
// §4.3.2: constant-bit-rate JPEG XS over RTP.
type JPEGXSHandler struct {
	cfg JPEGXSHandlerConfig
}

// NewJPEGXSHandler builds a JPEGXSHandler from its configuration.
func NewJPEGXSHandler(cfg JPEGXSHandlerConfig) *JPEGXSHandler {
	return &JPEGXSHandler{cfg: cfg}
}

// HandlePacket implements Handler.
func (h *JPEGXSHandler) HandlePacket(hdr rtpwire.Header, payload []byte, ctrlThread bool) Result {
	if hdr.PayloadType != h.cfg.PayloadType {
		return Result{Drop: DropWrongHdr}
	}

	var jxsHeader rtpwire.JPEGXSHeader
	n, err := jxsHeader.Unmarshal(payload)
	if err != nil {
		return Result{Drop: DropWrongHdr}
	}
	body := payload[n:]
	pktIdx := jxsHeader.PacketIndex()

	s, ok, noSlot := h.cfg.Lookup.SlotByTimestamp(hdr.Timestamp, false)
	if noSlot || !ok {
		return Result{Drop: DropNoSlot}
	}

	if _, captured := s.SeqBase.Captured(); !captured {
		base := uint32(hdr.SequenceNumber) - pktIdx
		if _, capturedNow := s.SeqBase.TryCapture(base, ctrlThread); !capturedNow {
			return Result{Drop: DropIdxDropped}
		}
	}

	if pktIdx == 0 {
		boxes, consumed, boxErr := rtpwire.ParseBoxes(body)
		if boxErr != nil {
			return Result{Drop: DropWrongHdr}
		}
		s.BoxHeaderLen = int64(consumed)
		body = body[consumed:]
		recordBoxes(s, boxes)
	}

	alreadySet, inRange := s.Bitmap.TestAndSet(pktIdx)
	if !inRange {
		return Result{Drop: DropIdxOutOfBitmap}
	}
	if alreadySet {
		s.RecordRedundant()

		return Result{Accepted: true, Slot: s, Drop: DropRedundant}
	}

	offset := h.destinationOffset(pktIdx, s)
	copy(s.Buffer.Bytes()[offset:], body)
	s.RecordArrival(int64(len(body)), ctrlThread)

	if hdr.Marker {
		// §4.3.2: "expected frame size equal to the highest observed
		// offset + len"; the marker packet is, by construction, the last
		// one, so its own (offset, len) sets the final expected size.
		s.ExpectedSize = offset + int64(len(body))
	}

	return Result{Accepted: true, Slot: s}
}

// destinationOffset places codestream bytes contiguously, after subtracting
// the box-header length recorded on packet 0, per §4.3.2.
func (h *JPEGXSHandler) destinationOffset(pktIdx uint32, s *slot.Slot) int64 {
	if pktIdx == 0 {
		return 0
	}

	// The codestream is laid out contiguously starting immediately after
	// the box headers; prior packets' accumulated size (FrameRecvSize +
	// CoThreadRecvSize) is exactly this packet's starting offset, since
	// placement happens in strict contiguous order for CBR JPEG XS.
	return s.TotalRecvSize()
}

func recordBoxes(s *slot.Slot, boxes []rtpwire.Box) {
	for _, b := range boxes {
		if b.TagString() == "colr" {
			s.Buffer.UserMeta = append(s.Buffer.UserMeta[:0], b.Payload...)
		}
	}
}
