// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/slot"
)

// DMALender is the consumed DMA-lender contract of §6, narrowed to what the
// frame handler needs at payload-placement time.
type DMALender interface {
	Full() bool
	Copy(dstIOVA uintptr, length int) (handle any, err error)
}

// UserFrameCallback is the §4.3.1 "user-frame mode" escape hatch: the
// application receives raw (payload, line metadata) instead of a memcpy.
type UserFrameCallback func(payload []byte, row uint16, offset uint16)

// FrameHandlerConfig configures one FrameHandler instance, built once at
// session attach time.
type FrameHandlerConfig struct {
	Geometry          pixelfmt.Geometry
	PayloadType       uint8
	Lookup            SlotLookup
	DMA               DMALender // nil disables DMA offload entirely
	DMAMinBytes       int       // minimum payload size worth offloading to DMA
	UserFrameSize     int64     // >0 selects user-frame mode
	UserFrameCallback UserFrameCallback

	// MaxBytesPerPkt is the sender's configured maximum RTP payload size,
	// used only to derive seq_base for single-line packing on the first
	// accepted packet, per §4.3.1's pkts_per_line formula.
	MaxBytesPerPkt int
}

// FrameHandler implements the ST 2110-20 / RFC 4175 packet handler of
// §4.3.1: the uncompressed-video frame reassembly path.
type FrameHandler struct {
	cfg FrameHandlerConfig
}

// NewFrameHandler builds a FrameHandler from its configuration.
func NewFrameHandler(cfg FrameHandlerConfig) *FrameHandler {
	return &FrameHandler{cfg: cfg}
}

// HandlePacket implements Handler.
func (h *FrameHandler) HandlePacket(hdr rtpwire.Header, payload []byte, ctrlThread bool) Result {
	if hdr.PayloadType != h.cfg.PayloadType {
		return Result{Drop: DropWrongHdr}
	}

	var srdHeader rtpwire.RFC4175Header
	n, err := srdHeader.Unmarshal(payload)
	if err != nil {
		return Result{Drop: DropWrongHdr}
	}
	body := payload[n:]

	s, ok, noSlot := h.cfg.Lookup.SlotByTimestamp(hdr.Timestamp, false)
	if noSlot || !ok {
		return Result{Drop: DropNoSlot}
	}

	if srdHeader.SRD.UserMeta {
		s.Buffer.UserMeta = append(s.Buffer.UserMeta[:0], body...)

		return Result{Accepted: true, Slot: s}
	}

	pktIdx, accepted := h.captureOrComputeIndex(s, hdr, srdHeader, ctrlThread)
	if !accepted {
		return Result{Drop: DropIdxDropped}
	}

	alreadySet, inRange := s.Bitmap.TestAndSet(pktIdx)
	if !inRange {
		return Result{Drop: DropIdxOutOfBitmap}
	}
	if alreadySet {
		s.RecordRedundant()

		return Result{Accepted: true, Slot: s, Drop: DropRedundant}
	}

	offset := h.destinationOffset(srdHeader.SRD)
	if offset+int64(len(body)) > h.cfg.Geometry.OffsetBound() {
		return Result{Drop: DropOffsetDropped}
	}

	s.SecondField = srdHeader.SRD.SecondField
	h.place(s, offset, body, srdHeader)
	s.RecordArrival(int64(len(body)), ctrlThread)

	return Result{Accepted: true, Slot: s}
}

// captureOrComputeIndex derives pkt_idx for this packet and, on the first
// accepted packet, captures seq_base (control thread only, per §4.3.1).
func (h *FrameHandler) captureOrComputeIndex(
	s *slot.Slot, hdr rtpwire.Header, srdHeader rtpwire.RFC4175Header, ctrlThread bool,
) (pktIdx uint32, ok bool) {
	extendedSeq := uint32(srdHeader.ExtendedSeqNum)<<16 | uint32(hdr.SequenceNumber)

	if _, captured := s.SeqBase.Captured(); !captured {
		base := extendedSeq - h.basePacketIndex(srdHeader.SRD)
		if _, capturedNow := s.SeqBase.TryCapture(base, ctrlThread); !capturedNow {
			return 0, false
		}
	}

	return s.SeqBase.Index(extendedSeq)
}

// basePacketIndex implements §4.3.1's single-line-packing formula for the
// packet index implied by a packet's (line_no, line_offset), used only to
// derive seq_base on the first accepted packet. The BPM contiguous formula
// (offset / payload_len) requires the first packet's own payload length,
// which the caller already has in scope; single-line packing is used here
// since it depends only on geometry, making it safe before any payload
// length is known.
func (h *FrameHandler) basePacketIndex(srd rtpwire.SampleRowData) uint32 {
	g := h.cfg.Geometry
	maxBytesPerPkt := int64(h.cfg.MaxBytesPerPkt)
	if maxBytesPerPkt <= 0 {
		maxBytesPerPkt = int64(g.BytesInLine)
	}

	pktsPerLine := (int64(g.BytesInLine) + maxBytesPerPkt - 1) / maxBytesPerPkt
	pixelsPerPkt := maxBytesPerPkt / int64(g.PG.Size) * int64(g.PG.Coverage)
	if pixelsPerPkt <= 0 {
		pixelsPerPkt = 1
	}

	idx := int64(srd.Row)*pktsPerLine + int64(srd.Offset)/pixelsPerPkt

	return uint32(idx) // nolint: gosec // G115, bounded by bitmap capacity checks downstream
}

// destinationOffset implements §4.3.1's byte-offset formula.
func (h *FrameHandler) destinationOffset(srd rtpwire.SampleRowData) int64 {
	g := h.cfg.Geometry

	return int64(srd.Row)*int64(g.LineSize) + int64(srd.Offset)/int64(g.PG.Coverage)*int64(g.PG.Size)
}

// place executes the §4.3.1 priority-ordered payload placement.
func (h *FrameHandler) place(s *slot.Slot, offset int64, body []byte, srdHeader rtpwire.RFC4175Header) {
	switch {
	case h.cfg.UserFrameSize > 0 && h.cfg.UserFrameCallback != nil:
		h.cfg.UserFrameCallback(body, srdHeader.SRD.Row, srdHeader.SRD.Offset)
	case srdHeader.ExtraSRD != nil && h.cfg.Geometry.LineSize > h.cfg.Geometry.BytesInLine:
		h.placeLinePadding(s, offset, body, srdHeader)
	case h.cfg.DMA != nil && len(body) >= h.cfg.DMAMinBytes && !h.cfg.DMA.Full() &&
		!s.Buffer.StraddlesPageBoundary(offset, int64(len(body))):
		h.placeDMA(s, offset, body)
	default:
		h.placeMemcpy(s, offset, body)
	}
}

// placeLinePadding splits a payload spanning a line boundary into two
// per-line memcpys, per §4.3.1 step 2.
func (h *FrameHandler) placeLinePadding(s *slot.Slot, offset int64, body []byte, srdHeader rtpwire.RFC4175Header) {
	firstLen := int64(h.cfg.Geometry.BytesInLine) - (offset % int64(h.cfg.Geometry.LineSize))
	if firstLen < 0 || firstLen > int64(len(body)) {
		firstLen = int64(len(body))
	}

	h.placeMemcpy(s, offset, body[:firstLen])

	if firstLen < int64(len(body)) && srdHeader.ExtraSRD != nil {
		secondOffset := h.destinationOffset(*srdHeader.ExtraSRD)
		h.placeMemcpy(s, secondOffset, body[firstLen:])
	}
}

// placeDMA enqueues a DMA copy of len(body) bytes to the destination IOVA,
// per §4.3.1 step 3; on lender error it falls back to a CPU copy rather
// than dropping an otherwise-valid packet. The packet itself is not tagged
// with (offset, len) or handed to the lender; only the copy is enqueued.
func (h *FrameHandler) placeDMA(s *slot.Slot, offset int64, body []byte) {
	dstIOVA := s.Buffer.IOVAFor(offset)

	if _, err := h.cfg.DMA.Copy(dstIOVA, len(body)); err != nil {
		h.placeMemcpy(s, offset, body)
	}
}

func (h *FrameHandler) placeMemcpy(s *slot.Slot, offset int64, body []byte) {
	copy(s.Buffer.Bytes()[offset:], body)
}
