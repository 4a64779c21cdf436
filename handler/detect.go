// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"github.com/prankurgit/Media-Transport-Library/detect"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

// DetectHandlerConfig configures one DetectHandler.
type DetectHandlerConfig struct {
	PayloadType uint8
	Notify      Notifier
}

// DetectHandler implements §4.3.6: the session's handler mode while format
// auto-detection is in progress. It drops every packet's payload (there is
// nowhere to place it yet) but feeds the detector until it resolves.
type DetectHandler struct {
	cfg      DetectHandlerConfig
	detector *detect.Detector
	cumPkts  uint64
}

// NewDetectHandler builds a DetectHandler with a fresh detector.
func NewDetectHandler(cfg DetectHandlerConfig) *DetectHandler {
	return &DetectHandler{cfg: cfg, detector: detect.NewDetector()}
}

// Detector exposes the underlying detector, e.g. for a session to check
// State() after HandlePacket returns.
func (h *DetectHandler) Detector() *detect.Detector {
	return h.detector
}

// HandlePacket implements Handler. It never touches a reassembly slot:
// detection only needs the RFC 4175 SRD header fields, not payload
// placement.
func (h *DetectHandler) HandlePacket(hdr rtpwire.Header, payload []byte, _ bool) Result {
	if hdr.PayloadType != h.cfg.PayloadType {
		return Result{Drop: DropWrongHdr}
	}

	var srdHeader rtpwire.RFC4175Header
	n, err := srdHeader.Unmarshal(payload)
	if err != nil {
		return Result{Drop: DropWrongHdr}
	}

	h.cumPkts++
	h.detector.ObservePacket(int(srdHeader.SRD.Row), len(payload)-n, srdHeader.SRD.Continuation)

	if !hdr.Marker {
		return Result{Accepted: true}
	}

	result := h.detector.ObserveMarker(hdr.Timestamp, h.cumPkts)
	if result == nil {
		return Result{Accepted: true}
	}

	if !h.cfg.Notify.NotifyDetected(*result) {
		h.detector.Disable()

		return Result{Accepted: true, Drop: DropWrongHdr}
	}

	return Result{Accepted: true}
}
