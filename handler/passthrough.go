// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import "github.com/prankurgit/Media-Transport-Library/rtpwire"

// PassthroughRing is a single-producer/single-consumer ring sized by the
// application, per §4.3.5. Enqueue reports false when full.
type PassthroughRing interface {
	Enqueue(pkt rtpwire.Packet) (ok bool)
}

// PassthroughHandlerConfig configures one PassthroughHandler.
type PassthroughHandlerConfig struct {
	Ring   PassthroughRing
	Notify Notifier
}

// PassthroughHandler implements §4.3.5: the application performs
// reassembly itself; the handler only enqueues the raw packet.
type PassthroughHandler struct {
	cfg PassthroughHandlerConfig
}

// NewPassthroughHandler builds a PassthroughHandler from its configuration.
func NewPassthroughHandler(cfg PassthroughHandlerConfig) *PassthroughHandler {
	return &PassthroughHandler{cfg: cfg}
}

// HandlePacket implements Handler. It never touches a reassembly slot.
func (h *PassthroughHandler) HandlePacket(hdr rtpwire.Header, payload []byte, _ bool) Result {
	pkt := rtpwire.Packet{Header: hdr, Payload: payload}

	if !h.cfg.Ring.Enqueue(pkt) {
		return Result{Drop: DropRTPRingFull}
	}

	h.cfg.Notify.NotifyRTPReady(pkt)

	return Result{Accepted: true}
}
