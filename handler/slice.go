// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

// SliceHandlerConfig configures one SliceHandler. It embeds the same
// geometry/placement knobs as FrameHandler since §4.3.4 is "identical to
// 4.3.1 plus a slice-tracker update".
type SliceHandlerConfig struct {
	Frame     FrameHandlerConfig
	Notify    Notifier
	SliceSize int64
}

// SliceHandler implements §4.3.4: frame reassembly with incremental
// "slice ready" notifications as contiguous byte ranges accumulate.
type SliceHandler struct {
	frame     *FrameHandler
	notify    Notifier
	sliceSize int64
}

// NewSliceHandler builds a SliceHandler from its configuration.
func NewSliceHandler(cfg SliceHandlerConfig) *SliceHandler {
	return &SliceHandler{
		frame:     NewFrameHandler(cfg.Frame),
		notify:    cfg.Notify,
		sliceSize: cfg.SliceSize,
	}
}

// HandlePacket implements Handler.
func (h *SliceHandler) HandlePacket(hdr rtpwire.Header, payload []byte, ctrlThread bool) Result {
	result := h.frame.HandlePacket(hdr, payload, ctrlThread)
	if !result.Accepted || result.Slot == nil || result.Slot.Slice == nil {
		return result
	}

	var srdHeader rtpwire.RFC4175Header
	n, err := srdHeader.Unmarshal(payload)
	if err != nil || srdHeader.SRD.UserMeta {
		return result
	}

	g := h.frame.cfg.Geometry
	offset := int64(srdHeader.SRD.Row)*int64(g.LineSize) +
		int64(srdHeader.SRD.Offset)/int64(g.PG.Coverage)*int64(g.PG.Size)
	length := int64(len(payload) - n)

	crossed, size := result.Slot.Slice.Add(offset, length)
	if crossed {
		h.notify.NotifySliceReady(SliceEvent{
			Buffer:          result.Slot.Buffer,
			ContiguousBytes: size,
			ContiguousLines: size / lineStride(g),
		})
	}

	return result
}

func lineStride(g pixelfmt.Geometry) int64 {
	if g.LineSize == 0 {
		return 1
	}

	return int64(g.LineSize)
}
