// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"github.com/prankurgit/Media-Transport-Library/detect"
	"github.com/prankurgit/Media-Transport-Library/framepool"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/slot"
)

// singleSlotLookup is the simplest possible SlotLookup test double: one
// slot, matched unconditionally regardless of timestamp (as a real
// implementation would for a stream carrying only one frame in flight).
type singleSlotLookup struct {
	slot *slot.Slot
}

func (l *singleSlotLookup) SlotByTimestamp(_ uint32, _ bool) (*slot.Slot, bool, bool) {
	return l.slot, true, false
}

func newTestSlot(bitmapBits int, expectedSize int64, bufSize int64) *slot.Slot {
	s := slot.NewSlot(bitmapBits)
	s.Reset(1500, expectedSize, 0)
	s.AssignBuffer(&framepool.Buffer{Data: make([]byte, bufSize)})

	return s
}

// recordingNotifier records every notification it receives, for assertions.
type recordingNotifier struct {
	frames   []FrameEvent
	slices   []SliceEvent
	rtp      []rtpwire.Packet
	events   []string
	detected []detect.Result
	accept   bool
}

func (n *recordingNotifier) NotifyFrameReady(evt FrameEvent)  { n.frames = append(n.frames, evt) }
func (n *recordingNotifier) NotifySliceReady(evt SliceEvent)  { n.slices = append(n.slices, evt) }
func (n *recordingNotifier) NotifyRTPReady(pkt rtpwire.Packet) { n.rtp = append(n.rtp, pkt) }
func (n *recordingNotifier) NotifyEvent(eventID string, _ any) { n.events = append(n.events, eventID) }

func (n *recordingNotifier) NotifyDetected(result detect.Result) bool {
	n.detected = append(n.detected, result)

	return n.accept
}

// fifoRing is a trivial bounded PassthroughRing test double.
type fifoRing struct {
	cap   int
	items []rtpwire.Packet
}

func (r *fifoRing) Enqueue(pkt rtpwire.Packet) bool {
	if len(r.items) >= r.cap {
		return false
	}

	r.items = append(r.items, pkt)

	return true
}
