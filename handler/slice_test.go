// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/slot"
)

func TestSliceHandler_NotifiesOnBoundaryCross(t *testing.T) {
	g := testGeometry(t)
	s := newTestSlot(8192, g.FrameSize, g.FrameSize)
	s.Slice = slot.NewSliceTracker(int64(g.LineSize)) // one "slice ready" per line
	lookup := &singleSlotLookup{slot: s}
	notify := &recordingNotifier{}

	sh := NewSliceHandler(SliceHandlerConfig{
		Frame: FrameHandlerConfig{
			Geometry: g, PayloadType: 96, Lookup: lookup, MaxBytesPerPkt: 1200,
		},
		Notify:    notify,
		SliceSize: int64(g.LineSize),
	})

	seq := uint16(0)
	for col := 0; col < 4; col++ {
		payload := buildFrameRTP(t, 0, 0, uint16(col*480), 1200) // nolint: gosec
		hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: seq, Timestamp: 1500}
		result := sh.HandlePacket(hdr, payload, true)
		require.True(t, result.Accepted)
		seq++
	}

	require.Len(t, notify.slices, 1, "one full line (4 packets of 1200 bytes) must cross exactly one boundary")
	assert.EqualValues(t, g.LineSize, notify.slices[0].ContiguousBytes)
}

func TestSliceHandler_OutOfOrderStillCrossesOnceGapFills(t *testing.T) {
	g := testGeometry(t)
	s := newTestSlot(8192, g.FrameSize, g.FrameSize)
	// One slice is two 1200-byte packets, so the two packets below fill
	// exactly one slice once the gap at column 0 closes.
	const sliceSize = 2 * 1200
	s.Slice = slot.NewSliceTracker(sliceSize)
	lookup := &singleSlotLookup{slot: s}
	notify := &recordingNotifier{}

	sh := NewSliceHandler(SliceHandlerConfig{
		Frame: FrameHandlerConfig{
			Geometry: g, PayloadType: 96, Lookup: lookup, MaxBytesPerPkt: 1200,
		},
		Notify:    notify,
		SliceSize: sliceSize,
	})

	// Packet for column 1 arrives before column 0.
	p1 := buildFrameRTP(t, 0, 0, 480, 1200)
	hdr1 := rtpwire.Header{PayloadType: 96, SequenceNumber: 1, Timestamp: 1500}
	res1 := sh.HandlePacket(hdr1, p1, true)
	require.True(t, res1.Accepted)
	assert.Empty(t, notify.slices)

	p0 := buildFrameRTP(t, 0, 0, 0, 1200)
	hdr0 := rtpwire.Header{PayloadType: 96, SequenceNumber: 0, Timestamp: 1500}
	res0 := sh.HandlePacket(hdr0, p0, true)
	require.True(t, res0.Accepted)
	assert.NotEmpty(t, notify.slices)
}
