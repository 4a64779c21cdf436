// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

func TestHeaderSplitHandler_AcceptsWhenAddressMatches(t *testing.T) {
	const bpmSize = 1200
	g := testGeometry(t)
	s := newTestSlot(8192, g.FrameSize, g.FrameSize)
	lookup := &singleSlotLookup{slot: s}

	frameBase := s.Buffer.VA
	hsh := NewHeaderSplitHandler(HeaderSplitHandlerConfig{
		Geometry:    g,
		PayloadType: 96,
		Lookup:      lookup,
		BPMSize:     bpmSize,
		NextSlot:    func() (uintptr, bool) { return frameBase, true },
		FrameBase:   func() uintptr { return frameBase },
	})

	payload := buildFrameRTP(t, 0, 0, 0, bpmSize)
	hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: 0, Timestamp: 1500}

	result := hsh.HandlePacket(hdr, payload, true)
	require.True(t, result.Accepted)
	assert.EqualValues(t, 1, s.PktsReceived)
}

func TestHeaderSplitHandler_MismatchWithoutMarkerDrops(t *testing.T) {
	const bpmSize = 1200
	g := testGeometry(t)
	s := newTestSlot(8192, g.FrameSize, g.FrameSize)
	lookup := &singleSlotLookup{slot: s}

	hsh := NewHeaderSplitHandler(HeaderSplitHandlerConfig{
		Geometry:    g,
		PayloadType: 96,
		Lookup:      lookup,
		BPMSize:     bpmSize,
		NextSlot:    func() (uintptr, bool) { return 0xDEAD, true }, // never matches FrameBase+idx*BPM
		FrameBase:   func() uintptr { return s.Buffer.VA },
	})

	payload := buildFrameRTP(t, 0, 0, 0, bpmSize)
	hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: 0, Timestamp: 1500}

	result := hsh.HandlePacket(hdr, payload, true)
	assert.False(t, result.Accepted)
	assert.Equal(t, DropWrongPayloadHdrSplit, result.Drop)
}

func TestHeaderSplitHandler_RingFullDrops(t *testing.T) {
	const bpmSize = 1200
	g := testGeometry(t)
	s := newTestSlot(8192, g.FrameSize, g.FrameSize)
	lookup := &singleSlotLookup{slot: s}

	hsh := NewHeaderSplitHandler(HeaderSplitHandlerConfig{
		Geometry:    g,
		PayloadType: 96,
		Lookup:      lookup,
		BPMSize:     bpmSize,
		NextSlot:    func() (uintptr, bool) { return 0, false },
		FrameBase:   func() uintptr { return s.Buffer.VA },
	})

	payload := buildFrameRTP(t, 0, 0, 0, bpmSize)
	hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: 0, Timestamp: 1500}

	result := hsh.HandlePacket(hdr, payload, true)
	assert.False(t, result.Accepted)
	assert.Equal(t, DropRTPRingFull, result.Drop)
}
