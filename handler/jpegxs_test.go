// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

func buildJXSPacket(t *testing.T, pCounter, sepCounter uint32, body []byte) []byte {
	t.Helper()

	h := rtpwire.JPEGXSHeader{PCounter: pCounter, SepCounter: sepCounter}
	buf, err := h.Marshal()
	require.NoError(t, err)

	return append(buf, body...)
}

func appendBox(buf []byte, tag string, payload []byte) []byte {
	boxLen := 8 + len(payload)
	lenBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBytes, uint32(boxLen)) // nolint: gosec

	buf = append(buf, lenBytes...)
	buf = append(buf, tag...)
	buf = append(buf, payload...)

	return buf
}

func TestJPEGXSHandler_BoxesOnFirstPacketOnly(t *testing.T) {
	s := newTestSlot(1024, 0, 4096)
	lookup := &singleSlotLookup{slot: s}
	h := NewJPEGXSHandler(JPEGXSHandlerConfig{PayloadType: 112, Lookup: lookup})

	var boxed []byte
	boxed = appendBox(boxed, "jpvs", make([]byte, 8))  // 16 bytes total
	boxed = appendBox(boxed, "colr", make([]byte, 12)) // 20 bytes total
	codestream0 := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	payload0 := buildJXSPacket(t, 0, 0, append(boxed, codestream0...))

	hdr0 := rtpwire.Header{PayloadType: 112, SequenceNumber: 10, Timestamp: 9000}
	res0 := h.HandlePacket(hdr0, payload0, true)
	require.True(t, res0.Accepted)
	assert.EqualValues(t, 36, s.BoxHeaderLen)
	assert.EqualValues(t, len(codestream0), s.TotalRecvSize())

	codestream1 := make([]byte, 100)
	payload1 := buildJXSPacket(t, 1, 0, codestream1)
	hdr1 := rtpwire.Header{PayloadType: 112, SequenceNumber: 11, Timestamp: 9000, Marker: true}
	res1 := h.HandlePacket(hdr1, payload1, true)
	require.True(t, res1.Accepted)

	// O + L - 36, where O is the wire-level offset (box-inclusive) and L
	// the last packet's length: here O = 36 + len(codestream0) and
	// L = len(codestream1), so the expected frame size is exactly the sum
	// of codestream bytes, per §8 scenario 4.
	assert.EqualValues(t, len(codestream0)+len(codestream1), s.ExpectedSize)
}

func TestJPEGXSHandler_PacketIndexFromCounters(t *testing.T) {
	s := newTestSlot(1<<20, 0, 1<<20)
	lookup := &singleSlotLookup{slot: s}
	h := NewJPEGXSHandler(JPEGXSHandlerConfig{PayloadType: 112, Lookup: lookup})

	// sep_counter=1 implies pkt_idx = p_counter + 2048.
	payload := buildJXSPacket(t, 5, 1, make([]byte, 10))
	hdr := rtpwire.Header{PayloadType: 112, SequenceNumber: 2053, Timestamp: 9000}

	res := h.HandlePacket(hdr, payload, true)
	require.True(t, res.Accepted)

	alreadySet, inRange := s.Bitmap.TestAndSet(2053)
	assert.True(t, inRange)
	assert.True(t, alreadySet, "pkt_idx 2053 should already be set from the p_counter+sep_counter*2048 packet")
}

func TestJPEGXSHandler_WrongPayloadTypeDropped(t *testing.T) {
	s := newTestSlot(1024, 0, 4096)
	lookup := &singleSlotLookup{slot: s}
	h := NewJPEGXSHandler(JPEGXSHandlerConfig{PayloadType: 112, Lookup: lookup})

	payload := buildJXSPacket(t, 0, 0, make([]byte, 10))
	hdr := rtpwire.Header{PayloadType: 113, SequenceNumber: 0, Timestamp: 9000}

	res := h.HandlePacket(hdr, payload, true)
	assert.False(t, res.Accepted)
	assert.Equal(t, DropWrongHdr, res.Drop)
}
