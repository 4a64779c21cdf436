// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

func TestPassthroughHandler_EnqueuesAndNotifies(t *testing.T) {
	ring := &fifoRing{cap: 4}
	notify := &recordingNotifier{}
	h := NewPassthroughHandler(PassthroughHandlerConfig{Ring: ring, Notify: notify})

	hdr := rtpwire.Header{PayloadType: 98, SequenceNumber: 1, Timestamp: 1500}
	result := h.HandlePacket(hdr, []byte{1, 2, 3}, true)

	require.True(t, result.Accepted)
	require.Len(t, ring.items, 1)
	assert.Equal(t, hdr.SequenceNumber, ring.items[0].SequenceNumber)
	require.Len(t, notify.rtp, 1)
}

func TestPassthroughHandler_RingFullDrops(t *testing.T) {
	ring := &fifoRing{cap: 0}
	notify := &recordingNotifier{}
	h := NewPassthroughHandler(PassthroughHandlerConfig{Ring: ring, Notify: notify})

	hdr := rtpwire.Header{PayloadType: 98, SequenceNumber: 1, Timestamp: 1500}
	result := h.HandlePacket(hdr, []byte{1, 2, 3}, true)

	assert.False(t, result.Accepted)
	assert.Equal(t, DropRTPRingFull, result.Drop)
	assert.Empty(t, notify.rtp)
}
