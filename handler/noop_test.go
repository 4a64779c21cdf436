// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

func TestNoopHandler_DropsEverything(t *testing.T) {
	var h NoopHandler

	result := h.HandlePacket(rtpwire.Header{PayloadType: 96}, []byte{1, 2, 3}, true)
	assert.False(t, result.Accepted)
	assert.Equal(t, DropWrongHdr, result.Drop)
}
