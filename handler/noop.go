// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import "github.com/prankurgit/Media-Transport-Library/rtpwire"

// NoopHandler is the §7 "detect-failed" handler: the session remains
// attached but every packet is dropped via this no-op until a reattach or
// explicit format is supplied.
type NoopHandler struct{}

// HandlePacket implements Handler, dropping every packet.
func (NoopHandler) HandlePacket(_ rtpwire.Header, _ []byte, _ bool) Result {
	return Result{Drop: DropWrongHdr}
}
