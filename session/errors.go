// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package session

import "errors"

var (
	errInvalidFrameCount    = errors.New("framebuffer count must be positive")
	errInvalidPortCount     = errors.New("a session has 1 or 2 port pipelines")
	errInvalidDimensions    = errors.New("width and height must be positive outside detect mode")
	errInvalidFrameRate     = errors.New("frame rate must be positive")
	errAttachWrongState     = errors.New("attach called on a session that is not newly created")
	errDetachWrongState     = errors.New("detach called on a session that is already detached")
	errUpdateSourceDetached = errors.New("update_source called on a detached session")
	errNoFrameBuffer        = errors.New("frame pool exhausted: no free buffer for new slot")
	errUnknownMode          = errors.New("unrecognized session mode")
)
