// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package ebu

import "errors"

var (
	errInvalidFrameRate    = errors.New("frame rate must be positive")
	errInvalidPktsPerFrame = errors.New("packets per frame must be positive")
)
