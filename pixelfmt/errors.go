// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package pixelfmt

import "errors"

var (
	errInvalidDimensions    = errors.New("width and height must be positive")
	errInvalidPixelGroup    = errors.New("pixel group size and coverage must be positive")
	errPixelGroupMisaligned = errors.New("width does not divide evenly by pixel group coverage")
)
