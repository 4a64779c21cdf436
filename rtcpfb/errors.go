// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package rtcpfb

import "errors"

var (
	errInvalidBitmapSize  = errors.New("rtcp feedback bitmap size must be positive")
	errInvalidSkipWindow  = errors.New("skip window must be non-negative and smaller than the bitmap size")
	errInvalidNackInterval = errors.New("nack interval must be positive")
)
