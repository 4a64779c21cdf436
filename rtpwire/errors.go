// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package rtpwire

import "errors"

var (
	errHeaderSizeInsufficient     = errors.New("RTP header size insufficient")
	errHeaderExtensionUnsupported = errors.New("RTP header extensions are not supported by any ST 2110 profile here")
	errTooSmall                   = errors.New("buffer too small")
	errInvalidRTPPadding          = errors.New("invalid RTP padding size")

	errSRDTruncated         = errors.New("RFC 4175 sample row data header truncated")
	errBoxHeaderTooLarge    = errors.New("RFC 9134 combined box header exceeds 512 bytes")
	errJPEGXSHeaderTooSmall = errors.New("RFC 9134 jpeg xs header truncated")
)
