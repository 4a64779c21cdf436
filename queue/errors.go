// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package queue

import "errors"

var (
	errQueueClosed      = errors.New("receive queue closed")
	errLenderFull       = errors.New("dma lender descriptor ring full")
	errPageStraddle     = errors.New("dma copy destination straddles a huge-page boundary")
	errUnknownDMAHandle = errors.New("unknown dma handle")
)
