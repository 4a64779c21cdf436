// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package framepool implements the fixed-size, reference-counted frame ring
// of §4.1: at most one concurrent writer per frame is guaranteed
// structurally by the acquire/release protocol, not by locking.
package framepool

import "sync/atomic"

// ScatterEntry is one entry of a frame's physical page table: a
// contiguous virtual range backed by one I/O-virtual address. Only
// populated when the session runs in PA-IOVA mode and the framebuffer may
// straddle huge pages with non-contiguous I/O addresses (§9).
type ScatterEntry struct {
	VA   uintptr
	IOVA uintptr
	Len  int
}

// Buffer is one frame buffer. Ownership: owned by the pool; lent to at
// most one reassembly slot at a time; lent to the application between a
// frame-ready notification and the application's explicit Release.
type Buffer struct {
	VA   uintptr
	IOVA uintptr
	Size int64

	// Data is the CPU-addressable backing store for the software memcpy
	// placement path. VA/IOVA describe the same memory for DMA purposes;
	// Data is what a pure-Go handler actually writes through, since this
	// library has no cgo pointer arithmetic onto VA.
	Data []byte

	// Scatter is the page table used for DMA on PA-IOVA systems. Nil when
	// the buffer is backed by a single contiguous IOVA mapping.
	Scatter []ScatterEntry

	// UserMeta holds bytes redirected here by SRDLenUserMeta packets.
	UserMeta []byte

	refcount atomic.Int32
}

// Bytes returns the buffer's CPU-addressable backing store.
func (b *Buffer) Bytes() []byte {
	return b.Data
}

// RefCount returns the current reference count. Exported for tests and for
// the session's "frame acquired == frame released" accounting invariant
// (§8).
func (b *Buffer) RefCount() int32 {
	return b.refcount.Load()
}

// StraddlesPageBoundary reports whether the half-open byte range
// [offset, offset+length) spans more than one ScatterEntry, per the DMA
// offload guard in §4.3.1 bullet 3 and the design note in §9: DMA is
// refused when a planned (offset, len) range crosses a huge-page boundary.
func (b *Buffer) StraddlesPageBoundary(offset, length int64) bool {
	if len(b.Scatter) == 0 {
		return false
	}

	entryFor := func(off int64) int {
		cursor := int64(0)
		for i, e := range b.Scatter {
			if off >= cursor && off < cursor+int64(e.Len) {
				return i
			}
			cursor += int64(e.Len)
		}

		return -1
	}

	startEntry := entryFor(offset)
	endEntry := entryFor(offset + length - 1)

	return startEntry == -1 || endEntry == -1 || startEntry != endEntry
}

// IOVAFor resolves the I/O-virtual address for offset, honoring the
// scatter page table when present.
func (b *Buffer) IOVAFor(offset int64) uintptr {
	if len(b.Scatter) == 0 {
		return b.IOVA + uintptr(offset)
	}

	cursor := int64(0)
	for _, e := range b.Scatter {
		if offset >= cursor && offset < cursor+int64(e.Len) {
			return e.IOVA + uintptr(offset-cursor)
		}
		cursor += int64(e.Len)
	}

	return 0
}
