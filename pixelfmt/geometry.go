// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package pixelfmt derives the per-session geometry invariants of §3 from a
// pixel format and frame dimensions: frame size, line size, and bitmap size.
package pixelfmt

import "fmt"

// PackingMode is the RFC 4175 packing scheme a stream was encoded with.
type PackingMode int

// Packing modes recognized by the detector and the frame handler.
const (
	PackingUnknown PackingMode = iota
	PackingBPM                 // Block Packing Mode: payload length always a multiple of PixelGroup.Size.
	PackingGPM                 // General Packing Mode, possibly spanning multiple lines per packet.
	PackingGPMSingleLine       // GPM restricted to one line per packet (no SRD continuation ever seen).
)

// PixelGroup describes how many bytes cover how many pixels for one
// uncompressed pixel format, e.g. 5 bytes covering 2 pixels for YUV-422 10-bit.
type PixelGroup struct {
	Size     int // bytes per group
	Coverage int // pixels per group
}

// Common ST 2110-20 pixel groups (SMPTE ST 2110-20 Table 1 and common
// extensions). Not exhaustive; callers may construct their own PixelGroup
// for formats not listed here.
var (
	PixelGroupYUV422_8  = PixelGroup{Size: 4, Coverage: 2}
	PixelGroupYUV422_10 = PixelGroup{Size: 5, Coverage: 2}
	PixelGroupYUV422_12 = PixelGroup{Size: 6, Coverage: 2}
	PixelGroupRGB_8     = PixelGroup{Size: 3, Coverage: 1}
	PixelGroupRGB_10    = PixelGroup{Size: 15, Coverage: 4}
	PixelGroupRGB_12    = PixelGroup{Size: 9, Coverage: 2}
)

// Geometry is the set of derived, session-wide invariants from §3: every
// size a packet handler or slot needs is computed once at session attach
// time and never recomputed per packet.
type Geometry struct {
	Width          int
	Height         int
	Interlaced     bool
	PG             PixelGroup
	UserLineSize   int // caller-supplied override; 0 means "use bytes_in_line"

	FrameSize        int64
	BytesInLine      int
	LineSize         int
	FrameBitmapBytes int64
}

// NewGeometry computes and validates a Geometry from its inputs.
func NewGeometry(width, height int, interlaced bool, pg PixelGroup, userLineSize int) (Geometry, error) {
	if width <= 0 || height <= 0 {
		return Geometry{}, fmt.Errorf("%w: width=%d height=%d", errInvalidDimensions, width, height)
	}
	if pg.Size <= 0 || pg.Coverage <= 0 {
		return Geometry{}, fmt.Errorf("%w: size=%d coverage=%d", errInvalidPixelGroup, pg.Size, pg.Coverage)
	}
	if width%pg.Coverage != 0 {
		return Geometry{}, fmt.Errorf("%w: width %d not a multiple of pg_coverage %d",
			errPixelGroupMisaligned, width, pg.Coverage)
	}

	g := Geometry{
		Width:        width,
		Height:       height,
		Interlaced:   interlaced,
		PG:           pg,
		UserLineSize: userLineSize,
	}

	frameSize := int64(width) * int64(height) * int64(pg.Size) / int64(pg.Coverage)
	if interlaced {
		frameSize /= 2
	}
	g.FrameSize = frameSize

	g.BytesInLine = width * pg.Size / pg.Coverage
	g.LineSize = g.BytesInLine
	if userLineSize > g.BytesInLine {
		g.LineSize = userLineSize
	}

	byBandwidth := frameSize / 800 / 8
	byHeight := int64(height) * 2 / 8
	g.FrameBitmapBytes = byBandwidth
	if byHeight > byBandwidth {
		g.FrameBitmapBytes = byHeight
	}
	if g.FrameBitmapBytes < 1 {
		g.FrameBitmapBytes = 1
	}

	return g, nil
}

// OffsetBound is the maximum value offset+payload_len may take before a
// packet is rejected as OffsetOutOfBounds, per §4.3.1:
// fb_size + bytes_in_line - linesize (the allowance for the last line's
// padding, since destination offsets are computed with linesize but
// FrameSize is computed with the tighter bytes_in_line).
func (g Geometry) OffsetBound() int64 {
	return g.FrameSize + int64(g.BytesInLine) - int64(g.LineSize)
}
