// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package pixelfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGeometry_1080p_YUV422_10(t *testing.T) {
	g, err := NewGeometry(1920, 1080, false, PixelGroupYUV422_10, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(5_184_000), g.FrameSize)
	assert.Equal(t, 4800, g.BytesInLine)
	assert.Equal(t, 4800, g.LineSize)
}

func TestNewGeometry_Interlaced_HalvesFrameSize(t *testing.T) {
	progressive, err := NewGeometry(1920, 1080, false, PixelGroupYUV422_10, 0)
	assert.NoError(t, err)

	interlaced, err := NewGeometry(1920, 1080, true, PixelGroupYUV422_10, 0)
	assert.NoError(t, err)

	assert.Equal(t, progressive.FrameSize/2, interlaced.FrameSize)
}

func TestNewGeometry_UserLineSizeOverride(t *testing.T) {
	g, err := NewGeometry(1920, 1080, false, PixelGroupYUV422_10, 5120)
	assert.NoError(t, err)
	assert.Equal(t, 5120, g.LineSize)
	assert.Equal(t, 4800, g.BytesInLine)
	assert.Less(t, g.OffsetBound(), g.FrameSize)
}

func TestNewGeometry_RejectsMisalignedWidth(t *testing.T) {
	_, err := NewGeometry(1921, 1080, false, PixelGroupYUV422_10, 0)
	assert.ErrorIs(t, err, errPixelGroupMisaligned)
}

func TestNewGeometry_RejectsZeroDimensions(t *testing.T) {
	_, err := NewGeometry(0, 1080, false, PixelGroupYUV422_10, 0)
	assert.ErrorIs(t, err, errInvalidDimensions)
}

func TestNewGeometry_FrameBitmapBytesFloor(t *testing.T) {
	// A tiny frame should still get a usable bitmap driven by height*2/8.
	g, err := NewGeometry(64, 64, false, PixelGroupYUV422_10, 0)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, g.FrameBitmapBytes, int64(64*2/8))
}
