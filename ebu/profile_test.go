// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package ebu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfile_1080p60(t *testing.T) {
	p, err := NewProfile(60, 4320)
	require.NoError(t, err)

	assert.Equal(t, 90000.0, p.SamplingRate)
	assert.InDelta(t, 1.0/60, p.FrameTime, 1e-9)
	assert.InDelta(t, reactive*p.FrameTime/4320, p.Trs, 1e-12)
	assert.InDelta(t, 1500, p.FrameTSSampling, 1e-6)
}

func TestNewProfile_RejectsNonPositiveInputs(t *testing.T) {
	_, err := NewProfile(0, 100)
	assert.ErrorIs(t, err, errInvalidFrameRate)

	_, err = NewProfile(60, 0)
	assert.ErrorIs(t, err, errInvalidPktsPerFrame)
}

func TestNewProfile_OverridesApply(t *testing.T) {
	p, err := NewProfile(59.94, 4320, WithDrainFactor(0.75), WithTrOffset(0.002))
	require.NoError(t, err)

	assert.Equal(t, 0.75, p.DrainFactor)
	assert.Equal(t, 0.002, p.TrOffset)
}
