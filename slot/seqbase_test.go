// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqBase_ControlThreadCapturesOnce(t *testing.T) {
	var base SeqBase

	val, ok := base.TryCapture(1000, true)
	assert.True(t, ok)
	assert.EqualValues(t, 1000, val)

	val, ok = base.TryCapture(2000, true)
	assert.False(t, ok, "a second distinct capture must not win")
	assert.EqualValues(t, 1000, val)
}

func TestSeqBase_CoThreadCannotInitialize(t *testing.T) {
	var base SeqBase

	_, ok := base.TryCapture(1000, false)
	assert.False(t, ok, "co-thread must never set seq_base")

	_, captured := base.Captured()
	assert.False(t, captured)
}

func TestSeqBase_IndexWrapsModulo2to32(t *testing.T) {
	var base SeqBase
	base.TryCapture(0xFFFFFFF0, true)

	idx, ok := base.Index(0x00000005)
	assert.True(t, ok)
	assert.EqualValues(t, 0x15, idx) // wraps past 2^32
}

func TestSeqBase_Reset(t *testing.T) {
	var base SeqBase
	base.TryCapture(42, true)
	base.Reset()

	_, captured := base.Captured()
	assert.False(t, captured)
}
