// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmap_TestAndSet(t *testing.T) {
	b := NewBitmap(128)

	alreadySet, inRange := b.TestAndSet(5)
	assert.True(t, inRange)
	assert.False(t, alreadySet)

	alreadySet, inRange = b.TestAndSet(5)
	assert.True(t, inRange)
	assert.True(t, alreadySet, "second set of the same bit must report already-set")

	assert.Equal(t, 1, b.PopCount())
}

func TestBitmap_OutOfRange(t *testing.T) {
	b := NewBitmap(64)
	_, inRange := b.TestAndSet(1000)
	assert.False(t, inRange)
}

func TestBitmap_AllSetBelow(t *testing.T) {
	b := NewBitmap(16)
	for i := uint32(0); i < 10; i++ {
		b.TestAndSet(i)
	}
	assert.True(t, b.AllSetBelow(10))
	assert.False(t, b.AllSetBelow(11))
}

func TestBitmap_Clear(t *testing.T) {
	b := NewBitmap(64)
	b.TestAndSet(3)
	b.Clear()
	assert.Equal(t, 0, b.PopCount())
}
