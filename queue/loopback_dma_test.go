// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackLender_CopyAndCompleted(t *testing.T) {
	f := NewLoopbackFabric()
	lender, err := f.Request(4, 2, 0, nil, nil)
	require.NoError(t, err)

	op, err := f.Copy(lender, 0x1000, 0x2000, 64)
	require.NoError(t, err)
	require.NotNil(t, op)

	assert.False(t, f.Empty(lender))

	n, err := f.Completed(lender, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.Empty(lender))
}

func TestLoopbackLender_RefusesPageStraddle(t *testing.T) {
	f := NewLoopbackFabric()
	lender, err := f.Request(4, 2, 0, nil, nil)
	require.NoError(t, err)

	_, err = f.Copy(lender, pageSize-32, 0, 64)
	assert.ErrorIs(t, err, errPageStraddle)
}

func TestLoopbackLender_FullRejectsBeyondCapacity(t *testing.T) {
	f := NewLoopbackFabric()
	lender, err := f.Request(1, 1, 0, nil, nil)
	require.NoError(t, err)

	_, err = f.Copy(lender, 0, 0, 8)
	require.NoError(t, err)
	assert.True(t, f.Full(lender))

	_, err = f.Copy(lender, 4096, 0, 8)
	assert.ErrorIs(t, err, errLenderFull)
}

func TestLoopbackLender_BorrowMbufReleasedOnCompletion(t *testing.T) {
	f := NewLoopbackFabric()
	var released any
	lender, err := f.Request(2, 2, 0, nil, func(mbuf any) { released = mbuf })
	require.NoError(t, err)

	_, err = f.Copy(lender, 0, 0, 8)
	require.NoError(t, err)
	f.BorrowMbuf(lender, "mbuf-1")

	_, err = f.Completed(lender, 1)
	require.NoError(t, err)
	assert.Equal(t, "mbuf-1", released)
}

func TestStraddlesPageBoundary(t *testing.T) {
	assert.False(t, StraddlesPageBoundary(0, 64))
	assert.True(t, StraddlesPageBoundary(pageSize-16, 64))
	assert.False(t, StraddlesPageBoundary(pageSize, 64))
	assert.False(t, StraddlesPageBoundary(0, 0))
}
