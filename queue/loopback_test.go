// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackFabric_GetBurstPut(t *testing.T) {
	f := NewLoopbackFabric()
	h, err := f.Get(0, Flow{DstPort: 20000})
	require.NoError(t, err)

	require.NoError(t, f.Inject(0, Packet{Data: []byte{1, 2, 3}}))
	require.NoError(t, f.Inject(0, Packet{Data: []byte{4, 5, 6}}))

	bufs := make([]Packet, 4)
	n, err := f.Burst(h, bufs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{1, 2, 3}, bufs[0].Data)
	assert.NotZero(t, bufs[0].ArrivalNS)

	require.NoError(t, f.Put(h))
	assert.ErrorIs(t, f.Inject(0, Packet{}), errQueueClosed)
}

func TestLoopbackFabric_InjectUnopenedPortFails(t *testing.T) {
	f := NewLoopbackFabric()
	err := f.Inject(1, Packet{})
	assert.Error(t, err)
}

func TestLoopbackFabric_BurstReturnsZeroWhenEmpty(t *testing.T) {
	f := NewLoopbackFabric()
	h, err := f.Get(0, Flow{})
	require.NoError(t, err)

	n, err := f.Burst(h, make([]Packet, 8))
	require.NoError(t, err)
	assert.Zero(t, n)
}
