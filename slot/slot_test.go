// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlot_CompleteWhenFullyReceived(t *testing.T) {
	s := NewSlot(4320)
	s.Reset(1500, 5_184_000, 4320)

	for i := int64(0); i < 4320; i++ {
		s.RecordArrival(1200, true)
	}

	assert.Equal(t, DispositionComplete, s.Close(true, false))
	assert.Zero(t, s.PktsRedundant)
}

func TestSlot_SinglePortNeverReconstructsEvenWithHighRedundantCount(t *testing.T) {
	s := NewSlot(4320)
	s.Reset(1500, 5_184_000, 4320)

	// A single-port session never sets PktsRedundant via a real secondary
	// path, but Close must not reclassify on this count regardless.
	for i := int64(0); i < 4300; i++ {
		s.RecordArrival(1206, true)
	}
	for i := 0; i < 20; i++ {
		s.RecordRedundant()
	}
	s.FrameRecvSize = s.ExpectedSize

	assert.Equal(t, DispositionComplete, s.Close(true, false))
}

func TestSlot_ReconstructedWhenSecondaryCarriesLoad(t *testing.T) {
	s := NewSlot(4320)
	s.Reset(1500, 5_184_000, 4320)

	// 4300 packets arrive first-hand, 20 only via the redundant path.
	for i := int64(0); i < 4300; i++ {
		s.RecordArrival(1206, true)
	}
	for i := 0; i < 20; i++ {
		s.RecordRedundant()
	}
	// pad remaining bytes so the frame is still "complete" by size.
	s.FrameRecvSize = s.ExpectedSize

	assert.Equal(t, DispositionReconstructed, s.Close(true, true))
}

func TestSlot_CorruptedWhenShort(t *testing.T) {
	s := NewSlot(4320)
	s.Reset(1500, 5_184_000, 4320)
	s.RecordArrival(1200, true)

	assert.Equal(t, DispositionCorrupted, s.Close(true, false))
	assert.Positive(t, s.MissingPacketEstimate())
}

func TestSlot_NotCompleteWhileDMAInFlight(t *testing.T) {
	s := NewSlot(4320)
	s.Reset(1500, 1200, 1)
	s.RecordArrival(1200, true)

	assert.True(t, s.IsComplete())
	assert.Equal(t, DispositionCorrupted, s.Close(false, false), "DMA not yet drained must block Complete")
}

func TestSlot_TotalRecvSizeSumsDisjointCounters(t *testing.T) {
	s := NewSlot(16)
	s.Reset(1500, 2400, 2)
	s.RecordArrival(1200, true)
	s.RecordArrival(1200, false)

	assert.EqualValues(t, 2400, s.TotalRecvSize())
	assert.True(t, s.IsComplete())
}
