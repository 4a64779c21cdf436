// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package handler

import (
	"sync"

	"github.com/pion/randutil"

	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

// LossSimulatorConfig configures §9's random simulated loss: a test-only
// fault injector that, with probability LossRate, starts a burst of
// 1..BurstLossMax consecutive dropped packets.
type LossSimulatorConfig struct {
	// LossRate is the per-packet probability, in [0,1], of starting a new
	// burst while no burst is already in progress. Zero disables injection.
	LossRate float64
	// BurstLossMax is the longest burst a single trigger can produce; each
	// triggered burst drops a length drawn uniformly from [1, BurstLossMax].
	BurstLossMax int
}

// Enabled reports whether cfg describes an active simulator.
func (c LossSimulatorConfig) Enabled() bool {
	return c.LossRate > 0 && c.BurstLossMax > 0
}

// lossSimScale is the integer resolution LossRate is quantized to, since
// randutil.MathRandomGenerator draws integers, not floats.
const lossSimScale = 1 << 20

// LossSimulator wraps a Handler and, per §9, drops packets in bursts rather
// than singly — a burst of drops exercises the NACK/retransmission and
// MissingPacketEstimate paths the way a real lossy link does, which
// dropping isolated packets at a fixed rate would not. It is a test-only
// fault injector, never wired on by default.
type LossSimulator struct {
	next Handler
	cfg  LossSimulatorConfig
	rng  randutil.MathRandomGenerator

	mu        sync.Mutex
	remaining int // packets still to drop in the burst underway
}

// NewLossSimulator wraps next with burst-loss injection per cfg. The zero
// LossSimulatorConfig disables injection and HandlePacket is a passthrough.
func NewLossSimulator(next Handler, cfg LossSimulatorConfig) *LossSimulator {
	return &LossSimulator{
		next: next,
		cfg:  cfg,
		rng:  randutil.NewMathRandomGenerator(),
	}
}

// HandlePacket drops the packet with DropSimulateLoss while a burst is
// underway, starting a new burst with probability cfg.LossRate otherwise,
// and forwards everything else to the wrapped Handler.
func (l *LossSimulator) HandlePacket(hdr rtpwire.Header, payload []byte, ctrlThread bool) Result {
	if !l.cfg.Enabled() {
		return l.next.HandlePacket(hdr, payload, ctrlThread)
	}

	if l.shouldDrop() {
		return Result{Drop: DropSimulateLoss}
	}

	return l.next.HandlePacket(hdr, payload, ctrlThread)
}

// shouldDrop advances the burst state machine by exactly one packet.
func (l *LossSimulator) shouldDrop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.remaining > 0 {
		l.remaining--

		return true
	}

	threshold := int(l.cfg.LossRate * lossSimScale)
	if l.rng.Intn(lossSimScale) >= threshold {
		return false
	}

	burst := 1 + l.rng.Intn(l.cfg.BurstLossMax)
	l.remaining = burst - 1 // this packet is the burst's first drop

	return true
}
