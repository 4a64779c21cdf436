// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package rtcpfb implements the §4.6 RTCP feedback engine: a per-port
// recent-sequence bitmap and a paced NACK emitter built on top of it.
package rtcpfb

import (
	"time"

	"github.com/pion/rtcp"
	"golang.org/x/time/rate"
)

// defaultNackInterval is the §9 open-question default: "the control
// tasklet runs RTCP NACK emission at a hard-coded default of 250 µs when
// not configured". The source leaves nack_interval_us == 0 undefined; this
// implementation treats zero the same as "not configured" and substitutes
// the default rather than spinning a zero-period ticker.
const defaultNackInterval = 250 * time.Microsecond

// EngineConfig configures one port's NACK engine.
type EngineConfig struct {
	BitmapSize   int
	SkipWindow   int
	NackInterval time.Duration // 0 or negative selects defaultNackInterval

	SenderSSRC uint32
	MediaSSRC  uint32
}

// Engine paces RTCP NACK emission for one port: packets are recorded as
// they arrive, and Tick builds a TransportLayerNack for every gap older
// than the skip window, rate-limited to at most one emission per
// nack_interval_us.
type Engine struct {
	bitmap  *Bitmap
	limiter *rate.Limiter

	senderSSRC uint32
	mediaSSRC  uint32
}

// NewEngine builds a feedback engine for one port.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	bitmap, err := NewBitmap(cfg.BitmapSize, cfg.SkipWindow)
	if err != nil {
		return nil, err
	}

	interval := cfg.NackInterval
	if interval <= 0 {
		interval = defaultNackInterval
	}

	return &Engine{
		bitmap:     bitmap,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		senderSSRC: cfg.SenderSSRC,
		mediaSSRC:  cfg.MediaSSRC,
	}, nil
}

// RecordReceived feeds one arrived packet's sequence number into the
// recent-sequence bitmap.
func (e *Engine) RecordReceived(seq uint16) {
	e.bitmap.Record(seq)
}

// Tick is called from the control tasklet's poll loop. It reports the
// gaps currently eligible for a NACK (reserving the token-bucket slot
// with AllowN) and builds the outgoing packet; at most one NACK is built
// per nack_interval_us regardless of call frequency, and a tick with no
// eligible gaps never consumes a token.
func (e *Engine) Tick(now time.Time) (*rtcp.TransportLayerNack, bool) {
	gaps := e.bitmap.Gaps()
	if len(gaps) == 0 {
		return nil, false
	}
	if !e.limiter.AllowN(now, 1) {
		return nil, false
	}

	return &rtcp.TransportLayerNack{
		SenderSSRC: e.senderSSRC,
		MediaSSRC:  e.mediaSSRC,
		Nacks:      rtcp.NackPairsFromSequenceNumbers(gaps),
	}, true
}
