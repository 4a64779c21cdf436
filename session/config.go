// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package session

import (
	"fmt"
	"net"
	"time"

	"github.com/prankurgit/Media-Transport-Library/ebu"
	"github.com/prankurgit/Media-Transport-Library/handler"
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/queue"
	"github.com/prankurgit/Media-Transport-Library/rtcpfb"
)

// Mode selects which §4.3 packet handler a session runs.
type Mode int

// Session modes, one per §4.3 subsection.
const (
	// ModeFrame is the ST 2110-20 / RFC 4175 frame reassembly path (§4.3.1).
	ModeFrame Mode = iota
	// ModeSlice adds incremental slice-ready notifications onto ModeFrame (§4.3.4).
	ModeSlice
	// ModeJPEGXS is the ST 2110-22 / RFC 9134 path (§4.3.2).
	ModeJPEGXS
	// ModeHeaderSplit offloads payload placement to the NIC (§4.3.3).
	ModeHeaderSplit
	// ModePassthrough hands raw RTP packets to the application (§4.3.5).
	ModePassthrough
	// ModeDetect runs format auto-detection before resolving to a target
	// mode, per §4.3.6. DetectionTargetMode selects what it resolves to.
	ModeDetect
)

// Source is one of a session's one or two port pipelines, per §3: primary
// and, for ST 2022-7 style redundancy, a secondary source on a second port.
type Source struct {
	SrcIP   net.IP
	DstIP   net.IP
	DstPort uint16
	SSRC    uint32 // expected media SSRC, used as the NACK's media_ssrc
}

// Config is the full set of knobs needed to attach a session, gathering
// §3's data model plus the handler-selection and transport wiring every
// mode needs.
type Config struct {
	// Geometry inputs. Width/Height/Interlaced may be left zero when Mode
	// is ModeDetect; they are filled in from the detector's result instead.
	PixelGroup   pixelfmt.PixelGroup
	Width        int
	Height       int
	Interlaced   bool
	UserLineSize int
	FrameRateHz  float64

	PayloadType       uint8
	FramebufferCount  int
	Sources           []Source
	Mode              Mode
	DetectionTarget   Mode // resolved mode once ModeDetect succeeds; defaults to ModeFrame
	CoThreadEnabled   bool // a packet co-thread drives HandlePacket with ctrlThread=false
	RTCPEnabled       bool
	RTCPBitmapSize    int
	RTCPSkipWindow    int
	NackIntervalUS    int64
	LocalSSRC         uint32 // sender_ssrc stamped on outgoing NACKs

	MaxBytesPerPkt    int
	DMAMinBytes       int
	DMA               queue.DMALender
	DMALenderHandle   queue.LenderHandle

	BPMSize  handler.BPMSize
	NextSlot handler.PayloadSlotCallback

	SliceSize int64

	UserFrameSize     int64
	UserFrameCallback handler.UserFrameCallback

	PassthroughRing handler.PassthroughRing

	Notify handler.Notifier

	// EBUProfileOpts overrides the derived EBU compliance profile, e.g. a
	// vendor-specific drain_factor or tr_offset.
	EBUProfileOpts []ebu.ProfileOption

	// LossSimulator enables §9's random simulated loss for this session's
	// handler, a test-only fault injector. The zero value leaves it off.
	LossSimulator handler.LossSimulatorConfig
}

// Validate checks the invariants Config must satisfy before a session can
// be built, per §3.
func (c Config) Validate() error {
	if c.Mode != ModeDetect {
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("%w: width=%d height=%d", errInvalidDimensions, c.Width, c.Height)
		}
	}
	if c.FramebufferCount <= 0 {
		return errInvalidFrameCount
	}
	if len(c.Sources) < 1 || len(c.Sources) > 2 {
		return errInvalidPortCount
	}
	if c.FrameRateHz <= 0 {
		return errInvalidFrameRate
	}
	return nil
}

// slotCount derives K, the number of reassembly slots a session owns, per
// §4.2 / §4.8: one in the common case, two when RTCP retransmission needs a
// second in-flight frame's worth of headroom, four when a packet co-thread
// is running concurrently with the control thread.
func (c Config) slotCount() int {
	k := 1
	if c.RTCPEnabled {
		k = 2
	}
	if c.CoThreadEnabled {
		k = 4
	}
	return k
}

func (c Config) rtcpEngineConfig(mediaSSRC uint32) rtcpfb.EngineConfig {
	bitmapSize := c.RTCPBitmapSize
	if bitmapSize <= 0 {
		bitmapSize = defaultRTCPBitmapSize
	}
	skipWindow := c.RTCPSkipWindow
	if skipWindow <= 0 {
		skipWindow = defaultRTCPSkipWindow
	}
	return rtcpfb.EngineConfig{
		BitmapSize:   bitmapSize,
		SkipWindow:   skipWindow,
		NackInterval: nackIntervalDuration(c.NackIntervalUS),
		SenderSSRC:   c.LocalSSRC,
		MediaSSRC:    mediaSSRC,
	}
}

const (
	defaultRTCPBitmapSize = 4096
	defaultRTCPSkipWindow = 64
)

// nackIntervalDuration converts the config's microsecond knob to a
// time.Duration, leaving zero/negative as "unconfigured" for rtcpfb.NewEngine
// to substitute its own default.
func nackIntervalDuration(us int64) time.Duration {
	if us <= 0 {
		return 0
	}
	return time.Duration(us) * time.Microsecond
}
