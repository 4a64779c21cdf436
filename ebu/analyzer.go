// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package ebu

import "math"

const (
	windowFrames    = 300 // §4.4: "every 300 frames the analyzer closes a window"
	discardWindows  = 4   // "the first 4 windows are discarded to let the system settle"
)

// WindowResult is the outcome of one closed, non-discarded compliance
// window: a verdict per metric plus the session-wide sticky flags.
type WindowResult struct {
	Cinst      Verdict
	VRX        Verdict
	FPT        Verdict
	Latency    Verdict
	RTPOffset  Verdict
	RTPTSDelta Verdict

	IsCompliant       bool
	IsNarrowCompliant bool
}

func (w WindowResult) narrowPass(v Verdict) bool { return v == VerdictPass }
func (w WindowResult) widePass(v Verdict) bool   { return v == VerdictPass || v == VerdictWide }

// Analyzer is the per-session EBU timing model of §4.4: a per-packet VRX/
// Cinst recurrence plus per-frame FPT/latency/offset metrics, aggregated
// into running stats and closed into windowed verdicts every 300 frames.
type Analyzer struct {
	profile Profile

	prevVRX float64
	prevD   float64

	frameStart     float64
	lastPacketTime float64
	havePacket     bool

	expectedRTPTS uint32
	prevRTPTS     uint32
	haveFrame     bool

	cinst      runningStat
	vrx        runningStat
	fpt        runningStat
	latency    runningStat
	rtpOffset  runningStat
	rtpTSDelta runningStat
	interPkt   runningStat

	framesInWindow    int
	totalPktsInWindow int64
	windowsClosed     int

	isCompliant       bool
	isNarrowCompliant bool
}

// NewAnalyzer starts a fresh analyzer for one session attach. The session-
// wide compliant/narrow-compliant flags start true and can only be cleared,
// never set, by a later window (a session is compliant until it proves
// otherwise).
func NewAnalyzer(profile Profile) *Analyzer {
	return &Analyzer{
		profile:           profile,
		cinst:             newRunningStat(),
		vrx:               newRunningStat(),
		fpt:                newRunningStat(),
		latency:           newRunningStat(),
		rtpOffset:         newRunningStat(),
		rtpTSDelta:        newRunningStat(),
		interPkt:          newRunningStat(),
		isCompliant:       true,
		isNarrowCompliant: true,
	}
}

// ObservePacket feeds one packet's arrival into the §4.4 timing model. t is
// the packet's arrival time in seconds since session start, pktIdx is its
// index within the current frame (0-based), and rtpTS is the packet's RTP
// timestamp. rtpTS is only consulted on pktIdx == 0, the first packet of a
// frame, which is also where the per-frame FPT/latency/RTP-offset/RTP-TS-
// delta metrics are taken and where a 300-frame window may close.
//
// The returned *WindowResult is non-nil only on the packet that closes a
// non-discarded window.
func (a *Analyzer) ObservePacket(t float64, pktIdx int, rtpTS uint32) *WindowResult {
	var closed *WindowResult
	if pktIdx == 0 {
		closed = a.observeFrameStart(t, rtpTS)
	}

	frameTime := a.profile.FrameTime
	trs := a.profile.Trs

	epoch := math.Floor(t / frameTime)
	tvd := epoch*frameTime + a.profile.TrOffset
	delta := t - tvd
	d := (delta + trs) / trs

	vrx := a.prevVRX + 1 - (d - a.prevD)
	a.prevVRX = vrx
	a.prevD = d

	cinst := 0.0
	if a.havePacket {
		cinst = float64(pktIdx) - ((t - a.frameStart) / trs * a.profile.DrainFactor)
	}
	if cinst < 0 {
		cinst = 0
	}

	a.cinst.observe(cinst)
	a.vrx.observe(vrx)

	if a.havePacket {
		a.interPkt.observe(t - a.lastPacketTime)
	}
	a.lastPacketTime = t
	a.havePacket = true
	a.totalPktsInWindow++

	return closed
}

// observeFrameStart updates the per-frame metrics and, every 300 frames,
// closes a window. It runs before the calling packet's own per-packet
// bookkeeping so that Cinst's "t - frame_start" term already sees this
// frame's start time, per §4.4.
func (a *Analyzer) observeFrameStart(t float64, rtpTS uint32) *WindowResult {
	frameTime := a.profile.FrameTime
	samplingRate := a.profile.SamplingRate

	epoch := math.Floor(t / frameTime)
	fpt := t - epoch*frameTime
	a.fpt.observe(fpt)

	if a.haveFrame {
		rtpOffsetTicks := int32(rtpTS - a.expectedRTPTS)
		rtpOffset := float64(rtpOffsetTicks)
		latency := fpt - rtpOffset*(frameTime/samplingRate)
		rtpTSDelta := float64(int32(rtpTS - a.prevRTPTS))

		a.latency.observe(latency)
		a.rtpOffset.observe(rtpOffset)
		a.rtpTSDelta.observe(rtpTSDelta)
	}

	a.frameStart = t
	// The VRX recurrence restarts with every frame; carried across frames
	// it would grow by one frame's packet count per frame.
	a.prevVRX = 0
	a.prevD = 0
	a.prevRTPTS = rtpTS
	a.expectedRTPTS = rtpTS + uint32(math.Round(a.profile.FrameTSSampling))
	a.haveFrame = true

	a.framesInWindow++
	if a.framesInWindow < windowFrames {
		return nil
	}

	return a.closeWindow()
}

func (a *Analyzer) closeWindow() *WindowResult {
	th := computeThresholds(a.profile, a.totalPktsInWindow)

	result := WindowResult{
		Cinst:      verdictForMax(a.cinst.max, th.cinstNarrowMax, th.cinstWideMax),
		VRX:        verdictForMax(a.vrx.max, th.vrxNarrowMax, th.vrxWideMax),
		FPT:        verdictForMax(a.fpt.max, th.fptNarrowMax, th.fptWideMax),
		Latency:    rangeVerdict(a.latency.min, a.latency.max, 0, 1.0),
		RTPOffset:  rangeVerdict(a.rtpOffset.min, a.rtpOffset.max, -0.1, math.Ceil(a.profile.TrOffset*a.profile.SamplingRate)+1),
		RTPTSDelta: rangeVerdict(a.rtpTSDelta.min, a.rtpTSDelta.max, a.profile.FrameTSSampling, a.profile.FrameTSSampling+1),
	}

	if a.vrx.min < 0 {
		result.VRX = VerdictFail
	}

	a.windowsClosed++
	a.framesInWindow = 0
	a.totalPktsInWindow = 0
	a.cinst = newRunningStat()
	a.vrx = newRunningStat()
	a.fpt = newRunningStat()
	a.latency = newRunningStat()
	a.rtpOffset = newRunningStat()
	a.rtpTSDelta = newRunningStat()
	a.interPkt = newRunningStat()

	if a.windowsClosed <= discardWindows {
		return nil
	}

	allNarrow := result.narrowPass(result.Cinst) && result.narrowPass(result.VRX) &&
		result.narrowPass(result.FPT) && result.narrowPass(result.Latency) &&
		result.narrowPass(result.RTPOffset) && result.narrowPass(result.RTPTSDelta)
	allWide := result.widePass(result.Cinst) && result.widePass(result.VRX) &&
		result.widePass(result.FPT) && result.widePass(result.Latency) &&
		result.widePass(result.RTPOffset) && result.widePass(result.RTPTSDelta)

	a.isNarrowCompliant = a.isNarrowCompliant && allNarrow
	a.isCompliant = a.isCompliant && allWide

	result.IsCompliant = a.isCompliant
	result.IsNarrowCompliant = a.isNarrowCompliant

	return &result
}
