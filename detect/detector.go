// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package detect implements the format auto-detector of §4.3.6: it
// consumes the first several frames' worth of packets and infers
// resolution, frame rate, packing mode, and interlace.
package detect

import (
	"errors"

	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
)

// State is the detector's terminal-state machine: DETECTING -> (SUCCESS |
// DISABLED | FAIL), per §3.
type State int

// Detector states.
const (
	StateDetecting State = iota
	StateSuccess
	StateDisabled
	StateFail
)

const sampleCount = 3

// maxResamples bounds how many times the detector re-samples three frames
// before giving up and transitioning to FAIL; unlike the free-running source
// implementation, a bounded Go detector must have a terminal failure state.
const maxResamples = 8

type sample struct {
	rtpTimestamp   uint32
	cumulativePkts uint64
}

// Result is the inferred format, delivered to notify_detected (§6).
type Result struct {
	Width       int
	Height      int
	FrameRate   float64
	Interlaced  bool
	Packing     pixelfmt.PackingMode
	PktsPerLine int
}

// frameRateTable maps the RTP timestamp delta between two successive
// frames (at a 90kHz clock) to a frame rate, per §4.3.6.
var frameRateTable = map[uint32]float64{
	1500: 60,
	1501: 59.94,
	1502: 59.94,
	3000: 30,
	3003: 29.97,
	3600: 25,
	1800: 50,
}

// resolutionTable maps the maximum observed line number to a (width,
// height) pair, separately for progressive and interlaced streams, per
// §4.3.6. Interlaced streams carry half the active lines per field.
var resolutionTableProgressive = map[int][2]int{
	719:  {1280, 720},
	1079: {1920, 1080},
	2159: {3840, 2160},
}

var resolutionTableInterlaced = map[int][2]int{
	539: {1920, 1080}, // 1080i: 540 lines per field
}

// Detector accumulates samples across frame boundaries until it has enough
// to infer a format, or gives up.
type Detector struct {
	samples    [sampleCount]sample
	filled     int
	maxLineNo  int
	everSawSRD bool // tracks "no SRD continuation bit ever seen" for single-line packing
	allBPM     bool
	state      State
	resamples  int
}

// NewDetector returns a fresh detector in the DETECTING state.
func NewDetector() *Detector {
	return &Detector{allBPM: true, state: StateDetecting}
}

// State reports the detector's current terminal state.
func (d *Detector) State() State {
	return d.state
}

// Disable transitions the detector to DISABLED, e.g. because the session
// was configured with an explicit format and detection was never needed.
func (d *Detector) Disable() {
	d.state = StateDisabled
}

// ObservePacket folds one packet's bookkeeping into the running flags ahead
// of the next marker-bit sample: whether every payload length seen so far
// was BPM-aligned (a multiple of the pixel group's packing granularity, here
// taken as 180 bytes per §3's GLOSSARY), and whether an SRD continuation bit
// has ever been seen.
func (d *Detector) ObservePacket(lineNo int, payloadLen int, sawContinuation bool) {
	if lineNo > d.maxLineNo {
		d.maxLineNo = lineNo
	}
	if payloadLen%180 != 0 {
		d.allBPM = false
	}
	if sawContinuation {
		d.everSawSRD = true
	}
}

// ObserveMarker samples (rtpTimestamp, cumulativePackets) at a marker-bit
// boundary. Once sampleCount samples have accumulated it evaluates them and
// transitions to SUCCESS or FAIL.
func (d *Detector) ObserveMarker(rtpTimestamp uint32, cumulativePkts uint64) *Result {
	if d.state != StateDetecting {
		return nil
	}

	if d.filled < sampleCount {
		d.samples[d.filled] = sample{rtpTimestamp: rtpTimestamp, cumulativePkts: cumulativePkts}
		d.filled++
	}

	if d.filled < sampleCount {
		return nil
	}

	result, ok := d.evaluate()
	if !ok {
		d.filled = 0
		d.allBPM = true
		d.everSawSRD = false
		d.maxLineNo = 0
		d.resamples++

		if d.resamples >= maxResamples {
			d.state = StateFail
		}

		return nil
	}

	d.state = StateSuccess

	return result
}

// Err reports why ObserveMarker stopped producing results: nil while still
// DETECTING or after SUCCESS, errDetectionDisabled if disabled, and
// errDetectionFailed if detection failed outright.
func (d *Detector) Err() error {
	switch d.state {
	case StateDisabled:
		return errDetectionDisabled
	case StateFail:
		return errDetectionFailed
	default:
		return nil
	}
}

func (d *Detector) evaluate() (*Result, bool) {
	tsDelta1 := d.samples[1].rtpTimestamp - d.samples[0].rtpTimestamp
	tsDelta2 := d.samples[2].rtpTimestamp - d.samples[1].rtpTimestamp
	if tsDelta1 != tsDelta2 {
		return nil, false
	}

	fps, ok := frameRateTable[tsDelta1]
	if !ok {
		return nil, false
	}

	pktDelta1 := d.samples[1].cumulativePkts - d.samples[0].cumulativePkts
	pktDelta2 := d.samples[2].cumulativePkts - d.samples[1].cumulativePkts
	if pktDelta1 != pktDelta2 {
		return nil, false
	}

	interlaced, dims, ok := resolveDims(d.maxLineNo)
	if !ok {
		return nil, false
	}

	packing := pixelfmt.PackingGPM
	switch {
	case d.allBPM:
		packing = pixelfmt.PackingBPM
	case !d.everSawSRD:
		packing = pixelfmt.PackingGPMSingleLine
	}

	return &Result{
		Width:       dims[0],
		Height:      dims[1],
		FrameRate:   fps,
		Interlaced:  interlaced,
		Packing:     packing,
		PktsPerLine: int(pktDelta1) / dims[1],
	}, true
}

func resolveDims(maxLineNo int) (interlaced bool, dims [2]int, ok bool) {
	if d, found := resolutionTableProgressive[maxLineNo]; found {
		return false, d, true
	}
	if d, found := resolutionTableInterlaced[maxLineNo]; found {
		return true, d, true
	}

	return false, [2]int{}, false
}
