// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package ebu

import "math"

// Verdict is the per-metric outcome of one closed compliance window.
type Verdict int

const (
	VerdictPass Verdict = iota
	VerdictWide
	VerdictFail
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictWide:
		return "wide"
	case VerdictFail:
		return "fail"
	default:
		return "unknown"
	}
}

// thresholds are the §4.4 narrow/wide bounds for one profile and packet
// count, computed once per window close since N_pkts and frame_sec vary
// window to window.
type thresholds struct {
	cinstNarrowMax float64
	cinstWideMax   float64
	vrxNarrowMax   float64
	vrxWideMax     float64
	fptNarrowMax   float64
	fptWideMax     float64
}

func computeThresholds(p Profile, totalPkts int64) thresholds {
	frameSec := p.FrameTime
	nPkts := float64(totalPkts)

	return thresholds{
		cinstNarrowMax: math.Max(4, nPkts/(43200*p.DrainFactor*frameSec)),
		cinstWideMax:   math.Max(16, nPkts/(21600*frameSec)),
		vrxNarrowMax:   math.Max(8, nPkts/(27000*frameSec)),
		vrxWideMax:     math.Max(720, nPkts/(300*frameSec)),
		fptNarrowMax:   p.TrOffset,
		fptWideMax:     2 * p.TrOffset,
	}
}

func verdictForMax(observedMax, narrowMax, wideMax float64) Verdict {
	switch {
	case observedMax <= narrowMax:
		return VerdictPass
	case observedMax <= wideMax:
		return VerdictWide
	default:
		return VerdictFail
	}
}

// rangeVerdict reports Pass if every observed sample of a metric fell
// within [lo, hi]; these metrics (latency, RTP offset, RTP TS delta) have
// no "wide" tier in §4.4's table.
func rangeVerdict(min, max, lo, hi float64) Verdict {
	if min >= lo && max <= hi {
		return VerdictPass
	}
	return VerdictFail
}
