// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package metrics exposes the §6 per-session/per-port statistics and the
// §4.4 EBU compliance verdicts as Prometheus collectors, in the style of
// runZeroInc-sockstats' exporter package: plain CounterVec/GaugeVec
// instances built once and registered by the caller, rather than a
// pull-based Collect() that has to re-derive state on every scrape.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/prankurgit/Media-Transport-Library/ebu"
	"github.com/prankurgit/Media-Transport-Library/handler"
)

// Collector holds every metric this package exposes. The zero value is not
// usable; build one with NewCollector.
type Collector struct {
	PacketsTotal  *prometheus.CounterVec
	FramesTotal   *prometheus.CounterVec
	FrameBytes    *prometheus.CounterVec
	MissingPkts   *prometheus.CounterVec
	EBUWindows    *prometheus.CounterVec
	EBUCompliant  *prometheus.GaugeVec
	EBUNarrowOnly *prometheus.GaugeVec
}

// NewCollector builds every metric with constLabels applied to all of them
// (e.g. hostname, instance), the way exporter.NewTCPInfoCollector takes a
// process-wide constLabels set. Call Collectors and pass the result to
// prometheus.MustRegister (or a custom Registerer) to expose them.
func NewCollector(constLabels prometheus.Labels) *Collector {
	return &Collector{
		PacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "st2110_recv",
			Name:        "packets_total",
			Help:        "Packets seen by a session's packet handler, labeled by outcome (accepted, or one of the §6 pkts_* drop reasons).",
			ConstLabels: constLabels,
		}, []string{"session", "port", "reason"}),

		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "st2110_recv",
			Name:        "frames_total",
			Help:        "Frames closed by a session, labeled by disposition (complete, reconstructed, corrupted).",
			ConstLabels: constLabels,
		}, []string{"session", "disposition"}),

		FrameBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "st2110_recv",
			Name:        "frame_bytes_total",
			Help:        "Bytes delivered to the application across closed frames.",
			ConstLabels: constLabels,
		}, []string{"session"}),

		MissingPkts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "st2110_recv",
			Name:        "frame_missing_packets_total",
			Help:        "Cumulative missing-packet estimate across Corrupted frames.",
			ConstLabels: constLabels,
		}, []string{"session"}),

		EBUWindows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "st2110_recv",
			Name:        "ebu_window_verdicts_total",
			Help:        "Closed EBU compliance windows, labeled by metric (cinst, vrx, fpt, latency, rtp_offset, rtp_ts_delta) and verdict (pass, wide, fail).",
			ConstLabels: constLabels,
		}, []string{"session", "metric", "verdict"}),

		EBUCompliant: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "st2110_recv",
			Name:        "ebu_compliant",
			Help:        "1 while every reported EBU window of the session has passed narrow-or-wide on every metric, else 0.",
			ConstLabels: constLabels,
		}, []string{"session"}),

		EBUNarrowOnly: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "st2110_recv",
			Name:        "ebu_narrow_compliant",
			Help:        "1 while every reported EBU window of the session has passed narrow on every metric, else 0.",
			ConstLabels: constLabels,
		}, []string{"session"}),
	}
}

// Collectors returns every metric as a prometheus.Collector, for bulk
// registration.
func (c *Collector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.PacketsTotal,
		c.FramesTotal,
		c.FrameBytes,
		c.MissingPkts,
		c.EBUWindows,
		c.EBUCompliant,
		c.EBUNarrowOnly,
	}
}

// ObservePacket records one handler.Result against a session/port pair. The
// manager's pkt_rx tasklet calls this once per dispatched packet.
func (c *Collector) ObservePacket(sessionID, port string, result handler.Result) {
	reason := "accepted"
	if !result.Accepted {
		reason = result.Drop.String()
	}
	c.PacketsTotal.WithLabelValues(sessionID, port, reason).Inc()
}

// ObserveFrame records one closed frame's disposition, size, and
// missing-packet estimate against a session.
func (c *Collector) ObserveFrame(sessionID string, evt handler.FrameEvent) {
	c.FramesTotal.WithLabelValues(sessionID, evt.Disposition.String()).Inc()
	if evt.Buffer != nil {
		c.FrameBytes.WithLabelValues(sessionID).Add(float64(evt.Buffer.Size))
	}
	if evt.MissingPkts > 0 {
		c.MissingPkts.WithLabelValues(sessionID).Add(float64(evt.MissingPkts))
	}
}

// ObserveEBUWindow records one closed compliance window's per-metric
// verdicts and sticky compliance flags against a session.
func (c *Collector) ObserveEBUWindow(sessionID string, win ebu.WindowResult) {
	metrics := map[string]ebu.Verdict{
		"cinst":        win.Cinst,
		"vrx":          win.VRX,
		"fpt":          win.FPT,
		"latency":      win.Latency,
		"rtp_offset":   win.RTPOffset,
		"rtp_ts_delta": win.RTPTSDelta,
	}
	for name, v := range metrics {
		c.EBUWindows.WithLabelValues(sessionID, name, v.String()).Inc()
	}

	c.EBUCompliant.WithLabelValues(sessionID).Set(boolToFloat(win.IsCompliant))
	c.EBUNarrowOnly.WithLabelValues(sessionID).Set(boolToFloat(win.IsNarrowCompliant))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
