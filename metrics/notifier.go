// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prankurgit/Media-Transport-Library/ebu"
	"github.com/prankurgit/Media-Transport-Library/handler"
)

// NotifyingCollector wraps an application-supplied handler.Notifier,
// recording frame and EBU-window metrics as a side effect of each
// notification before forwarding it unchanged. One instance is built per
// session; its sessionID labels everything it records, the same way
// session.detectNotifier wraps a Notifier to observe format-detection
// results without changing the caller's contract.
type NotifyingCollector struct {
	handler.Notifier
	collector *Collector
	sessionID string
}

// Wrap returns a Notifier that forwards every call to inner unchanged, and
// additionally records metrics for frame-ready and EBU-window events.
func (c *Collector) Wrap(sessionID string, inner handler.Notifier) handler.Notifier {
	return &NotifyingCollector{Notifier: inner, collector: c, sessionID: sessionID}
}

func (n *NotifyingCollector) NotifyFrameReady(evt handler.FrameEvent) {
	n.collector.ObserveFrame(n.sessionID, evt)
	n.Notifier.NotifyFrameReady(evt)
}

func (n *NotifyingCollector) NotifyEvent(eventID string, data any) {
	if eventID == "ebu_window" {
		if win, ok := data.(*ebu.WindowResult); ok && win != nil {
			n.collector.ObserveEBUWindow(n.sessionID, *win)
		}
	}
	n.Notifier.NotifyEvent(eventID, data)
}

// The remaining Notifier methods (NotifySliceReady, NotifyRTPReady,
// NotifyDetected) carry no metric of their own; the embedded Notifier
// already satisfies them with no override needed.
