// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package manager

import (
	"github.com/google/uuid"

	"github.com/prankurgit/Media-Transport-Library/queue"
	"github.com/prankurgit/Media-Transport-Library/rtcpfb"
	"github.com/prankurgit/Media-Transport-Library/session"
)

// SessionID externally identifies an attached session, per §6's
// `attach(ops) -> session_id`.
type SessionID = uuid.UUID

// PortBinding is one port's receive-queue wiring: which (port, flow) to
// burst from, and, when RTCP is enabled, the pre-built NACK header
// template the control tasklet patches and sends for that port.
type PortBinding struct {
	Port         int
	Flow         queue.Flow
	NackTemplate *rtcpfb.NackTemplate // nil disables NACK wire-building for this port
}

// MulticastJoiner and MulticastLeaver are the optional "mcast" attach/
// rollback step, per §4.8's rollback ordering (hw, sw, mcast, rtcp). No
// example repo in the retrieval pack carries an IGMP/multicast-join
// library, so this is a caller-supplied hook rather than a wired
// dependency; a nil hook makes the step a no-op.
type MulticastJoiner func(src session.Source) error
type MulticastLeaver func(src session.Source) error

// AttachOps bundles everything manager.Attach needs to bring up one
// session: its config, per-port queue bindings, and the optional
// multicast join/leave hooks.
type AttachOps struct {
	Config         session.Config
	Ports          []PortBinding
	JoinMulticast  MulticastJoiner
	LeaveMulticast MulticastLeaver
}

// attachStep is one of the four reversible resource-acquisition phases of
// §4.8: "resource failures during attach roll back in reverse order (hw,
// sw, mcast, rtcp); attach is all-or-nothing."
type attachStep struct {
	name     string
	rollback func()
}
