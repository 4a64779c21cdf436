// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package manager

import "errors"

var (
	errNoPorts           = errors.New("attach requires at least one port binding")
	errPortCountMismatch = errors.New("port binding count must match session config source count")
	errUnknownSession    = errors.New("unknown session id")
	errAlreadyStarted    = errors.New("manager tasklets are already running")
)
