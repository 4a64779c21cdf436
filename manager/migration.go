// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package manager

// recomputeBusyScores updates one session's CPU and DMA busy scores, per
// §4.8's control tasklet. cpuBusyScore approximates load as the fraction
// of the session's slots currently mid-frame; dmaBusyScore is a coarse
// three-level read of the lender's own Empty/Full signals, since the
// consumed DMA-lender contract exposes no finer-grained occupancy.
//
// Actual migration (moving a session's tasklet work to a different
// execution context) has no Go-idiomatic equivalent to a DPDK lcore
// reassignment — the goroutine scheduler already load-balances across
// OS threads, so there is nothing to migrate to. This package stops at
// computing and exposing the scores the source uses to make that
// decision; MigrationCandidates is the hook a caller-supplied scheduler
// could act on.
func (m *Manager) recomputeBusyScores(entry *sessionEntry) {
	entry.cpuBusyScore = entry.sess.CapturingSlotFraction()

	lender, handle := entry.sess.DMABinding()
	switch {
	case lender == nil || handle == nil:
		entry.dmaBusyScore = 0
	case lender.Full(handle):
		entry.dmaBusyScore = 1
	case lender.Empty(handle):
		entry.dmaBusyScore = 0
	default:
		entry.dmaBusyScore = 0.5
	}
}

// BusyScores reports the last-computed (cpu, dma) busy scores for id.
func (m *Manager) BusyScores(id SessionID) (cpu, dma float64, err error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return 0, 0, errUnknownSession
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.cpuBusyScore, entry.dmaBusyScore, nil
}

// MigrationCandidates returns every session whose combined busy score
// exceeds threshold, in no particular order.
func (m *Manager) MigrationCandidates(threshold float64) []SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []SessionID
	for id, entry := range m.sessions {
		entry.mu.Lock()
		combined := (entry.cpuBusyScore + entry.dmaBusyScore) / 2
		entry.mu.Unlock()

		if combined > threshold {
			candidates = append(candidates, id)
		}
	}
	return candidates
}
