// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package manager implements §4.8's session manager: the attach/detach/
// update_source operations and the two cooperative tasklets (pkt_rx,
// control) that drive every attached session's packet and RTCP traffic.
//
// The source's "cooperative tasklet" model exists to avoid preempting a
// single scheduler thread; Go's goroutine scheduler already preempts, so
// pkt_rx and control run as plain goroutines on their own tickers rather
// than a hand-rolled run-to-completion loop. The per-session mutex below
// is the idiomatic stand-in for the source's per-slot spinlock: it
// serializes attach/detach/update_source against the tasklets touching
// the same session, not against each other.
package manager

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/prankurgit/Media-Transport-Library/handler"
	"github.com/prankurgit/Media-Transport-Library/queue"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/session"
)

// maxBurst is the §4.8 pkt_rx tasklet's per-port, per-session burst size.
const maxBurst = 128

// sessionEntry is one attached session plus its tasklet-facing wiring.
type sessionEntry struct {
	mu           sync.Mutex
	id           SessionID
	sess         *session.Session
	ports        []PortBinding
	handles      []queue.Handle
	cpuBusyScore float64
	dmaBusyScore float64
}

// PacketObserver receives one handler.Result per dispatched packet, labeled
// by the session and port it arrived on. metrics.Collector.ObservePacket
// satisfies this.
type PacketObserver interface {
	ObservePacket(sessionID, port string, result handler.Result)
}

// Config configures a Manager.
type Config struct {
	Queue           queue.ReceiveQueue
	PktRxInterval   time.Duration // default 1ms
	ControlInterval time.Duration // default 10ms
	LoggerFactory   logging.LoggerFactory
	Metrics         PacketObserver // optional; nil disables per-packet recording
}

// Manager owns a receive-queue fabric and every session attached to it,
// per §4.8.
type Manager struct {
	queue queue.ReceiveQueue
	log   logging.LeveledLogger

	pktRxInterval   time.Duration
	controlInterval time.Duration

	metrics PacketObserver

	mu       sync.RWMutex
	sessions map[SessionID]*sessionEntry

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
	started  bool
}

// NewManager builds a Manager bound to one receive-queue fabric.
func NewManager(cfg Config) *Manager {
	factory := cfg.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	pktRxInterval := cfg.PktRxInterval
	if pktRxInterval <= 0 {
		pktRxInterval = time.Millisecond
	}
	controlInterval := cfg.ControlInterval
	if controlInterval <= 0 {
		controlInterval = 10 * time.Millisecond
	}

	return &Manager{
		queue:           cfg.Queue,
		log:             factory.NewLogger("manager"),
		pktRxInterval:   pktRxInterval,
		controlInterval: controlInterval,
		metrics:         cfg.Metrics,
		sessions:        make(map[SessionID]*sessionEntry),
		stopCh:          make(chan struct{}),
	}
}

// Attach brings up one session: opens its receive-queue handles (hw),
// builds the session itself (sw), joins multicast if configured (mcast),
// and attaches it (rtcp; the RTCP engines themselves are built by
// session.NewSession in the sw step). Any failure rolls the completed steps back in reverse order,
// per §4.8.
func (m *Manager) Attach(ops AttachOps) (SessionID, error) {
	if len(ops.Ports) == 0 {
		return SessionID{}, errNoPorts
	}
	if len(ops.Ports) != len(ops.Config.Sources) {
		return SessionID{}, errPortCountMismatch
	}

	var completed []attachStep

	rollback := func() {
		for i := len(completed) - 1; i >= 0; i-- {
			completed[i].rollback()
		}
	}

	// hw: open a receive-queue handle per port.
	handles := make([]queue.Handle, len(ops.Ports))
	for i, pb := range ops.Ports {
		h, err := m.queue.Get(pb.Port, pb.Flow)
		if err != nil {
			rollback()
			return SessionID{}, err
		}
		handles[i] = h
		idx := i
		completed = append(completed, attachStep{name: "hw", rollback: func() {
			_ = m.queue.Put(handles[idx])
		}})
	}

	// sw: build the session's geometry/pool/slots/handler.
	sess, err := session.NewSession(ops.Config)
	if err != nil {
		rollback()
		return SessionID{}, err
	}
	completed = append(completed, attachStep{name: "sw", rollback: func() {
		_ = sess.Detach()
	}})

	// mcast: optional join hook, one per source.
	if ops.JoinMulticast != nil {
		joined := make([]session.Source, 0, len(ops.Config.Sources))
		for _, src := range ops.Config.Sources {
			if err := ops.JoinMulticast(src); err != nil {
				rollback()
				for _, j := range joined {
					if ops.LeaveMulticast != nil {
						_ = ops.LeaveMulticast(j)
					}
				}
				return SessionID{}, err
			}
			joined = append(joined, src)
		}
		completed = append(completed, attachStep{name: "mcast", rollback: func() {
			if ops.LeaveMulticast == nil {
				return
			}
			for _, j := range joined {
				_ = ops.LeaveMulticast(j)
			}
		}})
	}

	// rtcp/attach: flip the session's state machine; RTCP engines were
	// already constructed inside session.NewSession.
	if err := sess.Attach(); err != nil {
		rollback()
		return SessionID{}, err
	}

	id := uuid.New()
	entry := &sessionEntry{id: id, sess: sess, ports: ops.Ports, handles: handles}

	m.mu.Lock()
	m.sessions[id] = entry
	m.mu.Unlock()

	m.log.Infof("session %s attached, %d port(s)", id, len(ops.Ports))

	return id, nil
}

// Detach tears a session down: flushes in-flight slots, transitions it to
// detached, and releases its receive-queue handles.
func (m *Manager) Detach(id SessionID) error {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return errUnknownSession
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	err := entry.sess.Detach()
	for _, h := range entry.handles {
		_ = m.queue.Put(h)
	}

	m.log.Infof("session %s detached", id)

	return err
}

// UpdateSource replaces one source of an attached session in place, per
// §4.8.
func (m *Manager) UpdateSource(id SessionID, sourceIdx int, src session.Source) error {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return errUnknownSession
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.sess.UpdateSource(sourceIdx, src)
}

// SessionCount reports how many sessions are currently attached.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start launches the pkt_rx and control tasklets.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	m.wg.Add(2)
	go m.runPktRx()
	go m.runControl()

	return nil
}

// Stop signals both tasklets to finish their current round and exit, then
// waits for them, per §5's cancellation rule.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

// runPktRx is the §4.8 pkt_rx tasklet: burst up to maxBurst packets per
// port per session, dispatch through the session's handler, and submit any
// pending DMA. Runs one round per pktRxInterval tick; a round that
// produces no work ("all-done") does not change that cadence.
func (m *Manager) runPktRx() {
	defer m.wg.Done()

	buf := make([]queue.Packet, maxBurst)
	ticker := time.NewTicker(m.pktRxInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if !m.pktRxRound(buf) {
				continue // all-done this round; next tick still fires, cheaply
			}
		}
	}
}

// pktRxRound runs one burst/dispatch pass over every attached session and
// port, returning true if any session produced work.
func (m *Manager) pktRxRound(buf []queue.Packet) bool {
	m.mu.RLock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	anyWork := false
	for _, entry := range entries {
		entry.mu.Lock()
		for portIdx, h := range entry.handles {
			n, err := m.queue.Burst(h, buf)
			if err != nil || n == 0 {
				continue
			}
			anyWork = true
			for i := 0; i < n; i++ {
				m.dispatch(entry, portIdx, buf[i])
			}
		}
		if lender, handle := entry.sess.DMABinding(); lender != nil && handle != nil {
			_ = lender.Submit(handle)
			_, _ = lender.Completed(handle, maxBurst)
		}
		entry.mu.Unlock()
	}

	return anyWork
}

// dispatch parses one raw packet's RTP header and hands it to the
// session's handler.
func (m *Manager) dispatch(entry *sessionEntry, portIdx int, pkt queue.Packet) {
	var hdr rtpwire.Header
	n, err := hdr.Unmarshal(pkt.Data)
	if err != nil {
		return
	}

	arrival := time.Unix(0, pkt.ArrivalNS)
	result := entry.sess.HandlePacket(portIdx, hdr, pkt.Data[n:], true, arrival)

	if m.metrics != nil {
		m.metrics.ObservePacket(entry.id.String(), strconv.Itoa(portIdx), result)
	}
}

// runControl is the §4.8 control tasklet: polls vsync (approximated here
// as a fixed tick, since no vsync source exists outside real hardware),
// emits RTCP NACKs, and recomputes busy scores for migration.
func (m *Manager) runControl() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.controlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case now := <-ticker.C:
			m.controlRound(now)
		}
	}
}

func (m *Manager) controlRound(now time.Time) {
	m.mu.RLock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	for _, entry := range entries {
		entry.mu.Lock()
		m.emitNacks(entry, now)
		m.recomputeBusyScores(entry)
		entry.mu.Unlock()
	}
}

// emitNacks ticks every port's RTCP engine and, when a NACK is due, builds
// the outgoing wire frame from that port's NackTemplate.
func (m *Manager) emitNacks(entry *sessionEntry, now time.Time) {
	for portIdx, pb := range entry.ports {
		if pb.NackTemplate == nil {
			continue
		}
		nack, ok := entry.sess.RTCPTick(portIdx, now)
		if !ok {
			continue
		}
		payload, err := nack.Marshal()
		if err != nil {
			m.log.Warnf("nack marshal failed on port %d: %v", pb.Port, err)
			continue
		}
		pb.NackTemplate.Build(payload)
	}
}
