// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package queue

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	_ ReceiveQueue = (*LoopbackFabric)(nil)
	_ DMALender    = (*LoopbackFabric)(nil)
)

func monotonicNS() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return ts.Nano()
}

// LoopbackFabric is an in-process stand-in for a NIC's receive queues: no
// socket, no ring buffer memory, just a channel per (port, flow) pair that
// a test Injects packets into. It satisfies
// ReceiveQueue so session/manager code can be exercised without hardware.
type LoopbackFabric struct {
	mu     sync.Mutex
	queues map[int]*loopbackQueue
}

// NewLoopbackFabric builds an empty fabric; queues are created lazily on
// first Get.
func NewLoopbackFabric() *LoopbackFabric {
	return &LoopbackFabric{queues: make(map[int]*loopbackQueue)}
}

type loopbackQueue struct {
	port   int
	flow   Flow
	ch     chan Packet
	closed bool
	mu     sync.Mutex
}

func (q *loopbackQueue) Port() int { return q.port }

// Get opens (or returns the already-open) queue for port. The loopback
// fabric does not filter by flow; it exists to exercise the contract's
// shape, not NIC flow-steering.
func (f *LoopbackFabric) Get(port int, flow Flow) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if q, ok := f.queues[port]; ok {
		return q, nil
	}
	q := &loopbackQueue{port: port, flow: flow, ch: make(chan Packet, 4096)}
	f.queues[port] = q
	return q, nil
}

// Burst drains up to len(bufs) already-injected packets into bufs,
// non-blocking, returning the count actually copied.
func (f *LoopbackFabric) Burst(h Handle, bufs []Packet) (int, error) {
	q, ok := h.(*loopbackQueue)
	if !ok {
		return 0, fmt.Errorf("%w: wrong handle type", errQueueClosed)
	}

	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return 0, errQueueClosed
	}

	n := 0
	for n < len(bufs) {
		select {
		case pkt := <-q.ch:
			bufs[n] = pkt
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// Put closes the queue; a subsequent Burst or Inject returns errQueueClosed.
func (f *LoopbackFabric) Put(h Handle) error {
	q, ok := h.(*loopbackQueue)
	if !ok {
		return fmt.Errorf("%w: wrong handle type", errQueueClosed)
	}
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}

// Inject delivers one packet to port's queue, stamping its arrival time if
// the caller left ArrivalNS unset. Used by tests in place of a real RX
// burst.
func (f *LoopbackFabric) Inject(port int, pkt Packet) error {
	f.mu.Lock()
	q, ok := f.queues[port]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: port %d never opened via Get", errQueueClosed, port)
	}

	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return errQueueClosed
	}

	if pkt.ArrivalNS == 0 {
		pkt.ArrivalNS = monotonicNS()
	}
	select {
	case q.ch <- pkt:
		return nil
	default:
		return fmt.Errorf("loopback queue for port %d is full", port)
	}
}
