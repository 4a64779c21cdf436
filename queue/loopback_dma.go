// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package queue

import (
	"fmt"
	"sync"
)

// pageSize models the huge-page size the §9 "Frame scatter/gather on
// PA-IOVA" design note guards against straddling. 2 MiB matches the
// default x86 huge page size; real deployments configure this from the
// host's actual huge page size.
const pageSize = 2 << 20

// LoopbackLender is an in-process stand-in for the §6 DMA lender contract:
// Copy records each copy without moving any bytes (there is no real DMA
// engine to offload to, and the IOVAs are never dereferenced) and defers
// "completion" to the next Completed call, the same
// two-phase submit/drain shape production DMA engines have, so session
// code written against this double exercises the real back-pressure and
// completion-draining logic.
type LoopbackLender struct {
	mu        sync.Mutex
	socket    int
	maxShared int
	pending   []pendingCopy
	completed int
	priv      any
	dropCB    func(mbuf any)
}

type pendingCopy struct {
	dst, src uintptr
	length   int
	mbuf     any
}

// Request opens a lender on socket with capacity for nbDesc in-flight
// descriptors. maxShared is recorded but not enforced.
func (f *LoopbackFabric) Request(nbDesc, maxShared, socket int, priv any, dropCB func(mbuf any)) (LenderHandle, error) {
	return &LoopbackLender{socket: socket, maxShared: maxShared, priv: priv, dropCB: dropCB, pending: make([]pendingCopy, 0, nbDesc)}, nil
}

// Copy enqueues a copy of length bytes from srcIOVA to dstIOVA, refusing
// when the destination range straddles a huge-page boundary (the PA-IOVA
// scatter/gather guard of §9) or when the lender's queue is already full.
func (l *LoopbackLender) Copy(dstIOVA, srcIOVA uintptr, length int) (DMAOpHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if StraddlesPageBoundary(dstIOVA, length) {
		return nil, fmt.Errorf("%w: dst=%#x len=%d", errPageStraddle, dstIOVA, length)
	}
	if len(l.pending) >= cap(l.pending) {
		return nil, errLenderFull
	}

	op := pendingCopy{dst: dstIOVA, src: srcIOVA, length: length}
	l.pending = append(l.pending, op)
	return &l.pending[len(l.pending)-1], nil
}

// BorrowMbuf tags an mbuf as owned by the lender so it is released on
// completion instead of by the caller.
func (l *LoopbackLender) BorrowMbuf(mbuf any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) > 0 {
		l.pending[len(l.pending)-1].mbuf = mbuf
	}
}

// Submit is a no-op in the loopback lender: Copy has already queued the
// descriptor and there is no engine to start. A real DMA engine would ring
// the doorbell here.
func (l *LoopbackLender) Submit() error { return nil }

// Completed reports up to max newly-finished copies, draining them from
// the pending queue and invoking dropCB for any borrowed mbuf.
func (l *LoopbackLender) Completed(max int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.pending)
	if n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		if l.pending[i].mbuf != nil && l.dropCB != nil {
			l.dropCB(l.pending[i].mbuf)
		}
	}
	l.pending = append(l.pending[:0], l.pending[n:]...)
	l.completed += n
	return n, nil
}

func (l *LoopbackLender) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending) == 0
}

func (l *LoopbackLender) Full() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending) >= cap(l.pending)
}

func (l *LoopbackLender) Socket() int { return l.socket }

// The methods below make *LoopbackFabric itself satisfy DMALender, whose
// contract (per §6) takes the lender handle as an explicit argument rather
// than as a receiver; they type-assert back to the concrete
// *LoopbackLender and delegate.

func (f *LoopbackFabric) asLender(h LenderHandle) (*LoopbackLender, error) {
	l, ok := h.(*LoopbackLender)
	if !ok {
		return nil, errUnknownDMAHandle
	}
	return l, nil
}

func (f *LoopbackFabric) Copy(lender LenderHandle, dstIOVA, srcIOVA uintptr, length int) (DMAOpHandle, error) {
	l, err := f.asLender(lender)
	if err != nil {
		return nil, err
	}
	return l.Copy(dstIOVA, srcIOVA, length)
}

func (f *LoopbackFabric) BorrowMbuf(lender LenderHandle, mbuf any) {
	if l, err := f.asLender(lender); err == nil {
		l.BorrowMbuf(mbuf)
	}
}

func (f *LoopbackFabric) Submit(lender LenderHandle) error {
	l, err := f.asLender(lender)
	if err != nil {
		return err
	}
	return l.Submit()
}

func (f *LoopbackFabric) Completed(lender LenderHandle, max int) (int, error) {
	l, err := f.asLender(lender)
	if err != nil {
		return 0, err
	}
	return l.Completed(max)
}

func (f *LoopbackFabric) Empty(lender LenderHandle) bool {
	l, err := f.asLender(lender)
	return err == nil && l.Empty()
}

func (f *LoopbackFabric) Full(lender LenderHandle) bool {
	l, err := f.asLender(lender)
	return err != nil || l.Full()
}

// StraddlesPageBoundary reports whether the half-open byte range
// [addr, addr+length) crosses a page boundary, per §9's PA-IOVA
// scatter/gather guard.
func StraddlesPageBoundary(addr uintptr, length int) bool {
	if length <= 0 {
		return false
	}
	start := uint64(addr) / pageSize
	end := uint64(addr+uintptr(length)-1) / pageSize
	return start != end
}
