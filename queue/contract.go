// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package queue declares the two contracts §6 consumes from the host NIC/
// DMA stack — the receive-queue contract and the DMA-lender contract —
// and ships a loopback implementation of both for tests, since neither
// has a real NIC or IOMMU underneath it
// in this library.
package queue

import "net"

// Flow identifies the 5-tuple (minus source port) and NIC features a
// receive queue should be opened for, per §6's receive-queue contract.
type Flow struct {
	SrcIP   net.IP
	DstIP   net.IP
	DstPort uint16

	HdrSplit    bool
	UseCNIQueue bool

	// HdrSplitCallback is invoked by the queue implementation once per
	// packet when HdrSplit is set, handing back the pre-mapped payload
	// slot address the NIC wrote the payload into.
	HdrSplitCallback func(payloadSlot uintptr, ok bool)
}

// Packet is one received frame handed back by Burst: the RTP header and
// payload bytes plus, for header-split queues, the NIC-chosen payload
// address.
type Packet struct {
	Data        []byte
	PayloadAddr uintptr // set only when the queue was opened with HdrSplit
	ArrivalNS   int64   // monotonic arrival timestamp, nanoseconds
}

// Handle identifies one open receive queue.
type Handle interface {
	// Port is the NIC port index this handle was opened on.
	Port() int
}

// ReceiveQueue is the §6 "Receive-queue contract" consumed by the manager's
// pkt_rx tasklet: `get(port, flow) -> queue_handle`, `burst(queue, buf[],
// n) -> m`, `put(queue)`.
type ReceiveQueue interface {
	Get(port int, flow Flow) (Handle, error)
	Burst(h Handle, bufs []Packet) (n int, err error)
	Put(h Handle) error
}

// LenderHandle identifies one DMA lender instance, returned by Request.
type LenderHandle interface {
	Socket() int
}

// DMAOpHandle identifies one in-flight DMA copy, returned by Copy and
// consumed by Completed.
type DMAOpHandle interface{}

// DMALender is the §6 "DMA lender contract" consumed by the frame handler's
// DMA-offload placement path: `request(...) -> lender`, `copy(lender,
// dst_iova, src_iova, len) -> handle`, `borrow_mbuf(lender, mbuf)`,
// `submit(lender)`, `completed(lender, max) -> k`, `empty(lender) ->
// bool`, `full(lender) -> bool`.
type DMALender interface {
	Request(nbDesc, maxShared, socket int, priv any, dropCB func(mbuf any)) (LenderHandle, error)
	Copy(lender LenderHandle, dstIOVA, srcIOVA uintptr, length int) (DMAOpHandle, error)
	BorrowMbuf(lender LenderHandle, mbuf any)
	Submit(lender LenderHandle) error
	Completed(lender LenderHandle, max int) (int, error)
	Empty(lender LenderHandle) bool
	Full(lender LenderHandle) bool
}
