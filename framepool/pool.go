// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package framepool

import "errors"

// ErrNoFreeFrame is returned by callers that want to distinguish pool
// exhaustion from other NoSlot causes (§7).
var ErrNoFreeFrame = errors.New("frame pool exhausted")

// ExtFrameMeta is passed to QueryExtFrame so the application can bind a
// framebuffer for a specific incoming frame on demand (dynamic-external
// mode of §4.1).
type ExtFrameMeta struct {
	Timestamp uint32
}

// ExtFrame is the application-supplied buffer description returned from
// QueryExtFrame.
type ExtFrame struct {
	VA      uintptr
	IOVA    uintptr
	Size    int64
	Opaque  any
	Scatter []ScatterEntry
}

// QueryExtFrameFunc binds a framebuffer to a frame lazily, at slot
// creation time, instead of up front. Used only in dynamic-external-frame
// mode.
type QueryExtFrameFunc func(meta ExtFrameMeta) (ExtFrame, error)

// Mode selects how the pool obtains its backing buffers.
type Mode int

// Pool backing modes.
const (
	// ModeOwned allocates and owns its own buffers.
	ModeOwned Mode = iota
	// ModeExternal is pre-populated once with application-provided buffers.
	ModeExternal
	// ModeDynamicExternal defers buffer binding to QueryExtFrame, invoked
	// per slot creation.
	ModeDynamicExternal
)

// Pool is a fixed-size ring of frame buffers with reference counts. It
// guarantees structurally — not via locking — that no frame is ever
// referenced by two slots simultaneously: Acquire only ever returns a
// buffer whose refcount was at zero.
type Pool struct {
	mode          Mode
	buffers       []*Buffer
	cursor        int
	queryExtFrame QueryExtFrameFunc
}

// NewOwnedPool wraps application- or session-allocated buffers that the
// pool itself is considered to own.
func NewOwnedPool(buffers []*Buffer) *Pool {
	return &Pool{mode: ModeOwned, buffers: buffers}
}

// NewExternalPool is identical to NewOwnedPool except it documents that the
// buffers were allocated by the application, not the session; acquire/
// release semantics are the same either way.
func NewExternalPool(buffers []*Buffer) *Pool {
	return &Pool{mode: ModeExternal, buffers: buffers}
}

// NewDynamicExternalPool defers buffer binding to query per slot creation.
// Acquire always fails on a dynamic-external pool; callers must use
// AcquireFor.
func NewDynamicExternalPool(query QueryExtFrameFunc) *Pool {
	return &Pool{mode: ModeDynamicExternal, queryExtFrame: query}
}

// Mode reports which binding strategy this pool uses.
func (p *Pool) Mode() Mode {
	return p.mode
}

// Acquire returns the first buffer whose refcount is zero and atomically
// increments it, or (nil, false) if every buffer is currently lent out.
func (p *Pool) Acquire() (*Buffer, bool) {
	if p.mode == ModeDynamicExternal {
		return nil, false
	}

	n := len(p.buffers)
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		buf := p.buffers[idx]
		if buf.refcount.CompareAndSwap(0, 1) {
			p.cursor = (idx + 1) % n

			return buf, true
		}
	}

	return nil, false
}

// AcquireFor resolves a buffer for a dynamic-external pool by invoking
// QueryExtFrame, and wraps the result in a freshly refcounted Buffer.
func (p *Pool) AcquireFor(meta ExtFrameMeta) (*Buffer, error) {
	if p.mode != ModeDynamicExternal {
		return nil, errNotDynamicExternal
	}

	ext, err := p.queryExtFrame(meta)
	if err != nil {
		return nil, err
	}

	buf := &Buffer{VA: ext.VA, IOVA: ext.IOVA, Size: ext.Size, Scatter: ext.Scatter}
	buf.refcount.Store(1)

	return buf, nil
}

// Retain increments the refcount of a buffer already lent out, used when
// handing a frame to the application while the pool itself still considers
// it "in flight" for DMA drains.
func (p *Pool) Retain(buf *Buffer) {
	buf.refcount.Add(1)
}

// Release decrements the refcount, returning the buffer to the pool once it
// reaches zero. Returns the post-decrement count.
func (p *Pool) Release(buf *Buffer) int32 {
	return buf.refcount.Add(-1)
}

var errNotDynamicExternal = errors.New("AcquireFor called on a non-dynamic-external pool")
