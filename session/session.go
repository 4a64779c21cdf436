// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

// Package session implements §3's session data model and §4.2's slot
// selection/recycling, §4.8's attach/detach/state-machine, and the glue
// that wires a session's packet handler, EBU compliance analyzer, and RTCP
// NACK engines together around one or two port pipelines.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/prankurgit/Media-Transport-Library/detect"
	"github.com/prankurgit/Media-Transport-Library/ebu"
	"github.com/prankurgit/Media-Transport-Library/framepool"
	"github.com/prankurgit/Media-Transport-Library/handler"
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/queue"
	"github.com/prankurgit/Media-Transport-Library/rtcpfb"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/slot"

	"github.com/pion/rtcp"
)

// Session is one attached receive pipeline: a geometry, a frame pool, K
// reassembly slots selected by RTP timestamp, one packet handler, an EBU
// compliance analyzer, and up to two RTCP NACK engines (one per port).
//
// Two mutexes guard disjoint state, per the two-writer discipline of §5:
// slotMu guards slot selection/recycling (read by the hot HandlePacket
// path, possibly from a packet co-thread); handlerMu guards the handler
// pointer, which only ever changes once, at detect resolution. geometry
// and pool are assigned by provision at that same point without holding
// handlerMu. A handler's SlotByTimestamp callback only ever needs slotMu,
// never handlerMu, so the two never nest.
type Session struct {
	cfg Config

	handlerMu     sync.RWMutex
	geometry      pixelfmt.Geometry
	pool          *framepool.Pool
	activeHandler handler.Handler
	detectHandler *handler.DetectHandler

	slotMu  sync.Mutex
	slots   []*slot.Slot
	nextIdx int

	analyzerMu sync.Mutex
	analyzer   *ebu.Analyzer
	ebuPktIdx  int
	ebuHaveTS  bool
	ebuLastTS  uint32

	rtcpEngines []*rtcpfb.Engine

	stateMu       sync.Mutex
	state         State
	detectPending bool
}

// NewSession builds a session from cfg without attaching it. The frame
// pool and slots are allocated immediately unless Mode is ModeDetect, in
// which case they are deferred until the detector resolves a format.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{cfg: cfg}

	if cfg.Mode != ModeDetect {
		geometry, err := pixelfmt.NewGeometry(cfg.Width, cfg.Height, cfg.Interlaced, cfg.PixelGroup, cfg.UserLineSize)
		if err != nil {
			return nil, err
		}
		if err := s.provision(geometry); err != nil {
			return nil, err
		}
	}

	profile, err := s.buildProfile(cfg.FrameRateHz, s.estimatedPktsPerFrame())
	if err != nil {
		return nil, err
	}
	s.analyzer = ebu.NewAnalyzer(profile)

	if cfg.RTCPEnabled {
		s.rtcpEngines = make([]*rtcpfb.Engine, len(cfg.Sources))
		for i, src := range cfg.Sources {
			engine, err := rtcpfb.NewEngine(cfg.rtcpEngineConfig(src.SSRC))
			if err != nil {
				return nil, err
			}
			s.rtcpEngines[i] = engine
		}
	}

	s.handlerMu.Lock()
	s.activeHandler = s.buildHandler(cfg.Mode)
	s.handlerMu.Unlock()

	return s, nil
}

// provision allocates the frame pool and K reassembly slots for geometry,
// per §3 and §4.2.
func (s *Session) provision(geometry pixelfmt.Geometry) error {
	buffers := make([]*framepool.Buffer, s.cfg.FramebufferCount)
	for i := range buffers {
		buffers[i] = &framepool.Buffer{Size: geometry.FrameSize, Data: make([]byte, geometry.FrameSize)}
	}
	pool := framepool.NewOwnedPool(buffers)

	slots := make([]*slot.Slot, s.cfg.slotCount())
	bitmapBits := int(geometry.FrameBitmapBytes * 8)
	for i := range slots {
		slots[i] = slot.NewSlot(bitmapBits)
	}

	s.geometry = geometry
	s.pool = pool

	s.slotMu.Lock()
	s.slots = slots
	s.nextIdx = 0
	s.slotMu.Unlock()

	return nil
}

func (s *Session) estimatedPktsPerFrame() int {
	if s.cfg.MaxBytesPerPkt <= 0 || s.geometry.FrameSize == 0 {
		return 1
	}
	n := int((s.geometry.FrameSize + int64(s.cfg.MaxBytesPerPkt) - 1) / int64(s.cfg.MaxBytesPerPkt))
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Session) buildProfile(frameHz float64, pktsPerFrame int) (ebu.Profile, error) {
	if frameHz <= 0 {
		frameHz = 1
	}
	opts := s.cfg.EBUProfileOpts
	if s.cfg.Mode == ModeJPEGXS {
		opts = append([]ebu.ProfileOption{ebu.WithDrainFactor(jpegXSDrainFactor)}, opts...)
	}
	return ebu.NewProfile(frameHz, pktsPerFrame, opts...)
}

// jpegXSDrainFactor is the default constant-bit-rate JPEG XS drain ratio
// used when the caller supplies no explicit WithDrainFactor override.
const jpegXSDrainFactor = 0.5

// buildHandler constructs the §4.3 packet handler for mode, wrapped in the
// §9 loss simulator when the session is configured for one. detectHandler
// assignment happens inside buildBaseHandler so ModeDetect's direct-access
// field always points at the unwrapped handler.
func (s *Session) buildHandler(mode Mode) handler.Handler {
	base := s.buildBaseHandler(mode)
	if s.cfg.LossSimulator.Enabled() {
		return handler.NewLossSimulator(base, s.cfg.LossSimulator)
	}

	return base
}

// buildBaseHandler constructs the §4.3 packet handler for mode. Geometry/
// pool must already be provisioned for every mode except ModeDetect.
func (s *Session) buildBaseHandler(mode Mode) handler.Handler {
	switch mode {
	case ModeFrame:
		return handler.NewFrameHandler(s.frameHandlerConfig())
	case ModeSlice:
		return handler.NewSliceHandler(handler.SliceHandlerConfig{
			Frame:     s.frameHandlerConfig(),
			Notify:    s.cfg.Notify,
			SliceSize: s.cfg.SliceSize,
		})
	case ModeJPEGXS:
		return handler.NewJPEGXSHandler(handler.JPEGXSHandlerConfig{
			PayloadType: s.cfg.PayloadType,
			Lookup:      s,
		})
	case ModeHeaderSplit:
		return handler.NewHeaderSplitHandler(handler.HeaderSplitHandlerConfig{
			Geometry:    s.geometry,
			PayloadType: s.cfg.PayloadType,
			Lookup:      s,
			BPMSize:     s.cfg.BPMSize,
			NextSlot:    s.cfg.NextSlot,
			FrameBase:   s.headerSplitFrameBase,
		})
	case ModePassthrough:
		return handler.NewPassthroughHandler(handler.PassthroughHandlerConfig{
			Ring:   s.cfg.PassthroughRing,
			Notify: s.cfg.Notify,
		})
	case ModeDetect:
		s.detectHandler = handler.NewDetectHandler(handler.DetectHandlerConfig{
			PayloadType: s.cfg.PayloadType,
			Notify:      &detectNotifier{sess: s, inner: s.cfg.Notify},
		})
		return s.detectHandler
	default:
		return handler.NoopHandler{}
	}
}

func (s *Session) frameHandlerConfig() handler.FrameHandlerConfig {
	var dma handler.DMALender
	if s.cfg.DMA != nil {
		dma = &dmaAdapter{lender: s.cfg.DMA, handle: s.cfg.DMALenderHandle}
	}
	return handler.FrameHandlerConfig{
		Geometry:          s.geometry,
		PayloadType:       s.cfg.PayloadType,
		Lookup:            s,
		DMA:               dma,
		DMAMinBytes:       s.cfg.DMAMinBytes,
		UserFrameSize:     s.cfg.UserFrameSize,
		UserFrameCallback: s.cfg.UserFrameCallback,
		MaxBytesPerPkt:    s.cfg.MaxBytesPerPkt,
	}
}

// headerSplitFrameBase resolves the current single slot's buffer address
// for HeaderSplitHandler's placement-verification check. Header-split mode
// is single-port/single-slot, per the handler's own documented constraint.
func (s *Session) headerSplitFrameBase() uintptr {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	if len(s.slots) == 0 || s.slots[0].Buffer == nil {
		return 0
	}
	return s.slots[0].Buffer.VA
}

// SlotByTimestamp implements handler.SlotLookup, resolving and (when
// necessary) recycling a slot for ts, per §4.2.
func (s *Session) SlotByTimestamp(ts uint32, dmaInFlight bool) (*slot.Slot, bool, bool) {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	for _, sl := range s.slots {
		if sl.Disposition() != slot.DispositionIdle && sl.Timestamp == ts {
			return sl, true, false
		}
	}

	victim := s.slots[s.nextIdx]
	if victim.Disposition() == slot.DispositionCapturing && dmaInFlight {
		return nil, false, true
	}

	s.flushLocked(victim)

	buf, ok := s.pool.Acquire()
	if !ok {
		return nil, false, true
	}

	victim.Reset(ts, s.geometry.FrameSize, 0)
	victim.AssignBuffer(buf)
	s.nextIdx = (s.nextIdx + 1) % len(s.slots)

	return victim, true, false
}

// flushLocked closes and notifies on an in-flight slot before it is
// recycled or the session is detached. Caller must hold slotMu.
func (s *Session) flushLocked(sl *slot.Slot) {
	if sl.Disposition() != slot.DispositionCapturing {
		return
	}

	dmaEmpty := true
	if s.cfg.DMA != nil && s.cfg.DMALenderHandle != nil {
		dmaEmpty = s.cfg.DMA.Empty(s.cfg.DMALenderHandle)
	}

	disposition := sl.Close(dmaEmpty, len(s.cfg.Sources) > 1)
	buf := sl.FrameBuffer()
	if buf == nil {
		return
	}

	if s.cfg.Notify != nil {
		s.cfg.Notify.NotifyFrameReady(handler.FrameEvent{
			Buffer:       buf,
			Disposition:  disposition,
			UserMetaSize: len(buf.UserMeta),
			MissingPkts:  sl.MissingPacketEstimate(),
		})
	}

	if s.pool != nil {
		s.pool.Release(buf)
	}
}

// HandlePacket dispatches one received packet to the session's active
// handler, then feeds the EBU analyzer and (when enabled) the source's
// RTCP NACK engine. sourceIdx selects which of Config.Sources the packet
// arrived on.
func (s *Session) HandlePacket(
	sourceIdx int, hdr rtpwire.Header, payload []byte, ctrlThread bool, arrival time.Time,
) handler.Result {
	s.handlerMu.RLock()
	h := s.activeHandler
	s.handlerMu.RUnlock()

	result := h.HandlePacket(hdr, payload, ctrlThread)

	if win := s.observeEBU(hdr, arrival); win != nil && s.cfg.Notify != nil {
		s.cfg.Notify.NotifyEvent("ebu_window", win)
	}

	if s.cfg.RTCPEnabled && sourceIdx >= 0 && sourceIdx < len(s.rtcpEngines) && s.rtcpEngines[sourceIdx] != nil {
		s.rtcpEngines[sourceIdx].RecordReceived(hdr.SequenceNumber)
	}

	return result
}

// observeEBU tracks packet index within the current RTP timestamp as an
// approximation of §4.4's pkt_idx: a new RTP timestamp starts a new frame
// (pkt_idx 0), every subsequent packet at that timestamp increments it.
// This does not require reparsing the mode-specific packet header a second
// time, at the cost of not distinguishing a handler-level drop from a
// genuinely absent packet in the index sequence.
func (s *Session) observeEBU(hdr rtpwire.Header, arrival time.Time) *ebu.WindowResult {
	s.analyzerMu.Lock()
	defer s.analyzerMu.Unlock()

	if !s.ebuHaveTS || hdr.Timestamp != s.ebuLastTS {
		s.ebuPktIdx = 0
		s.ebuLastTS = hdr.Timestamp
		s.ebuHaveTS = true
	}

	t := float64(arrival.UnixNano()) / 1e9
	win := s.analyzer.ObservePacket(t, s.ebuPktIdx, hdr.Timestamp)
	s.ebuPktIdx++

	return win
}

// CapturingSlotFraction reports the share of the session's slots currently
// mid-frame (DispositionCapturing), a cheap proxy for per-session load a
// manager's control tasklet can fold into its CPU busy score.
func (s *Session) CapturingSlotFraction() float64 {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	if len(s.slots) == 0 {
		return 0
	}
	capturing := 0
	for _, sl := range s.slots {
		if sl.Disposition() == slot.DispositionCapturing {
			capturing++
		}
	}
	return float64(capturing) / float64(len(s.slots))
}

// DMABinding exposes the session's configured DMA lender and handle so a
// manager's pkt_rx tasklet can submit and drain completions on its behalf;
// both are nil when the session does not use DMA offload.
func (s *Session) DMABinding() (queue.DMALender, queue.LenderHandle) {
	return s.cfg.DMA, s.cfg.DMALenderHandle
}

// RTCPTick drives one source's NACK engine, per §4.6's periodic emission
// check. Callers (the manager's control tasklet) invoke this on a timer
// and hand a non-nil result to a NackTemplate.Build call.
func (s *Session) RTCPTick(sourceIdx int, now time.Time) (*rtcp.TransportLayerNack, bool) {
	if sourceIdx < 0 || sourceIdx >= len(s.rtcpEngines) || s.rtcpEngines[sourceIdx] == nil {
		return nil, false
	}
	return s.rtcpEngines[sourceIdx].Tick(now)
}

// Attach transitions the session from created to attached, per §4.8. A
// ModeDetect session enters attached with detection pending rather than
// running; Session.onDetected transitions it to running once the detector
// resolves.
func (s *Session) Attach() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.state != StateCreated {
		return errAttachWrongState
	}

	s.state = StateAttached
	if s.cfg.Mode == ModeDetect {
		s.detectPending = true
	} else {
		s.state = StateRunning
	}

	return nil
}

// Detach flushes every in-flight slot and transitions to detached, per
// §4.8. A detached session never accepts HandlePacket calls again.
func (s *Session) Detach() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.state == StateDetached {
		return errDetachWrongState
	}

	s.slotMu.Lock()
	for _, sl := range s.slots {
		s.flushLocked(sl)
	}
	s.slotMu.Unlock()

	s.state = StateDetached

	return nil
}

// State reports the session's current life-cycle state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// UpdateSource replaces one of the session's port sources in place, per
// §4.8's update_source operation.
func (s *Session) UpdateSource(sourceIdx int, src Source) error {
	s.stateMu.Lock()
	state := s.state
	s.stateMu.Unlock()

	if state == StateDetached {
		return errUpdateSourceDetached
	}
	if sourceIdx < 0 || sourceIdx >= len(s.cfg.Sources) {
		return fmt.Errorf("%w: index %d", errInvalidPortCount, sourceIdx)
	}

	s.cfg.Sources[sourceIdx] = src

	return nil
}

// onDetected resolves a successful auto-detect result into a concrete
// geometry, frame pool, slots, and target handler, per §4.3.6: the session
// transitions from "attached, detection pending" to running.
func (s *Session) onDetected(result detect.Result) {
	geometry, err := pixelfmt.NewGeometry(result.Width, result.Height, result.Interlaced, s.cfg.PixelGroup, s.cfg.UserLineSize)
	if err != nil {
		if s.cfg.Notify != nil {
			s.cfg.Notify.NotifyEvent("detect_geometry_error", err)
		}
		return
	}
	if err := s.provision(geometry); err != nil {
		if s.cfg.Notify != nil {
			s.cfg.Notify.NotifyEvent("detect_provision_error", err)
		}
		return
	}

	frameHz := result.FrameRate
	if frameHz <= 0 {
		frameHz = s.cfg.FrameRateHz
	}
	profile, err := s.buildProfile(frameHz, s.estimatedPktsPerFrame())
	if err == nil {
		s.analyzerMu.Lock()
		s.analyzer = ebu.NewAnalyzer(profile)
		s.ebuHaveTS = false
		s.analyzerMu.Unlock()
	}

	target := s.cfg.DetectionTarget

	s.handlerMu.Lock()
	s.activeHandler = s.buildHandler(target)
	s.handlerMu.Unlock()

	s.stateMu.Lock()
	s.state = StateRunning
	s.detectPending = false
	s.stateMu.Unlock()
}

// dmaAdapter narrows the consumed queue.DMALender contract (which takes an
// explicit lender handle, per §6) to the single-lender-scoped shape
// handler.FrameHandler expects. There is no source IOVA in the software
// placement path this adapts from, so Copy always offloads from address 0;
// the loopback lender's bookkeeping never dereferences it.
type dmaAdapter struct {
	lender queue.DMALender
	handle queue.LenderHandle
}

func (a *dmaAdapter) Full() bool {
	return a.lender.Full(a.handle)
}

func (a *dmaAdapter) Copy(dstIOVA uintptr, length int) (any, error) {
	return a.lender.Copy(a.handle, dstIOVA, 0, length)
}

// detectNotifier intercepts NotifyDetected to drive the session's own
// geometry/handler transition before forwarding the application's
// accept/veto decision, per §4.3.6's "&reply" out-parameter semantics.
type detectNotifier struct {
	sess  *Session
	inner handler.Notifier
}

func (n *detectNotifier) NotifyFrameReady(evt handler.FrameEvent) { n.inner.NotifyFrameReady(evt) }
func (n *detectNotifier) NotifySliceReady(evt handler.SliceEvent) { n.inner.NotifySliceReady(evt) }
func (n *detectNotifier) NotifyRTPReady(pkt rtpwire.Packet)       { n.inner.NotifyRTPReady(pkt) }
func (n *detectNotifier) NotifyEvent(eventID string, data any)    { n.inner.NotifyEvent(eventID, data) }

func (n *detectNotifier) NotifyDetected(result detect.Result) bool {
	accept := n.inner.NotifyDetected(result)
	if accept {
		n.sess.onDetected(result)
	}
	return accept
}
