// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prankurgit/Media-Transport-Library/detect"
	"github.com/prankurgit/Media-Transport-Library/handler"
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
)

// recordingNotifier mirrors the handler package's test double, reused here
// since session wires a real handler.Notifier end to end.
type recordingNotifier struct {
	frames   []handler.FrameEvent
	events   []string
	detected []detect.Result
	accept   bool
}

func (n *recordingNotifier) NotifyFrameReady(evt handler.FrameEvent) { n.frames = append(n.frames, evt) }
func (n *recordingNotifier) NotifySliceReady(handler.SliceEvent)     {}
func (n *recordingNotifier) NotifyRTPReady(rtpwire.Packet)           {}
func (n *recordingNotifier) NotifyEvent(eventID string, _ any)       { n.events = append(n.events, eventID) }

func (n *recordingNotifier) NotifyDetected(result detect.Result) bool {
	n.detected = append(n.detected, result)
	return n.accept
}

func testConfig(t *testing.T, notify handler.Notifier) Config {
	t.Helper()
	return Config{
		PixelGroup:       pixelfmt.PixelGroupYUV422_10,
		Width:            1920,
		Height:           1080,
		FrameRateHz:      50,
		PayloadType:      96,
		FramebufferCount: 3,
		Sources:          []Source{{SrcIP: net.ParseIP("192.0.2.1"), DstIP: net.ParseIP("192.0.2.2"), DstPort: 20000}},
		Mode:             ModeFrame,
		MaxBytesPerPkt:   1200,
		Notify:           notify,
	}
}

func buildRTP(t *testing.T, extSeq, row, offset uint16, bodyLen int) []byte {
	t.Helper()
	h := rtpwire.RFC4175Header{
		ExtendedSeqNum: extSeq,
		SRD:            rtpwire.SampleRowData{Row: row, Offset: offset, Length: uint16(bodyLen)}, // nolint: gosec
	}
	buf, err := h.Marshal()
	require.NoError(t, err)
	return append(buf, make([]byte, bodyLen)...)
}

func TestNewSession_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, &recordingNotifier{})
	cfg.FramebufferCount = 0
	_, err := NewSession(cfg)
	assert.ErrorIs(t, err, errInvalidFrameCount)
}

func TestSession_AttachTransitionsToRunningOutsideDetect(t *testing.T) {
	s, err := NewSession(testConfig(t, &recordingNotifier{}))
	require.NoError(t, err)

	require.NoError(t, s.Attach())
	assert.Equal(t, StateRunning, s.State())
	assert.ErrorIs(t, s.Attach(), errAttachWrongState)
}

func TestSession_HandlePacketCompletesFrameAndNotifies(t *testing.T) {
	notify := &recordingNotifier{}
	cfg := testConfig(t, notify)
	s, err := NewSession(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Attach())

	g, err := pixelfmt.NewGeometry(cfg.Width, cfg.Height, cfg.Interlaced, cfg.PixelGroup, cfg.UserLineSize)
	require.NoError(t, err)

	const bodyLen = 1200
	pktsPerLine := g.BytesInLine / bodyLen

	seq := uint16(0)
	now := time.Unix(1_700_000_000, 0)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < pktsPerLine; col++ {
			offset := col * bodyLen / g.PG.Size * g.PG.Coverage
			payload := buildRTP(t, 0, uint16(row), uint16(offset), bodyLen) // nolint: gosec
			hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: seq, Timestamp: 1500}
			result := s.HandlePacket(0, hdr, payload, true, now)
			require.True(t, result.Accepted, "row=%d col=%d drop=%v", row, col, result.Drop)
			seq++
			now = now.Add(time.Microsecond)
		}
	}

	// The frame only flushes once the slot is evicted for a new timestamp.
	hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: seq, Timestamp: 1501}
	payload := buildRTP(t, 0, 0, 0, bodyLen)
	result := s.HandlePacket(0, hdr, payload, true, now)
	require.True(t, result.Accepted)

	require.Len(t, notify.frames, 1)
	assert.Equal(t, int64(g.FrameSize), notify.frames[0].Buffer.Size)
}

func TestSession_DetachFlushesInFlightSlot(t *testing.T) {
	notify := &recordingNotifier{}
	s, err := NewSession(testConfig(t, notify))
	require.NoError(t, err)
	require.NoError(t, s.Attach())

	hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: 0, Timestamp: 1500}
	payload := buildRTP(t, 0, 0, 0, 1200)
	result := s.HandlePacket(0, hdr, payload, true, time.Now())
	require.True(t, result.Accepted)

	require.NoError(t, s.Detach())
	require.Len(t, notify.frames, 1)
	assert.Equal(t, StateDetached, s.State())
	assert.ErrorIs(t, s.Detach(), errDetachWrongState)
}

func TestSession_DetectModeResolvesToTargetOnAccept(t *testing.T) {
	notify := &recordingNotifier{accept: true}
	cfg := testConfig(t, notify)
	cfg.Mode = ModeDetect
	cfg.Width = 0
	cfg.Height = 0
	cfg.DetectionTarget = ModeFrame

	s, err := NewSession(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Attach())

	rtpTS := uint32(0)
	for frame := 0; frame < 4; frame++ {
		hdr := rtpwire.Header{PayloadType: 96, SequenceNumber: uint16(frame), Timestamp: rtpTS, Marker: true} // nolint: gosec
		payload := buildRTP(t, 0, 1079, 0, 100)
		s.HandlePacket(0, hdr, payload, true, time.Now())
		rtpTS += 1500
	}

	assert.Equal(t, StateRunning, s.State())
	require.NotEmpty(t, notify.detected)
}

func TestSession_UpdateSourceRejectsOnDetached(t *testing.T) {
	s, err := NewSession(testConfig(t, &recordingNotifier{}))
	require.NoError(t, err)
	require.NoError(t, s.Attach())
	require.NoError(t, s.Detach())

	err = s.UpdateSource(0, Source{DstPort: 30000})
	assert.ErrorIs(t, err, errUpdateSourceDetached)
}
