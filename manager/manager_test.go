// SPDX-FileCopyrightText: 2026 Media Transport Library Authors
// SPDX-License-Identifier: MIT

package manager

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prankurgit/Media-Transport-Library/detect"
	"github.com/prankurgit/Media-Transport-Library/handler"
	"github.com/prankurgit/Media-Transport-Library/pixelfmt"
	"github.com/prankurgit/Media-Transport-Library/queue"
	"github.com/prankurgit/Media-Transport-Library/rtpwire"
	"github.com/prankurgit/Media-Transport-Library/session"
)

type recordingNotifier struct {
	frames chan handler.FrameEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{frames: make(chan handler.FrameEvent, 16)}
}

func (n *recordingNotifier) NotifyFrameReady(evt handler.FrameEvent) { n.frames <- evt }
func (n *recordingNotifier) NotifySliceReady(handler.SliceEvent)     {}
func (n *recordingNotifier) NotifyRTPReady(rtpwire.Packet)           {}
func (n *recordingNotifier) NotifyEvent(string, any)                 {}
func (n *recordingNotifier) NotifyDetected(detect.Result) bool      { return true }

func buildPacket(t *testing.T, seq uint16, ts uint32, row, offset uint16, bodyLen int) queue.Packet {
	t.Helper()

	srd := rtpwire.RFC4175Header{SRD: rtpwire.SampleRowData{Row: row, Offset: offset, Length: uint16(bodyLen)}} // nolint: gosec
	srdBuf, err := srd.Marshal()
	require.NoError(t, err)

	hdr := rtpwire.Header{Version: 2, PayloadType: 96, SequenceNumber: seq, Timestamp: ts}
	hdrBuf, err := hdr.Marshal()
	require.NoError(t, err)

	data := append(hdrBuf, srdBuf...)
	data = append(data, make([]byte, bodyLen)...)

	return queue.Packet{Data: data}
}

func TestManager_AttachDispatchesBurstAndNotifiesOnFlush(t *testing.T) {
	fabric := queue.NewLoopbackFabric()
	m := NewManager(Config{Queue: fabric, PktRxInterval: time.Millisecond})

	notify := newRecordingNotifier()
	g, err := pixelfmt.NewGeometry(1920, 1080, false, pixelfmt.PixelGroupYUV422_10, 0)
	require.NoError(t, err)

	const bodyLen = 1200
	pktsPerLine := g.BytesInLine / bodyLen

	cfg := session.Config{
		PixelGroup:       pixelfmt.PixelGroupYUV422_10,
		Width:            1920,
		Height:           1080,
		FrameRateHz:      50,
		PayloadType:      96,
		FramebufferCount: 3,
		Sources:          []session.Source{{SrcIP: net.ParseIP("192.0.2.1"), DstIP: net.ParseIP("192.0.2.2"), DstPort: 20000}},
		Mode:             session.ModeFrame,
		MaxBytesPerPkt:   bodyLen,
		Notify:           notify,
	}

	id, err := m.Attach(AttachOps{Config: cfg, Ports: []PortBinding{{Port: 0, Flow: queue.Flow{DstPort: 20000}}}})
	require.NoError(t, err)
	assert.Equal(t, 1, m.SessionCount())

	require.NoError(t, m.Start())
	defer m.Stop()

	seq := uint16(0)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < pktsPerLine; col++ {
			offset := col * bodyLen / g.PG.Size * g.PG.Coverage
			require.NoError(t, fabric.Inject(0, buildPacket(t, seq, 1500, uint16(row), uint16(offset), bodyLen))) // nolint: gosec
			seq++
		}
	}
	// One more packet at a new timestamp evicts and flushes the first frame.
	require.NoError(t, fabric.Inject(0, buildPacket(t, seq, 1501, 0, 0, bodyLen)))

	select {
	case evt := <-notify.frames:
		assert.Equal(t, int64(g.FrameSize), evt.Buffer.Size)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame-ready notification")
	}

	require.NoError(t, m.Detach(id))
	assert.Zero(t, m.SessionCount())
	assert.ErrorIs(t, m.Detach(id), errUnknownSession)
}

func TestManager_AttachRejectsPortCountMismatch(t *testing.T) {
	fabric := queue.NewLoopbackFabric()
	m := NewManager(Config{Queue: fabric})

	cfg := session.Config{
		PixelGroup:       pixelfmt.PixelGroupYUV422_10,
		Width:            1920,
		Height:           1080,
		FrameRateHz:      50,
		PayloadType:      96,
		FramebufferCount: 2,
		Sources: []session.Source{
			{DstPort: 20000},
			{DstPort: 20002},
		},
		Mode: session.ModeFrame,
	}

	_, err := m.Attach(AttachOps{Config: cfg, Ports: []PortBinding{{Port: 0, Flow: queue.Flow{DstPort: 20000}}}})
	assert.ErrorIs(t, err, errPortCountMismatch)
}

func TestManager_MigrationCandidatesEmptyWhenIdle(t *testing.T) {
	fabric := queue.NewLoopbackFabric()
	m := NewManager(Config{Queue: fabric})

	cfg := session.Config{
		PixelGroup:       pixelfmt.PixelGroupYUV422_10,
		Width:            1920,
		Height:           1080,
		FrameRateHz:      50,
		PayloadType:      96,
		FramebufferCount: 2,
		Sources:          []session.Source{{DstPort: 20000}},
		Mode:             session.ModeFrame,
		Notify:           newRecordingNotifier(),
	}
	id, err := m.Attach(AttachOps{Config: cfg, Ports: []PortBinding{{Port: 0, Flow: queue.Flow{DstPort: 20000}}}})
	require.NoError(t, err)

	m.controlRound(time.Now())

	cpu, dma, err := m.BusyScores(id)
	require.NoError(t, err)
	assert.Zero(t, cpu)
	assert.Zero(t, dma)
	assert.Empty(t, m.MigrationCandidates(0.5))
}
