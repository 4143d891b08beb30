// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"spectrum/internal/analysis"
	"spectrum/pkg/utils"
)

type recordingTransport struct {
	frames []analysis.Frame
	err    error
	closed bool
}

func (r *recordingTransport) Send(data any) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, data.(analysis.Frame))
	return nil
}

func (r *recordingTransport) Close() error {
	r.closed = true
	return r.err
}

func testFrame(seq uint32) analysis.Frame {
	return analysis.Frame{
		Seq:        seq,
		SampleRate: 44100,
		Bands: []analysis.FrequencyBand{
			{Lo: 20, Center: 30, Hi: 40, CurValue: 0.25, MaxValue: 0.5},
			{Lo: 40, Center: 60, Hi: 80, CurValue: 0.75, MaxValue: 0.75},
		},
		Balance: 0.5,
		Phase:   0.5,
	}
}

func TestFrameSinkFanOut(t *testing.T) {
	good := &recordingTransport{}
	bad := &recordingTransport{err: errors.New("boom")}
	mock := &utils.MockTransport{}
	sink := NewFrameSink(good, mock)
	sink.Add(bad)

	if got := sink.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	for seq := range uint32(3) {
		sink.Publish(testFrame(seq))
	}

	if len(good.frames) != 3 || good.frames[2].Seq != 2 {
		t.Errorf("good transport received %d frames, want 3 in order", len(good.frames))
	}
	if mock.Sent() != 3 || mock.Last.(analysis.Frame).Seq != 2 {
		t.Errorf("mock received %d frames, last %v", mock.Sent(), mock.Last)
	}
	if got := sink.Failures(bad); got != 3 {
		t.Errorf("Failures(bad) = %d, want 3", got)
	}
	if got := sink.Failures(good); got != 0 {
		t.Errorf("Failures(good) = %d, want 0", got)
	}

	err := sink.Close()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Close() error = %v, want the failing transport's error", err)
	}
	if !good.closed || !bad.closed || !mock.Closed {
		t.Error("Close() should close every transport")
	}
	if sink.Len() != 0 {
		t.Error("Close() should release the transports")
	}
}

func TestChannelTransport(t *testing.T) {
	ct := NewChannelTransport(2)
	for seq := range uint32(4) {
		if err := ct.Send(testFrame(seq)); err != nil {
			t.Fatalf("Send(%d) error = %v", seq, err)
		}
	}
	if got := ct.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if err := ct.Send("not a frame"); err == nil {
		t.Error("Send(string) should fail")
	}

	if err := ct.Close(); err != nil {
		t.Fatal(err)
	}
	if err := ct.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := ct.Send(testFrame(9)); err == nil {
		t.Error("Send after Close should fail")
	}

	var seqs []uint32
	for f := range ct.Frames() {
		seqs = append(seqs, f.Seq)
	}
	if len(seqs) != 2 || seqs[0] != 0 || seqs[1] != 1 {
		t.Errorf("received %v, want [0 1]", seqs)
	}
}

func TestJSONLinesTransport(t *testing.T) {
	var buf bytes.Buffer
	jt := NewJSONLinesTransport(&buf)
	for seq := range uint32(2) {
		if err := jt.Send(testFrame(seq)); err != nil {
			t.Fatal(err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if decoded["seq"] != 1.0 || decoded["visualization"] != "spectrum" {
		t.Errorf("decoded = %v", decoded)
	}
	if bands, ok := decoded["bands"].([]any); !ok || len(bands) != 2 {
		t.Errorf("bands = %v, want 2 entries", decoded["bands"])
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	frames := []analysis.Frame{
		testFrame(1),
		{Seq: 2, Visualization: analysis.VisualizationLevelMeter, Gauges: []analysis.GaugeValue{{Name: "L", Peak: -6}}},
		{Seq: 3, Visualization: analysis.VisualizationOscilloscope},
	}
	for _, f := range frames {
		if err := lt.Send(f); err != nil {
			t.Errorf("Send(%d) error = %v", f.Seq, err)
		}
	}
	if err := lt.Send(42); err != nil {
		t.Errorf("Send(int) error = %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Error(err)
	}
}

func TestWebSocketTransport(t *testing.T) {
	wst := NewWebSocketTransport("127.0.0.1:0", 4)
	if err := wst.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer wst.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := wst.Send(testFrame(5)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got analysis.Frame
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.Seq != 5 || len(got.Bands) != 2 || got.Bands[1].CurValue != 0.75 {
		t.Errorf("received %+v", got)
	}
	if got.Visualization != analysis.VisualizationSpectrum {
		t.Errorf("visualization = %v", got.Visualization)
	}

	if err := wst.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := wst.Send(testFrame(6)); err == nil {
		t.Error("Send after Close should fail")
	}
}

func TestWebSocketTransportDropsWhenFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	wst := NewWebSocketTransport("127.0.0.1:0", 2)
	for seq := range uint32(5) {
		if err := wst.Send(testFrame(seq)); err != nil {
			t.Fatal(err)
		}
	}
	if got := wst.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if err := wst.Close(); err != nil {
		t.Error(err)
	}
}

func TestWebSocketTransportBadAddress(t *testing.T) {
	wst := NewWebSocketTransport("256.0.0.1:bad", 1)
	if err := wst.Start(); err == nil {
		wst.Close()
		t.Error("Start() should fail on an invalid address")
	}
}
