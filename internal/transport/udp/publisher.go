// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"spectrum/internal/analysis"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
)

const (
	// HeaderSize is the fixed packet prefix in bytes.
	HeaderSize = 4 + 8 + 1 + 2
	// MaxValues bounds the value count so a packet fits one IPv4 datagram.
	MaxValues = (65507 - HeaderSize) / 8
)

/*
Packet layout (BigEndian)

	+----------+-----------+---------------+---------+----------------+----------------+
	| seq u32  | ts i64    | kind u8       | n u16   | cur f32 × n    | max f32 × n    |
	+----------+-----------+---------------+---------+----------------+----------------+

kind is the frame's visualization. For spectrum frames cur and max are the
band values and their peaks. For meters they are the rendered gauge peak and
held peak. For the oscilloscope cur holds the samples and max is zero.
*/

// Packet is a decoded datagram.
type Packet struct {
	Seq           uint32
	Timestamp     int64
	Visualization analysis.Visualization
	Cur           []float32
	Max           []float32
}

// AppendPacket encodes frame onto dst.
func AppendPacket(dst []byte, frame analysis.Frame) []byte {
	n := frameValues(frame)
	dst = binary.BigEndian.AppendUint32(dst, frame.Seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(frame.Timestamp))
	dst = append(dst, byte(frame.Visualization))
	dst = binary.BigEndian.AppendUint16(dst, uint16(n))

	for i := range n {
		cur, _ := frameValue(frame, i)
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(cur)))
	}
	for i := range n {
		_, peak := frameValue(frame, i)
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(peak)))
	}
	return dst
}

func frameValues(frame analysis.Frame) int {
	var n int
	switch {
	case len(frame.Bands) > 0:
		n = len(frame.Bands)
	case len(frame.Gauges) > 0:
		n = len(frame.Gauges)
	default:
		n = len(frame.Scope)
	}
	return min(n, MaxValues)
}

func frameValue(frame analysis.Frame, i int) (cur, peak float64) {
	switch {
	case len(frame.Bands) > 0:
		return frame.Bands[i].CurValue, frame.Bands[i].MaxValue
	case len(frame.Gauges) > 0:
		return frame.Gauges[i].PeakRender, frame.Gauges[i].MaxPeakRender
	default:
		return frame.Scope[i], 0
	}
}

// Unpack decodes a datagram produced by AppendPacket.
func Unpack(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes", len(b))
	}
	p := Packet{
		Seq:           binary.BigEndian.Uint32(b[0:4]),
		Timestamp:     int64(binary.BigEndian.Uint64(b[4:12])),
		Visualization: analysis.Visualization(b[12]),
	}
	n := int(binary.BigEndian.Uint16(b[13:15]))
	if want := HeaderSize + 8*n; len(b) != want {
		return Packet{}, fmt.Errorf("packet length %d, want %d for %d values", len(b), want, n)
	}
	body := b[HeaderSize:]
	p.Cur = make([]float32, n)
	p.Max = make([]float32, n)
	for i := range n {
		p.Cur[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*i:]))
		p.Max[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*(n+i):]))
	}
	return p, nil
}

// UDPPublisher sends the most recent frame at a fixed interval. Frames
// arriving faster than the interval replace each other.
type UDPPublisher struct {
	sender   *UDPSender
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	frameMu sync.Mutex
	latest  analysis.Frame
	fresh   bool
	sent    uint64

	packet []byte
}

// NewUDPPublisher wraps sender. A non-positive interval defaults to 16ms.
func NewUDPPublisher(interval time.Duration, sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	applog.Infof("UDPPublisher: Initializing (Interval: %s)", interval)
	return &UDPPublisher{
		sender:   sender,
		interval: interval,
		packet:   make([]byte, 0, HeaderSize+8*1024),
	}, nil
}

// Send stores frame as the next one to publish.
func (p *UDPPublisher) Send(data any) error {
	frame, ok := data.(analysis.Frame)
	if !ok {
		return fmt.Errorf("UDPPublisher: unsupported payload %T", data)
	}
	p.frameMu.Lock()
	p.latest = frame
	p.fresh = true
	p.frameMu.Unlock()
	return nil
}

// Sent returns the number of packets delivered to the socket.
func (p *UDPPublisher) Sent() uint64 {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	return p.sent
}

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishLatest()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop ends the publishing goroutine and waits for it.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("UDPPublisher: Publisher goroutine finished.")
	return nil
}

// publishLatest sends the stored frame if it has not been sent yet.
func (p *UDPPublisher) publishLatest() {
	p.frameMu.Lock()
	if !p.fresh {
		p.frameMu.Unlock()
		return
	}
	p.packet = AppendPacket(p.packet[:0], p.latest)
	p.fresh = false
	seq := p.latest.Seq
	p.frameMu.Unlock()

	if err := p.sender.Send(p.packet); err != nil {
		applog.Debugf("UDPPublisher: %v", err)
		return
	}
	p.frameMu.Lock()
	p.sent++
	p.frameMu.Unlock()
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", seq, len(p.packet))
}

// Close stops publishing and closes the sender.
func (p *UDPPublisher) Close() error {
	return errors.Join(p.Stop(), p.sender.Close())
}

var _ transport.Transport = (*UDPPublisher)(nil)
