// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync"

	"spectrum/internal/analysis"
	applog "spectrum/internal/log"
)

// Transport delivers analysis frames somewhere. Implementations must be safe
// for concurrent use and must not block the render loop.
type Transport interface {
	Send(data any) error
	Close() error
}

// FrameSink fans every published frame out to a set of transports.
type FrameSink struct {
	mu         sync.Mutex
	transports []Transport
	failures   map[Transport]int
}

func NewFrameSink(transports ...Transport) *FrameSink {
	return &FrameSink{transports: transports, failures: make(map[Transport]int)}
}

// Add registers another transport.
func (s *FrameSink) Add(t Transport) {
	s.mu.Lock()
	s.transports = append(s.transports, t)
	s.mu.Unlock()
}

// Len returns the number of registered transports.
func (s *FrameSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transports)
}

// Publish sends frame to every transport. Errors are logged on the first
// failure of each transport and counted afterwards.
func (s *FrameSink) Publish(frame analysis.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transports {
		if err := t.Send(frame); err != nil {
			if s.failures[t] == 0 {
				applog.Warnf("Transport: %T send failed: %v", t, err)
			}
			s.failures[t]++
		}
	}
}

// Failures returns how many sends to t have failed.
func (s *FrameSink) Failures(t Transport) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[t]
}

// Close closes every transport and reports all errors.
func (s *FrameSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, t := range s.transports {
		errs = append(errs, t.Close())
	}
	s.transports = nil
	return errors.Join(errs...)
}

// ChannelTransport hands frames to an in-process consumer such as the
// terminal monitor. A full channel drops the frame.
type ChannelTransport struct {
	mu      sync.Mutex
	ch      chan analysis.Frame
	closed  bool
	dropped int
}

func NewChannelTransport(buffer int) *ChannelTransport {
	return &ChannelTransport{ch: make(chan analysis.Frame, buffer)}
}

// Frames returns the receive side. It is closed by Close.
func (c *ChannelTransport) Frames() <-chan analysis.Frame { return c.ch }

func (c *ChannelTransport) Send(data any) error {
	frame, ok := data.(analysis.Frame)
	if !ok {
		return errors.New("channel transport: unsupported payload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel transport: closed")
	}
	select {
	case c.ch <- frame:
	default:
		c.dropped++
	}
	return nil
}

// Dropped returns the number of frames discarded because the consumer fell
// behind.
func (c *ChannelTransport) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *ChannelTransport) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}

var (
	_ Transport = (*ChannelTransport)(nil)
)
