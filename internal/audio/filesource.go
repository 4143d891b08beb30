// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"spectrum/internal/analysis"
	applog "spectrum/internal/log"
)

// FramePublisher receives every frame a source produces.
type FramePublisher interface {
	Publish(frame analysis.Frame)
}

// PublisherFunc adapts a function to FramePublisher.
type PublisherFunc func(analysis.Frame)

func (f PublisherFunc) Publish(frame analysis.Frame) { f(frame) }

// FileSource drives an analysis engine from a decoded file, one render tick
// per chunk of sampleRate/refreshRate frames.
type FileSource struct {
	dec    Decoder
	engine *analysis.Engine
	chunk  []float64
	tick   time.Duration
	seq    uint32
	frames int64
}

// NewFileSource builds an engine for the decoder's format.
func NewFileSource(dec Decoder, cfg analysis.Config, refreshRate int) (*FileSource, error) {
	if refreshRate <= 0 {
		return nil, fmt.Errorf("refresh rate must be positive, got %d", refreshRate)
	}
	engine, err := analysis.NewEngine(cfg, dec.SampleRate(), dec.Channels())
	if err != nil {
		return nil, err
	}
	frames := max(1, dec.SampleRate()/refreshRate)
	return &FileSource{
		dec:    dec,
		engine: engine,
		chunk:  make([]float64, frames*dec.Channels()),
		tick:   time.Second / time.Duration(refreshRate),
	}, nil
}

func (s *FileSource) Engine() *analysis.Engine { return s.engine }

// Position returns the number of frames consumed so far.
func (s *FileSource) Position() time.Duration {
	return time.Duration(float64(s.frames) / float64(s.dec.SampleRate()) * float64(time.Second))
}

// Next analyzes one chunk and returns the resulting frame. A short final
// chunk is analyzed as-is; io.EOF follows it.
func (s *FileSource) Next() (analysis.Frame, error) {
	n, err := s.dec.Read(s.chunk)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return analysis.Frame{}, err
	}
	s.frames += int64(n)
	s.engine.Process(s.chunk[:n*s.dec.Channels()], analysis.AllChannels)
	s.engine.Tick(false)
	s.seq++
	return s.engine.Snapshot(s.seq), nil
}

// Run publishes a frame per chunk until the file ends or ctx is cancelled.
// With realtime set, frames are paced at the refresh rate. It returns the
// number of frames published.
func (s *FileSource) Run(ctx context.Context, pub FramePublisher, realtime bool) (int, error) {
	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(s.tick)
		defer ticker.Stop()
	}

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		frame, err := s.Next()
		if errors.Is(err, io.EOF) {
			applog.Debugf("FileSource: End of stream after %d frames (%s)", count, s.Position())
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("decoding: %w", err)
		}
		pub.Publish(frame)
		count++

		if ticker != nil {
			select {
			case <-ctx.Done():
				return count, ctx.Err()
			case <-ticker.C:
			}
		}
	}
}
