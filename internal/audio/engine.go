// SPDX-License-Identifier: MIT
/*
Package audio hosts the analysis engine on live and file input:
  - PortAudio capture into a bounded, mutex-guarded pending queue
  - a render loop that drains the queue at the refresh rate
  - a noise gate that silences sub-threshold buffers
  - WAV recording of the captured input
  - file decoding for offline analysis

The PortAudio callback never touches analysis state; only the goroutine
running Run does, so the analysis engine itself needs no locks.
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"spectrum/internal/analysis"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
)

// pendingSeconds bounds how much captured audio may wait for the render
// loop before the oldest frames are dropped.
const pendingSeconds = 1

type Engine struct {
	config     *config.Config
	channels   int
	sampleRate float64

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	running      atomic.Bool

	// Captured samples waiting for the render loop.
	mu         sync.Mutex
	pending    []float64
	maxPending int
	dropped    atomic.Uint64

	// Noise gate, guarded by mu.
	gateEnabled   bool
	gateThreshold float64 // linear amplitude in [0, 1]

	// Owned by the Run goroutine.
	analysis *analysis.Engine
	drained  []float64
	seq      uint32
	publish  FramePublisher
	reconfig chan analysis.Config

	// Recording state and buffers. recMu serializes the callback's writes
	// with start and stop.
	recMu       sync.Mutex
	isRecording int32
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer
	bitDepth    int
}

// NewEngine resolves the configured input device and prepares an analysis
// engine for its format. Frames are handed to pub.
func NewEngine(cfg *config.Config, pub FramePublisher) (*Engine, error) {
	device, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	e, err := newEngine(cfg, pub)
	if err != nil {
		return nil, err
	}
	e.inputDevice = device
	if cfg.Audio.LowLatency {
		e.inputLatency = device.DefaultLowInputLatency
	} else {
		e.inputLatency = device.DefaultHighInputLatency
	}
	applog.Infof("Audio: Using input device '%s' (%d ch @ %.0f Hz)", device.Name, e.channels, e.sampleRate)
	return e, nil
}

func newEngine(cfg *config.Config, pub FramePublisher) (*Engine, error) {
	channels := cfg.Audio.InputChannels
	sampleRate := cfg.Audio.SampleRate
	ae, err := analysis.NewEngine(cfg.Analysis, int(sampleRate), channels)
	if err != nil {
		return nil, fmt.Errorf("creating analysis engine: %w", err)
	}
	maxPending := int(sampleRate) * pendingSeconds * channels
	e := &Engine{
		config:     cfg,
		channels:   channels,
		sampleRate: sampleRate,
		pending:    make([]float64, 0, maxPending),
		maxPending: maxPending,
		analysis:   ae,
		drained:    make([]float64, 0, maxPending),
		publish:    pub,
		reconfig:   make(chan analysis.Config, 1),
	}
	e.SetGateThreshold(cfg.Audio.GateThreshold)
	if cfg.Audio.GateEnabled {
		e.EnableGate()
	} else {
		e.DisableGate()
	}
	return e, nil
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting input stream: %w", err)
	}
	e.inputStream = stream
	e.running.Store(true)
	if e.GateEnabled() {
		applog.Infof("Audio: Noise gate enabled at %.4f", e.GetGateThreshold())
	}
	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}
	e.running.Store(false)
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	return nil
}

// processInputStream is the PortAudio callback. It records, gates and
// queues the buffer; analysis happens on the render loop.
func (e *Engine) processInputStream(in []float32) {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		e.writeRecording(in)
	}
	e.enqueue(in)
}

// enqueue appends a buffer to the pending queue, dropping the oldest whole
// frames when the queue is full.
func (e *Engine) enqueue(in []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	gated := e.gateEnabled && peakAmplitude(in) <= e.gateThreshold

	if len(in) > e.maxPending {
		in = in[len(in)-e.maxPending:]
	}
	if over := len(e.pending) + len(in) - e.maxPending; over > 0 {
		over = min(len(e.pending), (over+e.channels-1)/e.channels*e.channels)
		n := copy(e.pending, e.pending[over:])
		e.pending = e.pending[:n]
		e.dropped.Add(uint64(over / e.channels))
	}
	for _, v := range in {
		if gated {
			v = 0
		}
		e.pending = append(e.pending, float64(v))
	}
}

// drain moves every pending sample into the render loop's buffer.
func (e *Engine) drain() []float64 {
	e.mu.Lock()
	e.drained = append(e.drained[:0], e.pending...)
	e.pending = e.pending[:0]
	e.mu.Unlock()
	return e.drained
}

// Dropped returns the number of frames discarded because the render loop
// fell behind.
func (e *Engine) Dropped() uint64 { return e.dropped.Load() }

// Reconfigure queues new analysis settings for the render loop. A pending
// update that has not been applied yet is replaced.
func (e *Engine) Reconfigure(cfg analysis.Config) {
	for {
		select {
		case e.reconfig <- cfg:
			return
		default:
		}
		select {
		case <-e.reconfig:
		default:
		}
	}
}

// Run drives the render loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	rate := max(config.MinRefreshRate, e.config.Audio.RefreshRate)
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	applog.Debugf("Audio: Render loop started at %d Hz", rate)
	for {
		select {
		case <-ctx.Done():
			applog.Debugf("Audio: Render loop stopped (%d frames dropped)", e.Dropped())
			return nil
		case cfg := <-e.reconfig:
			if err := e.analysis.Reconfigure(cfg); err != nil {
				applog.Errorf("Audio: Reconfigure failed: %v", err)
			}
		case <-ticker.C:
			e.step()
		}
	}
}

// step runs one render tick: analyze whatever arrived, animate and publish.
func (e *Engine) step() {
	if samples := e.drain(); len(samples) > 0 {
		e.analysis.Process(samples, analysis.AllChannels)
	}
	e.analysis.Tick(!e.running.Load())
	e.seq++
	if e.publish != nil {
		e.publish.Publish(e.analysis.Snapshot(e.seq))
	}
}

func (e *Engine) Close() error {
	var errs []error
	if atomic.LoadInt32(&e.isRecording) == 1 {
		errs = append(errs, e.StopRecording())
	}
	errs = append(errs, e.StopInputStream())
	return errors.Join(errs...)
}

func peakAmplitude(in []float32) float64 {
	var peak float32
	for _, v := range in {
		peak = max(peak, v, -v)
	}
	return float64(peak)
}

func clampUnit(v float64) float64 {
	return max(0, min(1, v))
}
