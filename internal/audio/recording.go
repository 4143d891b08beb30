// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "spectrum/internal/log"
)

// RecordingName returns a timestamped file name inside dir.
func RecordingName(dir string, now time.Time) string {
	return filepath.Join(dir, "recording-"+now.UTC().Format("02-01-2006-150405")+".wav")
}

// StartRecording writes the captured input to a WAV file at the configured
// bit depth.
func (e *Engine) StartRecording(filename string) error {
	e.recMu.Lock()
	defer e.recMu.Unlock()
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return errors.New("already recording")
	}

	depth := e.config.Recording.BitDepth
	switch depth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported recording bit depth %d", depth)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file
	e.bitDepth = depth
	e.wavEncoder = wav.NewEncoder(file, int(e.sampleRate), depth, e.channels, 1)
	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: e.channels,
			SampleRate:  int(e.sampleRate),
		},
		Data:           make([]int, e.config.Audio.FramesPerBuffer*e.channels),
		SourceBitDepth: depth,
	}

	atomic.StoreInt32(&e.isRecording, 1)
	applog.Infof("Audio: Recording to %s (%d-bit)", filename, depth)
	return nil
}

// writeRecording converts one callback buffer to integers and encodes it.
func (e *Engine) writeRecording(in []float32) {
	e.recMu.Lock()
	defer e.recMu.Unlock()
	if e.wavEncoder == nil {
		return
	}
	if cap(e.sampleBuf.Data) < len(in) {
		e.sampleBuf.Data = make([]int, len(in))
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:len(in)]

	full := float64(int64(1)<<(e.bitDepth-1) - 1)
	for i, v := range in {
		e.sampleBuf.Data[i] = int(clampSigned(float64(v)) * full)
	}
	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		applog.Errorf("Audio: Error writing to WAV file: %v", err)
	}
}

func (e *Engine) StopRecording() error {
	e.recMu.Lock()
	defer e.recMu.Unlock()
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}
	atomic.StoreInt32(&e.isRecording, 0)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}
	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}
	return nil
}

func clampSigned(v float64) float64 {
	return max(-1, min(1, v))
}
