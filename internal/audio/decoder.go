// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned by OpenFile for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder yields interleaved samples in [-1, 1].
type Decoder interface {
	io.Closer
	// Read fills dst with whole frames and returns the number of frames
	// written. It returns io.EOF once the stream is exhausted.
	Read(dst []float64) (frames int, err error)
	SampleRate() int
	Channels() int
}

// OpenFile picks a decoder by file extension.
func OpenFile(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var dec Decoder
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		dec, err = newWAVDecoder(f)
	case ".mp3":
		dec, err = newMP3Decoder(f)
	case ".flac":
		dec, err = newFLACDecoder(f)
	case ".ogg", ".oga":
		dec, err = newOGGDecoder(f)
	default:
		err = fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return dec, nil
}

// blockReader adapts a format that decodes in blocks of arbitrary length to
// the frame-oriented Read.
type blockReader struct {
	file       *os.File
	sampleRate int
	channels   int
	pending    []float64
	next       func() ([]float64, error)
	err        error
}

func (b *blockReader) SampleRate() int { return b.sampleRate }
func (b *blockReader) Channels() int   { return b.channels }
func (b *blockReader) Close() error    { return b.file.Close() }

func (b *blockReader) Read(dst []float64) (int, error) {
	want := len(dst) / b.channels * b.channels
	n := 0
	for n < want {
		if len(b.pending) == 0 {
			if b.err != nil {
				break
			}
			b.pending, b.err = b.next()
			if len(b.pending) == 0 && b.err == nil {
				b.err = io.EOF
			}
			continue
		}
		c := copy(dst[n:want], b.pending)
		b.pending = b.pending[c:]
		n += c
	}

	frames := n / b.channels
	if frames == 0 && b.err != nil {
		if errors.Is(b.err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, b.err
	}
	return frames, nil
}

func newWAVDecoder(f *os.File) (Decoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels < 1 || depth < 8 {
		return nil, fmt.Errorf("unsupported WAV layout: %d channels, %d bits", channels, depth)
	}
	scale := 1 / float64(int64(1)<<(depth-1))
	buf := &audio.IntBuffer{Data: make([]int, 4096*channels)}
	out := make([]float64, len(buf.Data))

	r := &blockReader{file: f, sampleRate: int(dec.SampleRate), channels: channels}
	r.next = func() ([]float64, error) {
		n, err := dec.PCMBuffer(buf)
		if n == 0 {
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		for i, v := range buf.Data[:n] {
			if depth == 8 {
				// 8-bit PCM is unsigned.
				v -= 128
			}
			out[i] = float64(v) * scale
		}
		return out[:n], err
	}
	return r, nil
}

func newMP3Decoder(f *os.File) (Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	raw := make([]byte, 8192)
	out := make([]float64, len(raw)/2)
	r := &blockReader{file: f, sampleRate: dec.SampleRate(), channels: 2}
	r.next = func() ([]float64, error) {
		n, err := io.ReadFull(dec, raw)
		n -= n % 4
		for i := 0; i < n/2; i++ {
			out[i] = float64(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
		}
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return out[:n/2], err
	}
	return r, nil
}

func newFLACDecoder(f *os.File) (Decoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	scale := 1 / float64(int64(1)<<(info.BitsPerSample-1))
	var out []float64

	r := &blockReader{file: f, sampleRate: int(info.SampleRate), channels: channels}
	r.next = func() ([]float64, error) {
		frame, err := stream.ParseNext()
		if err != nil {
			return nil, err
		}
		n := int(frame.Subframes[0].NSamples)
		out = out[:0]
		for i := range n {
			for ch := range channels {
				out = append(out, float64(frame.Subframes[ch].Samples[i])*scale)
			}
		}
		return out, nil
	}
	return r, nil
}

func newOGGDecoder(f *os.File) (Decoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	samples := make([]float32, 4096*channels)
	out := make([]float64, len(samples))

	r := &blockReader{file: f, sampleRate: reader.SampleRate(), channels: channels}
	r.next = func() ([]float64, error) {
		n, err := reader.Read(samples)
		for i, s := range samples[:n] {
			out[i] = max(-1, min(1, float64(s)))
		}
		return out[:n], err
	}
	return r, nil
}
