// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"io"
	"sync"

	"spectrum/internal/analysis"
	applog "spectrum/internal/log"
)

// LoggingTransport summarizes each frame at debug level.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	frame, ok := data.(analysis.Frame)
	if !ok {
		applog.Debugf("Transport: Received %T", data)
		return nil
	}
	switch {
	case len(frame.Bands) > 0:
		peak, at := 0.0, 0.0
		for _, b := range frame.Bands {
			if b.CurValue > peak {
				peak, at = b.CurValue, b.Center
			}
		}
		applog.Debugf("Transport: Frame %d: %d bands, loudest %.3f at %.1f Hz", frame.Seq, len(frame.Bands), peak, at)
	case len(frame.Gauges) > 0:
		applog.Debugf("Transport: Frame %d: %d gauges, %s peak %.1f dB", frame.Seq, len(frame.Gauges), frame.Gauges[0].Name, frame.Gauges[0].Peak)
	default:
		applog.Debugf("Transport: Frame %d: %s", frame.Seq, frame.Visualization)
	}
	return nil
}

func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: LoggingTransport closed")
	return nil
}

// JSONLinesTransport writes one JSON document per frame, for piping the
// offline analysis into other tools.
type JSONLinesTransport struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesTransport(w io.Writer) *JSONLinesTransport {
	return &JSONLinesTransport{enc: json.NewEncoder(w)}
}

func (t *JSONLinesTransport) Send(data any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enc.Encode(data)
}

func (t *JSONLinesTransport) Close() error { return nil }

var (
	_ Transport = (*LoggingTransport)(nil)
	_ Transport = (*JSONLinesTransport)(nil)
)
