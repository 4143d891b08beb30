// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"spectrum/internal/analysis"
)

// Hardware and host limits. The analysis settings carry their own bounds in
// analysis.Config.Clamp.
const (
	MinDeviceID     = -1 // system default device
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192
	MinRefreshRate  = 20
	MaxRefreshRate  = 200
)

// Config is the application configuration loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  analysis.Config `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds capture settings for the live host.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"` // -1 selects the default input
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	LowLatency      bool    `yaml:"low_latency"`
	InputChannels   int     `yaml:"input_channels"`
	RefreshRate     int     `yaml:"refresh_rate"` // frames rendered per second
	GateEnabled     bool    `yaml:"gate_enabled"`
	GateThreshold   float64 `yaml:"gate_threshold"`
}

// RecordingConfig controls WAV capture of the input stream.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"`
}

// TransportConfig selects where analysis frames are published.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`

	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"`
	WebSocketQueue   int    `yaml:"websocket_queue"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			SampleRate:      44100,
			FramesPerBuffer: 512,
			InputChannels:   2,
			RefreshRate:     60,
			GateThreshold:   0.001,
		},
		Analysis: analysis.DefaultConfig(),
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond,
			WebSocketAddress: "127.0.0.1:8080",
			WebSocketQueue:   16,
		},
	}
}
