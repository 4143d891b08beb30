// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"spectrum/internal/analysis"
	"spectrum/internal/audio"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
	"spectrum/internal/transport/udp"
	"spectrum/internal/tui"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var (
		output   string
		realtime bool
	)
	c := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze an audio file and write one JSON frame per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			sink := transport.NewFrameSink(transport.NewJSONLinesTransport(w))
			if opts.verbose {
				sink.Add(transport.NewLoggingTransport())
			}
			defer sink.Close()

			n, err := runFile(cmd.Context(), opts.cfg, args[0], sink, realtime)
			if err != nil {
				return err
			}
			applog.Infof("CLI: Wrote %d frames", n)
			return nil
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "",
		"Write frames to this file instead of stdout")
	c.Flags().BoolVar(&realtime, "realtime", false,
		"Pace frames at the refresh rate")
	return c
}

func newBandsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bands",
		Short: "Print the band layout for the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printBands(cmd.OutOrStdout(), opts.cfg.Analysis)
		},
	}
}

func printBands(w io.Writer, cfg analysis.Config) error {
	bands := analysis.GenerateFrequencyBands(cfg)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Low (Hz)", "Center (Hz)", "High (Hz)", "Label")
	for i, b := range bands {
		t.Row(fmt.Sprint(i), fmt.Sprintf("%.2f", b.Lo), fmt.Sprintf("%.2f", b.Center), fmt.Sprintf("%.2f", b.Hi), b.Label)
	}
	_, err := fmt.Fprintf(w, "%s\n%d bands (%s)\n", t.Render(), len(bands), cfg.Distribution)
	return err
}

func newDevicesCmd(opts *options) *cobra.Command {
	var pick bool
	c := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			if !pick {
				return audio.ListDevices(cmd.OutOrStdout())
			}
			sel, err := tui.StartDeviceListUI()
			if err != nil || sel == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "audio:\n  input_device: %d\n  sample_rate: %.0f\n", sel.DeviceID, sel.SampleRate)
			return nil
		},
	}
	c.Flags().BoolVarP(&pick, "pick", "p", false,
		"Choose a device interactively and print the matching config")
	return c
}

// liveFlags binds the capture flags to the audio section of the config.
type liveFlags struct {
	device          int
	sampleRate      float64
	channels        int
	framesPerBuffer int
	lowLatency      bool
	record          bool
	outputDir       string
}

func (l *liveFlags) register(c *cobra.Command) {
	f := c.Flags()
	f.IntVarP(&l.device, "device", "d", config.MinDeviceID,
		"Input device ID. Use the 'devices' command to see available devices.")
	f.Float64VarP(&l.sampleRate, "sample-rate", "s", 0,
		"Sample rate, measured in Hertz (Hz)")
	f.IntVar(&l.channels, "channels", 0,
		"Number of channels to capture (1=mono, 2=stereo)")
	f.IntVarP(&l.framesPerBuffer, "frames-per-buffer", "b", 0,
		"The number of frames per buffer (affects latency)")
	f.BoolVarP(&l.lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")
	f.BoolVarP(&l.record, "record", "r", false,
		"Record the input stream to a WAV file")
	f.StringVarP(&l.outputDir, "output-dir", "o", "",
		"Directory for recordings")
}

func (l *liveFlags) apply(c *cobra.Command, cfg *config.Config) error {
	f := c.Flags()
	if f.Changed("device") {
		cfg.Audio.InputDevice = l.device
	}
	if f.Changed("sample-rate") {
		cfg.Audio.SampleRate = l.sampleRate
	}
	if f.Changed("channels") {
		cfg.Audio.InputChannels = l.channels
	}
	if f.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = l.framesPerBuffer
	}
	if f.Changed("low-latency") {
		cfg.Audio.LowLatency = l.lowLatency
	}
	if f.Changed("record") {
		cfg.Recording.Enabled = l.record
	}
	if f.Changed("output-dir") {
		cfg.Recording.OutputDir = l.outputDir
	}
	return cfg.Validate()
}

func newListenCmd(opts *options) *cobra.Command {
	var (
		live     liveFlags
		headless bool
	)
	c := &cobra.Command{
		Use:   "listen",
		Short: "Analyze the live input in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if err := live.apply(cmd, cfg); err != nil {
				return err
			}

			sink, err := newNetworkSink(cfg.Transport)
			if err != nil {
				return err
			}
			var monitor *transport.ChannelTransport
			if headless {
				sink.Add(transport.NewLoggingTransport())
			} else {
				monitor = transport.NewChannelTransport(4)
				sink.Add(monitor)
			}
			defer sink.Close()

			return runLive(cmd.Context(), cfg, sink, func(ctx context.Context, engine *audio.Engine) error {
				if monitor == nil {
					<-ctx.Done()
					return nil
				}
				return tui.StartMonitorUI(ctx, monitor.Frames(), cfg.Analysis, engine.Reconfigure)
			})
		},
	}
	live.register(c)
	c.Flags().BoolVar(&headless, "headless", false,
		"Log frames instead of drawing the terminal monitor")
	return c
}

func newServeCmd(opts *options) *cobra.Command {
	var (
		live     liveFlags
		wsAddr   string
		udpAddr  string
		interval time.Duration
	)
	c := &cobra.Command{
		Use:   "serve [FILE]",
		Short: "Publish frames over WebSocket and UDP from a file or the live input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			f := cmd.Flags()
			if f.Changed("ws") {
				cfg.Transport.WebSocketEnabled = wsAddr != ""
				cfg.Transport.WebSocketAddress = wsAddr
			}
			if f.Changed("udp") {
				cfg.Transport.UDPEnabled = udpAddr != ""
				cfg.Transport.UDPTargetAddress = udpAddr
			}
			if f.Changed("udp-interval") {
				cfg.Transport.UDPSendInterval = interval
			}
			if err := live.apply(cmd, cfg); err != nil {
				return err
			}
			if !cfg.Transport.WebSocketEnabled && !cfg.Transport.UDPEnabled {
				return errors.New("no transport enabled: use --ws or --udp")
			}

			sink, err := newNetworkSink(cfg.Transport)
			if err != nil {
				return err
			}
			defer sink.Close()

			if len(args) == 1 {
				n, err := runFile(cmd.Context(), cfg, args[0], sink, true)
				if errors.Is(err, context.Canceled) {
					err = nil
				}
				applog.Infof("CLI: Served %d frames", n)
				return err
			}
			return runLive(cmd.Context(), cfg, sink, func(ctx context.Context, _ *audio.Engine) error {
				<-ctx.Done()
				return nil
			})
		},
	}
	live.register(c)
	c.Flags().StringVar(&wsAddr, "ws", "",
		"Serve frames to WebSocket clients on this address, e.g. 127.0.0.1:8080")
	c.Flags().StringVar(&udpAddr, "udp", "",
		"Send frame packets to this UDP address, e.g. 127.0.0.1:9090")
	c.Flags().DurationVar(&interval, "udp-interval", 0,
		"Interval between UDP packets")
	return c
}

// newNetworkSink starts the transports enabled in cfg.
func newNetworkSink(cfg config.TransportConfig) (*transport.FrameSink, error) {
	sink := transport.NewFrameSink()
	if cfg.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(cfg.WebSocketAddress, cfg.WebSocketQueue)
		if err := ws.Start(); err != nil {
			sink.Close()
			return nil, fmt.Errorf("failed to start WebSocket server: %w", err)
		}
		sink.Add(ws)
	}
	if cfg.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.UDPTargetAddress)
		if err != nil {
			sink.Close()
			return nil, err
		}
		pub, err := udp.NewUDPPublisher(cfg.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			sink.Close()
			return nil, err
		}
		pub.Start()
		sink.Add(pub)
	}
	return sink, nil
}

// runFile analyzes path and publishes every frame to pub.
func runFile(ctx context.Context, cfg *config.Config, path string, pub audio.FramePublisher, realtime bool) (int, error) {
	dec, err := audio.OpenFile(path)
	if err != nil {
		return 0, err
	}
	defer dec.Close()
	applog.Infof("CLI: Analyzing '%s' (%d ch @ %d Hz)", audio.ReadMetadata(path), dec.Channels(), dec.SampleRate())

	src, err := audio.NewFileSource(dec, cfg.Analysis, cfg.Audio.RefreshRate)
	if err != nil {
		return 0, err
	}
	return src.Run(ctx, pub, realtime)
}

// runLive captures from the configured device, drives the render loop and
// calls wait until it returns or ctx is cancelled.
func runLive(ctx context.Context, cfg *config.Config, pub audio.FramePublisher, wait func(context.Context, *audio.Engine) error) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	engine, err := audio.NewEngine(cfg, pub)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			applog.Errorf("CLI: Error closing audio engine: %v", err)
		}
	}()

	if err := engine.StartInputStream(); err != nil {
		return err
	}
	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
		name := audio.RecordingName(cfg.Recording.OutputDir, time.Now())
		if err := engine.StartRecording(name); err != nil {
			return err
		}
		applog.Infof("CLI: Recording to %s", name)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()

	err = wait(ctx, engine)
	cancel()
	wg.Wait()
	if dropped := engine.Dropped(); dropped > 0 {
		applog.Warnf("CLI: %d input frames dropped", dropped)
	}
	return err
}
