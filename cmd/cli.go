// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"spectrum/internal/analysis"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/pkg/build"
)

// options carries the flag values shared by every command.
type options struct {
	configPath string
	verbose    bool
	logLevel   string

	// Analysis overrides, applied only when set.
	visualization string
	transform     string
	window        string
	peakMode      string
	bands         int
	fftSize       int
	refreshRate   int

	cfg *config.Config
}

// Execute builds the command tree and runs it with args.
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio spectrum and level analysis",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.Flags())
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "",
		"Path to a YAML configuration file (default: ./config.yaml if present)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")
	pf.StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn, error")

	pf.StringVar(&opts.visualization, "visualization", "",
		"Visualization: spectrum, peak-meter, level-meter, oscilloscope")
	pf.StringVarP(&opts.transform, "transform", "t", "",
		"Spectral transform: fft, cqt, swift, analog")
	pf.StringVar(&opts.window, "window", "",
		"FFT window function, e.g. hann, blackman, kaiser")
	pf.StringVar(&opts.peakMode, "peak-mode", "",
		"Peak indicator: none, classic, gravity, aimp, fade-out, fading-aimp")
	pf.IntVarP(&opts.bands, "bands", "n", 0,
		"Number of frequency bands")
	pf.IntVar(&opts.fftSize, "fft-size", 0,
		"FFT length in samples")
	pf.IntVar(&opts.refreshRate, "refresh-rate", 0,
		"Frames rendered per second")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newBandsCmd(opts),
		newDevicesCmd(opts),
		newListenCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

// load reads the configuration file and applies the persistent flags.
func (o *options) load(flags *pflag.FlagSet) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.verbose || cfg.Debug {
		level = "debug"
	}
	lvl, ok := applog.ParseLevel(level)
	if !ok {
		return fmt.Errorf("invalid log level: '%s'", level)
	}
	applog.SetLevel(lvl)

	if err := o.applyAnalysisFlags(flags, &cfg.Analysis); err != nil {
		return err
	}
	if flags.Changed("refresh-rate") {
		cfg.Audio.RefreshRate = o.refreshRate
	}
	cfg.Clamp()
	o.cfg = cfg
	applog.Debugf("CLI: Loaded configuration (%s, %s, %d bands)",
		cfg.Analysis.Visualization, cfg.Analysis.Transform, cfg.Analysis.NumBands)
	return nil
}

func (o *options) applyAnalysisFlags(flags *pflag.FlagSet, a *analysis.Config) error {
	text := []struct {
		name  string
		value string
		dst   interface{ UnmarshalText([]byte) error }
	}{
		{"visualization", o.visualization, &a.Visualization},
		{"transform", o.transform, &a.Transform},
		{"window", o.window, &a.Window},
		{"peak-mode", o.peakMode, &a.PeakMode},
	}
	for _, f := range text {
		if !flags.Changed(f.name) {
			continue
		}
		if err := f.dst.UnmarshalText([]byte(f.value)); err != nil {
			return fmt.Errorf("--%s: %w", f.name, err)
		}
	}
	if flags.Changed("bands") {
		a.NumBands = o.bands
	}
	if flags.Changed("fft-size") {
		a.FFTSize = o.fftSize
	}
	return nil
}
