// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"spectro/internal/config"
	"spectro/pkg/build"
)

// Options is the parsed invocation: the loaded configuration plus the
// one-off command, if any.
type Options struct {
	Config *config.File

	// Command is a one-off command ("list") that runs without the
	// pipeline; empty means run the spectrogram pipeline.
	Command string

	// RecordPath is the WAV output file when recording is enabled.
	RecordPath string
}

// ParseArgs parses command line arguments, loads the YAML configuration,
// and applies flag overrides on top of it.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}

	var (
		configPath    string
		sampleRate    int
		transformSize int
		verbose       bool
		record        bool
		outputFile    string
		listen        string
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time loopback audio spectrogram pipeline",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sample-rate") {
				cfg.Settings.SampleRate = sampleRate
			}
			if cmd.Flags().Changed("fft-size") {
				cfg.Settings.TransformSize = transformSize
			}
			if cmd.Flags().Changed("verbose") {
				cfg.Settings.Verbose = verbose
			}
			if cmd.Flags().Changed("record") {
				cfg.Recording.Enabled = record
			}
			if cmd.Flags().Changed("output") {
				cfg.Recording.Path = outputFile
			}
			if cmd.Flags().Changed("listen") {
				cfg.Transport.Listen = listen
			}
			if err := cfg.Settings.Validate(); err != nil {
				return err
			}
			options.Config = cfg
			if cfg.Recording.Enabled {
				options.RecordPath = cfg.Recording.Path
				if options.RecordPath == "" {
					options.RecordPath = "capture-" +
						time.Now().UTC().Format("02-01-2006-150405") + ".wav"
				}
			}
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available capture devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to YAML configuration file")
	rootCmd.PersistentFlags().IntVarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Capture sample rate in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&transformSize, "fft-size", "n", config.DefaultTransformSize,
		"Transform size in points (also the capture block size)")
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record raw captured audio to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "",
		"Recording file name. Default is capture-DD-MM-YYYY-HHMMSS.wav")
	rootCmd.PersistentFlags().StringVarP(&listen, "listen", "l", "",
		"Address for the WebSocket frame server (empty disables it)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", config.DefaultVerbose,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}
