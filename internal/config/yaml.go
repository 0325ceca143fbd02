// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// File is the on-disk application configuration. The settings block feeds
// the pipeline's configuration surface; the rest covers concerns that sit
// outside the live reconfiguration path.
type File struct {
	Settings Settings `yaml:"settings"`

	// Capture device selection. Empty name means auto-resolve a loopback
	// source.
	Device struct {
		Name string `yaml:"name,omitempty"`
	} `yaml:"device"`

	// Recording of raw captured audio to a WAV file.
	Recording struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path,omitempty"`
	} `yaml:"recording"`

	// Transport exposes the latest spectral frame over WebSocket when a
	// listen address is set.
	Transport struct {
		Listen string `yaml:"listen,omitempty"`
	} `yaml:"transport"`
}

// Load reads configuration from a YAML file. If path is empty it checks
// "spectro.yaml" in the working directory; if no file is found the
// built-in defaults are used. Environment overrides apply after the file,
// and the result is validated before being returned.
func Load(path string) (*File, error) {
	cfg := File{Settings: DefaultSettings()}

	if path == "" {
		if _, err := os.Stat("spectro.yaml"); err == nil {
			path = "spectro.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (cfg *File) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPECTRO_VERBOSE"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Settings.Verbose = bVal
		}
	}
	if val, ok := os.LookupEnv("SPECTRO_SAMPLE_RATE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Settings.SampleRate = iVal
		}
	}
	if val, ok := os.LookupEnv("SPECTRO_TRANSFORM_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Settings.TransformSize = iVal
		}
	}
	if val, ok := os.LookupEnv("SPECTRO_LISTEN"); ok {
		cfg.Transport.Listen = val
	}
}
