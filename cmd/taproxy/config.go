// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bassosimone/nettap"
	"github.com/spf13/viper"
)

// Config is the taproxy configuration.
type Config struct {
	// Listen is the TCP endpoint accepting downstream connections.
	Listen string `mapstructure:"listen" yaml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Output selects where traces go.
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Tap configures which connections are tapped and how.
	Tap TapConfig `mapstructure:"tap" yaml:"tap"`

	// Upstream is the IP:port endpoint to relay to.
	Upstream string `mapstructure:"upstream" yaml:"upstream"`
}

// TapConfig configures the tap policy.
type TapConfig struct {
	MaxBufferedRxBytes uint32 `mapstructure:"max_buffered_rx_bytes" yaml:"max_buffered_rx_bytes"`
	MaxBufferedTxBytes uint32 `mapstructure:"max_buffered_tx_bytes" yaml:"max_buffered_tx_bytes"`

	// Rules are expr-lang boolean expressions. A connection is tapped
	// when any rule matches. No rules means tap everything.
	Rules []string `mapstructure:"rules" yaml:"rules"`

	Streaming bool `mapstructure:"streaming" yaml:"streaming"`
}

// OutputConfig configures the trace sink.
//
// When PerTapPrefix is set each tap gets its own file. Otherwise traces
// are appended to File.Filename, rotated, or written to stdout.
type OutputConfig struct {
	File         FileConfig `mapstructure:"file" yaml:"file"`
	Format       string     `mapstructure:"format" yaml:"format"`
	PerTapPrefix string     `mapstructure:"per_tap_prefix" yaml:"per_tap_prefix"`
}

// FileConfig configures the rotated trace file.
type FileConfig struct {
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
}

// newViper returns a viper instance reading TAPROXY_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TAPROXY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	applyDefaults(v)
	return v
}

// applyDefaults registers every key so that environment overrides
// are visible to Unmarshal.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("output.file.compress", false)
	v.SetDefault("output.file.filename", "")
	v.SetDefault("output.file.max_age", 28)
	v.SetDefault("output.file.max_backups", 3)
	v.SetDefault("output.file.max_size", 100)
	v.SetDefault("output.format", string(nettap.FormatJSON))
	v.SetDefault("output.per_tap_prefix", "")
	v.SetDefault("tap.max_buffered_rx_bytes", nettap.DefaultMaxBufferedBytes)
	v.SetDefault("tap.max_buffered_tx_bytes", nettap.DefaultMaxBufferedBytes)
	v.SetDefault("tap.rules", []string{})
	v.SetDefault("tap.streaming", false)
	v.SetDefault("upstream", "")
}

// loadConfig reads the config file at path, if not empty, and decodes
// the result of merging it with defaults, environment and bound flags.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		fileExt := filepath.Ext(path)
		v.SetConfigName(strings.TrimSuffix(filepath.Base(path), fileExt))
		v.SetConfigType(strings.TrimPrefix(fileExt, "."))
		v.AddConfigPath(filepath.Dir(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// parseLevel converts the configured log level to a [slog.Level].
func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return 0, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}
