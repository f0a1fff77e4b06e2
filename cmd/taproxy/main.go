// SPDX-License-Identifier: GPL-3.0-or-later

// Command taproxy is a TCP proxy recording the traffic of the downstream
// connections it relays.
//
// Usage:
//
//	taproxy --upstream 10.0.0.3:80 --listen 127.0.0.1:8080 --streaming
//
// Settings come from flags, TAPROXY_* environment variables (for example
// TAPROXY_TAP_STREAMING=true) and an optional YAML config file, in this
// order of precedence.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand returns the taproxy command tree writing traces to stdout
// and logs to stderr.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	v := newViper()
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "taproxy",
		Short:        "TCP proxy tapping downstream connections",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, stdout, stderr)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file path")
	flags.String("listen", "", "endpoint accepting downstream connections")
	flags.String("upstream", "", "IP:port endpoint to relay to")
	flags.Bool("streaming", false, "emit one trace segment per event")
	flags.String("format", "", "trace format: json or yaml")
	flags.String("per-tap-prefix", "", "write each trace to <prefix>_<id>.<format>")
	flags.String("output-file", "", "append traces to this rotated file")
	flags.String("log-level", "", "one of debug, info, warn, error")

	for key, name := range map[string]string{
		"listen":                "listen",
		"upstream":              "upstream",
		"tap.streaming":         "streaming",
		"output.format":         "format",
		"output.per_tap_prefix": "per-tap-prefix",
		"output.file.filename":  "output-file",
		"log_level":             "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(newConfigCommand(v, &configFile))
	return rootCmd
}

// newConfigCommand returns the command printing the effective configuration.
func newConfigCommand(v *viper.Viper, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, *configFile)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// run serves cfg until ctx is done.
func run(ctx context.Context, cfg *Config, stdout, stderr io.Writer) error {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	srv, err := newServer(cfg, logger, stdout)
	if err != nil {
		return err
	}
	defer srv.Close()

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("cannot listen: %w", err)
	}
	return srv.Serve(ctx, ln)
}
