// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/cosnicolaou/dstchange/config"
	"gopkg.in/yaml.v3"
)

type ConfigFileFlags struct {
	ConfigFile string `subcmd:"config,$HOME/.dstchange.yaml,path to a file containing the zones to resolve and where to store them"`
}

type LogFileFlags struct {
	LogFile string `subcmd:"log-file,,log file (stderr is used if not specified)"`
}

// loadConfig reads the configuration file. The file is optional when
// zones are specified on the command line.
func loadConfig(ctx context.Context, fv *ConfigFileFlags, args []string) (config.Config, error) {
	if len(fv.ConfigFile) == 0 {
		return config.Config{}, nil
	}
	if _, err := os.Stat(fv.ConfigFile); err != nil && len(args) > 0 {
		return config.Config{}, nil
	}
	cfg, err := config.ParseConfigFile(ctx, fv.ConfigFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to parse config file: %q: %w", fv.ConfigFile, err)
	}
	return cfg, nil
}

// zonesFor returns the zones named on the command line, or if none,
// those in the configuration file.
func zonesFor(cfg config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(cfg.Zones) == 0 {
		return nil, fmt.Errorf("no zones specified or configured")
	}
	return cfg.Zones, nil
}

// parseReference parses an RFC3339 reference time, an empty value is now.
func parseReference(ref string, now time.Time) (time.Time, error) {
	if len(ref) == 0 {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, ref)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference time: %q: %w", ref, err)
	}
	return t, nil
}

func newLogfile(name string) (*os.File, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}

// setupLogging returns a context with a JSON logger that writes to
// logfile, or stderr.
func setupLogging(ctx context.Context, logfile string) (context.Context, func(), error) {
	var w io.Writer = os.Stderr
	cleanup := func() {}
	if len(logfile) > 0 {
		f, err := newLogfile(logfile)
		if err != nil {
			return ctx, cleanup, err
		}
		w = f
		cleanup = func() { f.Close() }
	}
	return ctxlog.NewJSONLogger(ctx, w, nil), cleanup, nil
}

func marshalYAML(indent string, v any) string {
	p, _ := yaml.Marshal(v)
	lines := strings.Split(strings.TrimSuffix(string(p), "\n"), "\n")
	indented := make([]string, len(lines))
	for i, line := range lines {
		indented[i] = indent + line
	}
	return strings.Join(indented, "\n")
}
