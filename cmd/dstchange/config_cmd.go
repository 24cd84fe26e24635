// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cosnicolaou/dstchange/config"
	"github.com/cosnicolaou/dstchange/store"
	"github.com/cosnicolaou/dstchange/transitions"
)

type ConfigFlags struct {
	ConfigFileFlags
}

type Config struct {
	out io.Writer
	now func() time.Time
}

func (c *Config) Display(ctx context.Context, flags any, _ []string) error {
	fv := flags.(*ConfigFlags)
	cfg, err := config.ParseConfigFile(ctx, fv.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %q: %w", fv.ConfigFile, err)
	}
	fmt.Fprintf(c.out, "Configuration:\n%v\n", marshalYAML("  ", cfg))

	table := cfg.Store.Table
	if len(table) == 0 {
		table = store.DefaultTable
	}
	if len(cfg.Store.Database) > 0 {
		fmt.Fprintf(c.out, "\nStore: %v (table %v)\n\n", cfg.Store.Database, table)
	} else {
		fmt.Fprintf(c.out, "\nStore: not configured\n\n")
	}

	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	tm := tableManager{display: cfg.Display()}
	fmt.Fprintln(c.out, tm.Zones(cfg.Zones, transitions.LocationResolver{}, now).Render())
	return nil
}
