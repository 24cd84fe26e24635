// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"

	"cloudeng.io/logging/ctxlog"
	"github.com/cosnicolaou/dstchange/config"
	"github.com/cosnicolaou/dstchange/store"
	"github.com/cosnicolaou/dstchange/transitions"
)

type ResolveFlags struct {
	ConfigFileFlags
	LogFileFlags
	Reference string `subcmd:"reference,,reference time in RFC3339 format (defaults to now)"`
	TSV       bool   `subcmd:"tsv,false,print the transitions in tab separated values"`
}

type SaveFlags struct {
	ConfigFileFlags
	LogFileFlags
	Reference string `subcmd:"reference,,reference time in RFC3339 format (defaults to now)"`
	Database  string `subcmd:"database,,sqlite database to store the transitions in (overrides the configuration file)"`
	Table     string `subcmd:"table,,table to store the transitions in (overrides the configuration file)"`
	DryRun    bool   `subcmd:"dry-run,false,write the records to be stored to stdout as json lines"`
}

type Resolve struct {
	out  io.Writer
	opts []transitions.Option
}

type resolved struct {
	ctx     context.Context
	cfg     config.Config
	batch   transitions.Batch
	cleanup func()
}

// run resolves the requested zones, the returned context carries the
// logger used for the run.
func (r *Resolve) run(ctx context.Context, fv *ConfigFileFlags, logFile, reference string, args []string) (resolved, error) {
	res := resolved{ctx: ctx, cleanup: func() {}}
	cfg, err := loadConfig(ctx, fv, args)
	if err != nil {
		return res, err
	}
	zones, err := zonesFor(cfg, args)
	if err != nil {
		return res, err
	}
	ctx, cleanup, err := setupLogging(ctx, logFile)
	if err != nil {
		return res, err
	}
	res.ctx, res.cfg, res.cleanup = ctx, cfg, cleanup
	opts := append([]transitions.Option{transitions.WithLogger(ctxlog.Logger(ctx))}, r.opts...)
	resolver := transitions.NewResolver(opts...)
	ref, err := parseReference(reference, resolver.Now())
	if err != nil {
		return res, err
	}
	res.batch = resolver.ResolveAll(ctx, zones, ref)
	return res, nil
}

// Resolve displays the transitions for every zone. Zones that cannot
// be resolved are displayed along with the reason and do not cause the
// command to fail.
func (r *Resolve) Resolve(ctx context.Context, flags any, args []string) error {
	fv := flags.(*ResolveFlags)
	res, err := r.run(ctx, &fv.ConfigFileFlags, fv.LogFile, fv.Reference, args)
	defer res.cleanup()
	if err != nil {
		return err
	}
	tm := tableManager{display: res.cfg.Display()}
	tw := tm.Batch(res.batch)
	if fv.TSV {
		fmt.Fprintln(r.out, tw.RenderTSV())
		return nil
	}
	fmt.Fprintln(r.out, tw.Render())
	return nil
}

func (r *Resolve) openStore(ctx context.Context, fv *SaveFlags, cfg config.Config) (store.Store, func(), error) {
	if fv.DryRun {
		return store.NewWriter(r.out), func() {}, nil
	}
	db, table := cfg.Store.Database, cfg.Store.Table
	if len(fv.Database) > 0 {
		db = fv.Database
	}
	if len(fv.Table) > 0 {
		table = fv.Table
	}
	if len(db) == 0 {
		return nil, func() {}, fmt.Errorf("no database specified or configured")
	}
	st, err := store.OpenSQLite(ctx, db, table)
	if err != nil {
		return nil, func() {}, err
	}
	return st, func() { st.Close() }, nil
}

// Save stores the transitions for every zone that can be resolved. It
// fails if any record could not be stored.
func (r *Resolve) Save(ctx context.Context, flags any, args []string) error {
	fv := flags.(*SaveFlags)
	res, err := r.run(ctx, &fv.ConfigFileFlags, fv.LogFile, fv.Reference, args)
	defer res.cleanup()
	if err != nil {
		return err
	}
	ctx = res.ctx
	st, closer, err := r.openStore(ctx, fv, res.cfg)
	if err != nil {
		return err
	}
	defer closer()
	for _, o := range res.batch.Failed() {
		ctxlog.Info(ctx, "not saved", "zone", o.Zone, "reason", reasonFor(o.Err))
	}
	return store.SaveAll(ctx, st, res.batch, ctxlog.Logger(ctx))
}
