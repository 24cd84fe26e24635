// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"cloudeng.io/logging/ctxlog"
	"cloudeng.io/sync/errgroup"
	"github.com/cosnicolaou/dstchange/cmd/dstchange/internal/webapi"
	"github.com/cosnicolaou/dstchange/internal/logging"
	"github.com/cosnicolaou/dstchange/store"
	"github.com/cosnicolaou/dstchange/transitions"
)

type ServeFlags struct {
	ConfigFileFlags
	LogFileFlags
	HTTPAddr string `subcmd:"http-addr,127.0.0.1:8080,http address to listen on"`
	DryRun   bool   `subcmd:"dry-run,false,resolve but do not store transitions"`
}

type Serve struct {
	opts []transitions.Option
	// listening is called with the address the server is listening on.
	listening func(addr string)
}

func (s *Serve) Run(ctx context.Context, flags any, _ []string) error {
	fv := flags.(*ServeFlags)
	cfg, err := loadConfig(ctx, &fv.ConfigFileFlags, nil)
	if err != nil {
		return err
	}
	ctx, cleanup, err := setupLogging(ctx, fv.LogFile)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx = ctxlog.WithAttributes(ctx, "component", "serve")
	logger := ctxlog.Logger(ctx)

	var st store.Store
	if !fv.DryRun && len(cfg.Store.Database) > 0 {
		db, err := store.OpenSQLite(ctx, cfg.Store.Database, cfg.Store.Table)
		if err != nil {
			return err
		}
		defer db.Close()
		st = db
	}

	sr := logging.NewStatusRecorder()
	opts := append([]transitions.Option{
		transitions.WithLogger(logger),
		transitions.WithStatusRecorder(sr),
	}, s.opts...)
	resolver := transitions.NewResolver(opts...)

	mux := http.NewServeMux()
	webapi.NewDSTChanges(logger, resolver, cfg.Zones, st).AppendEndpoints(ctx, mux)
	webapi.NewStatusServer(logger, sr).AppendEndpoints(ctx, mux)

	ln, err := net.Listen("tcp", fv.HTTPAddr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	url := "http://" + ln.Addr().String()
	if s.listening != nil {
		s.listening(ln.Addr().String())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var g errgroup.T
	g.Go(func() error {
		defer cancel()
		ctxlog.Info(ctx, "starting web server", "url", url, "zones", len(cfg.Zones), "store", st != nil)
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		ctxlog.Info(ctx, "stopping web server", "url", url)
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return server.Shutdown(sctx)
	})
	return g.Wait()
}
