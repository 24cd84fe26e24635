// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package webapi provides the http endpoints used to trigger the
// resolution and storage of dst transitions and to report on their
// status.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cosnicolaou/dstchange/store"
	"github.com/cosnicolaou/dstchange/transitions"
)

// Failure describes a zone that could not be resolved.
type Failure struct {
	Zone   string `json:"zone"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type DSTChangesResponse struct {
	RunID     string               `json:"run_id"`
	Reference string               `json:"reference"`
	Records   []transitions.Record `json:"records"`
	Failures  []Failure            `json:"failures"`
	Saved     bool                 `json:"saved"`
	SaveError string               `json:"save_error,omitempty"`
}

// DSTChanges serves requests to resolve, and optionally store, the
// transitions for a set of zones.
type DSTChanges struct {
	resolver *transitions.Resolver
	zones    []string
	store    store.Store
	l        *slog.Logger
}

// NewDSTChanges returns a server for the supplied zones, st may be nil
// in which case nothing is stored.
func NewDSTChanges(l *slog.Logger, resolver *transitions.Resolver, zones []string, st store.Store) *DSTChanges {
	return &DSTChanges{
		resolver: resolver,
		zones:    zones,
		store:    st,
		l:        l.With("component", "webapi"),
	}
}

func (s *DSTChanges) httpError(ctx context.Context, w http.ResponseWriter, u *url.URL, msg, err string, statusCode int) {
	s.l.Log(ctx, slog.LevelInfo, msg, "request", u.String(), "code", statusCode, "error", err)
	http.Error(w, err, statusCode)
}

func (s *DSTChanges) serveJSON(ctx context.Context, w http.ResponseWriter, u *url.URL, msg string, result any) {
	s.l.Log(ctx, slog.LevelInfo, msg, "request", u.String(), "code", http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.httpError(ctx, w, u, msg, fmt.Sprintf("failed to encode json response: %v", err), http.StatusInternalServerError)
	}
}

func (s *DSTChanges) decodeParameters(r *http.Request) ([]string, time.Time, error) {
	pars := r.URL.Query()
	zones := pars["zone"]
	if len(zones) == 0 {
		zones = s.zones
	}
	if len(zones) == 0 {
		return nil, time.Time{}, fmt.Errorf("no zones specified or configured")
	}
	ref := s.resolver.Now()
	if rs := pars.Get("ref"); rs != "" {
		t, err := time.Parse(time.RFC3339, rs)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("invalid reference time: %q", rs)
		}
		ref = t
	}
	return zones, ref, nil
}

// ServeDSTChanges resolves, and stores when configured, the requested
// zones. Resolution and storage are abandoned if the request is canceled.
func (s *DSTChanges) ServeDSTChanges(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.httpError(ctx, w, r.URL, "dst-changes", "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	zones, ref, err := s.decodeParameters(r)
	if err != nil {
		s.httpError(ctx, w, r.URL, "dst-changes", err.Error(), http.StatusBadRequest)
		return
	}
	rctx := r.Context()
	batch := s.resolver.ResolveAll(rctx, zones, ref)
	resp := DSTChangesResponse{
		RunID:     batch.RunID,
		Reference: ref.Format(time.RFC3339),
		Records:   batch.Records(),
		Failures:  []Failure{},
	}
	for _, o := range batch.Failed() {
		f := Failure{Zone: o.Zone, Error: o.Err.Error()}
		if reason, ok := transitions.ReasonFor(o.Err); ok {
			f.Reason = reason.String()
		}
		resp.Failures = append(resp.Failures, f)
	}
	if s.store != nil {
		if err := store.SaveAll(rctx, s.store, batch, s.l); err != nil {
			resp.SaveError = err.Error()
		} else {
			resp.Saved = true
		}
	}
	s.serveJSON(ctx, w, r.URL, "dst-changes", resp)
}

func (s *DSTChanges) AppendEndpoints(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/api/dst-changes", func(w http.ResponseWriter, r *http.Request) {
		s.ServeDSTChanges(ctx, w, r)
	})
}
