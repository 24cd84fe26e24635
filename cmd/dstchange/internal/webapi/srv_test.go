// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package webapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"cloudeng.io/datetime"
	"github.com/cosnicolaou/dstchange/cmd/dstchange/internal/webapi"
	"github.com/cosnicolaou/dstchange/internal/logging"
	"github.com/cosnicolaou/dstchange/internal/testutil"
	"github.com/cosnicolaou/dstchange/store"
	"github.com/cosnicolaou/dstchange/transitions"
)

func newServer(t *testing.T, zones []string, st store.Store) (*httptest.Server, *logging.StatusRecorder) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	sr := logging.NewStatusRecorder()
	resolver := transitions.NewResolver(
		transitions.WithLogger(logger),
		transitions.WithStatusRecorder(sr),
		transitions.WithTimeSource(testutil.FixedTimeSource(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))))
	mux := http.NewServeMux()
	webapi.NewDSTChanges(logger, resolver, zones, st).AppendEndpoints(ctx, mux)
	webapi.NewStatusServer(logger, sr).AppendEndpoints(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, sr
}

func getJSON(t *testing.T, method, url string, v any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode
}

func TestDSTChanges(t *testing.T) {
	out := &bytes.Buffer{}
	srv, _ := newServer(t, []string{"Europe/Paris", "toto en vacances", "Africa/Abidjan"}, store.NewWriter(out))

	var resp webapi.DSTChangesResponse
	if got, want := getJSON(t, http.MethodPost, srv.URL+"/api/dst-changes", &resp), http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := resp.Reference, "2024-01-15T00:00:00Z"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := len(resp.Records), 1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := resp.Records[0], (transitions.Record{
		ZoneName:        "Europe/Paris",
		NextDSTChange:   "2024-03-31 01:59:00 CET",
		SecondDSTChange: "2024-10-27 02:59:00 CEST",
	}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := len(resp.Failures), 2; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := resp.Failures[0], "toto en vacances"; got.Zone != want || got.Reason != "unknown zone" {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := resp.Failures[1].Reason, "no dst observed"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if !resp.Saved {
		t.Errorf("records were not saved: %v", resp.SaveError)
	}
	if got, want := out.String(), `"timezone_name":"Europe/Paris"`; !strings.Contains(got, want) {
		t.Errorf("got %v, want it to contain %v", got, want)
	}
}

func TestDSTChangesParameters(t *testing.T) {
	srv, _ := newServer(t, nil, nil)

	var resp webapi.DSTChangesResponse
	url := srv.URL + "/api/dst-changes?zone=America/New_York&ref=2024-05-01T00:00:00Z"
	if got, want := getJSON(t, http.MethodGet, url, &resp), http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := len(resp.Records), 1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := resp.Records[0].NextDSTChange, "2024-11-03 01:59:00 EDT"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if resp.Saved {
		t.Errorf("nothing should have been saved")
	}

	for i, tc := range []struct {
		method, url string
		code        int
	}{
		{http.MethodGet, "/api/dst-changes", http.StatusBadRequest},
		{http.MethodGet, "/api/dst-changes?zone=UTC&ref=yesterday", http.StatusBadRequest},
		{http.MethodDelete, "/api/dst-changes?zone=UTC", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/status?num=x", http.StatusBadRequest},
	} {
		if got, want := getJSON(t, tc.method, srv.URL+tc.url, nil), tc.code; got != want {
			t.Errorf("%v: got %v, want %v", i, got, want)
		}
	}
}

func TestDSTChangesCanceled(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	resolver := transitions.NewResolver(transitions.WithLogger(logger))
	out := &bytes.Buffer{}
	srv := webapi.NewDSTChanges(logger, resolver, []string{"Europe/Paris"}, store.NewWriter(out))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequestWithContext(ctx, http.MethodGet, "/api/dst-changes?ref=2024-01-15T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	srv.ServeDSTChanges(context.Background(), rec, req)

	if got, want := rec.Code, http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	var resp webapi.DSTChangesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if got, want := len(resp.Records), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := len(resp.Failures), 1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := resp.Failures[0].Error, context.Canceled.Error(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := out.Len(), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStatus(t *testing.T) {
	srv, _ := newServer(t, []string{"Europe/Paris", "Africa/Abidjan", "Europe/Berlin"}, nil)
	var changes webapi.DSTChangesResponse
	if got, want := getJSON(t, http.MethodGet, srv.URL+"/api/dst-changes", &changes), http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}

	var status webapi.StatusResponse
	if got, want := getJSON(t, http.MethodGet, srv.URL+"/api/status", &status), http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := len(status.Pending), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := len(status.Completed), 3; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	counts := map[string]int{}
	for _, c := range status.Completed {
		counts[c.Status]++
		if got, want := c.Run, changes.RunID; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
		if got, want := c.Date, datetime.NewCalendarDate(2024, 1, 15).String(); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if got, want := counts["resolved"], 2; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := counts["failed"], 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	if got, want := getJSON(t, http.MethodGet, srv.URL+"/api/status?num=1&order=recent", &status), http.StatusOK; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := len(status.Completed), 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
