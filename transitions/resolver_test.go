// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transitions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/cosnicolaou/dstchange/internal/logging"
	"github.com/cosnicolaou/dstchange/internal/testutil"
	"github.com/cosnicolaou/dstchange/transitions"
)

func TestResolveParis(t *testing.T) {
	r := transitions.NewResolver()
	ref := utc(2024, 1, 15, 0, 0)
	pair, err := r.Resolve("Europe/Paris", ref)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := pair.Zone, "Europe/Paris"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := pair.First.Instant, utc(2024, 3, 31, 0, 59); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := pair.Second.Instant, utc(2024, 10, 27, 0, 59); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !pair.First.Instant.After(ref) || !pair.Second.Instant.After(pair.First.Instant) {
		t.Errorf("transitions out of order: %v, %v, %v", ref, pair.First, pair.Second)
	}

	rec := pair.Record()
	if got, want := rec, (transitions.Record{
		ZoneName:        "Europe/Paris",
		NextDSTChange:   "2024-03-31 01:59:00 CET",
		SecondDSTChange: "2024-10-27 02:59:00 CEST",
	}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	buf, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(buf), `{"timezone_name":"Europe/Paris","next_dst_change":"2024-03-31 01:59:00 CET","second_dst_change":"2024-10-27 02:59:00 CEST"}`; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveUncommonSavings(t *testing.T) {
	r := transitions.NewResolver()
	for i, tc := range []struct {
		zone          string
		first, second time.Time
	}{
		{"Antarctica/Troll", utc(2024, 3, 31, 0, 59), utc(2024, 10, 27, 0, 59)},
		{"Australia/Lord_Howe", utc(2024, 4, 6, 14, 59), utc(2024, 10, 5, 15, 29)},
	} {
		pair, err := r.Resolve(tc.zone, utc(2024, 1, 15, 0, 0))
		if err != nil {
			t.Errorf("%v: %v: %v", i, tc.zone, err)
			continue
		}
		if got, want := pair.First.Instant, tc.first; !got.Equal(want) {
			t.Errorf("%v: %v: got %v, want %v", i, tc.zone, got, want)
		}
		if got, want := pair.Second.Instant, tc.second; !got.Equal(want) {
			t.Errorf("%v: %v: got %v, want %v", i, tc.zone, got, want)
		}
	}
}

func TestResolveNow(t *testing.T) {
	r := transitions.NewResolver(
		transitions.WithTimeSource(testutil.FixedTimeSource(utc(2024, 5, 1, 0, 0))))
	pair, err := r.ResolveNow("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := pair.First.Instant, utc(2024, 11, 3, 5, 59); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := pair.Second.Instant, utc(2025, 3, 9, 6, 59); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveErrors(t *testing.T) {
	r := transitions.NewResolver()
	ref := utc(2024, 1, 15, 0, 0)
	for i, tc := range []struct {
		zone   string
		reason transitions.Reason
		target error
	}{
		{"toto en vacances", transitions.UnknownZone, transitions.ErrUnknownZone},
		{"bernard a la plage", transitions.UnknownZone, transitions.ErrUnknownZone},
		{"", transitions.UnknownZone, transitions.ErrUnknownZone},
		{"Africa/Abidjan", transitions.NoDSTObserved, transitions.ErrNoDSTObserved},
		{"Asia/Calcutta", transitions.NoDSTObserved, transitions.ErrNoDSTObserved},
	} {
		_, err := r.Resolve(tc.zone, ref)
		if err == nil {
			t.Errorf("%v: %q: expected an error", i, tc.zone)
			continue
		}
		if !errors.Is(err, tc.target) {
			t.Errorf("%v: %q: unexpected error: %v", i, tc.zone, err)
		}
		var re *transitions.ResolutionError
		if !errors.As(err, &re) {
			t.Errorf("%v: %q: not a resolution error: %v", i, tc.zone, err)
			continue
		}
		if got, want := re.Reason, tc.reason; got != want {
			t.Errorf("%v: %q: got %v, want %v", i, tc.zone, got, want)
		}
		if got, want := re.Zone, tc.zone; got != want {
			t.Errorf("%v: got %v, want %v", i, got, want)
		}
	}
}

func TestResolveUnknownZoneNoSearch(t *testing.T) {
	paris := testutil.NewCountingZone(loadZone(t, "Europe/Paris"))
	zones := testutil.NewZones(paris)
	r := transitions.NewResolver(transitions.WithZoneResolver(zones))
	_, err := r.Resolve("toto en vacances", utc(2024, 1, 15, 0, 0))
	if !errors.Is(err, transitions.ErrUnknownZone) {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := paris.Calls(), int64(0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := r.Resolve("Europe/Paris", utc(2024, 1, 15, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if got, want := zones.Resolved("Europe/Paris"), int64(1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveSecondSearchFails(t *testing.T) {
	// Daylight saving is adopted permanently, so there is no second
	// transition.
	once := testutil.RuleZone{
		ZoneName: "Test/Once",
		Saving:   time.Hour,
		Periods: []testutil.Period{
			{Start: utc(2024, 3, 31, 1, 0), End: utc(2100, 1, 1, 0, 0)},
		},
	}
	out := &bytes.Buffer{}
	r := transitions.NewResolver(
		transitions.WithZoneResolver(testutil.NewZones(once)),
		transitions.WithLogger(slog.New(slog.NewJSONHandler(out, nil))))

	first, err := transitions.FindNext(once, utc(2024, 1, 15, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := first.Instant, utc(2024, 3, 31, 0, 59); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	pair, err := r.Resolve("Test/Once", utc(2024, 1, 15, 0, 0))
	if !errors.Is(err, transitions.ErrNoDSTObserved) {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := pair, (transitions.TransitionPair{}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := err.Error(), "second transition after 2024-03-31 00:59:00"; !strings.Contains(got, want) {
		t.Errorf("got %v, want it to contain %v", got, want)
	}
	if got, want := out.String(), "second transition not found"; !strings.Contains(got, want) {
		t.Errorf("got %v, want it to contain %v", got, want)
	}
}

func TestResolveAll(t *testing.T) {
	names := []string{
		"Australia/Adelaide",
		"toto en vacances",
		"Africa/Abidjan",
		"Asia/Calcutta",
		"bernard a la plage",
		"Europe/Paris",
		"Europe/Amsterdam",
		"Europe/Dublin",
	}
	out := &bytes.Buffer{}
	sr := logging.NewStatusRecorder()
	r := transitions.NewResolver(
		transitions.WithLogger(slog.New(slog.NewJSONHandler(out, nil))),
		transitions.WithStatusRecorder(sr))
	ref := utc(2024, 1, 15, 0, 0)
	batch := r.ResolveAll(context.Background(), names, ref)

	if len(batch.RunID) == 0 {
		t.Errorf("missing run id")
	}
	if got, want := len(batch.Outcomes), len(names); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, o := range batch.Outcomes {
		if got, want := o.Zone, names[i]; got != want {
			t.Errorf("%v: got %v, want %v", i, got, want)
		}
	}

	resolved := []string{}
	for _, p := range batch.Resolved() {
		resolved = append(resolved, p.Zone)
		if !p.First.Instant.After(ref) || !p.Second.Instant.After(p.First.Instant) {
			t.Errorf("%v: transitions out of order: %v, %v", p.Zone, p.First, p.Second)
		}
	}
	if got, want := resolved, []string{"Australia/Adelaide", "Europe/Paris", "Europe/Amsterdam", "Europe/Dublin"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	reasons := map[string]transitions.Reason{}
	for _, o := range batch.Failed() {
		reason, _ := transitions.ReasonFor(o.Err)
		reasons[o.Zone] = reason
	}
	if got, want := reasons, map[string]transitions.Reason{
		"toto en vacances":   transitions.UnknownZone,
		"bernard a la plage": transitions.UnknownZone,
		"Africa/Abidjan":     transitions.NoDSTObserved,
		"Asia/Calcutta":      transitions.NoDSTObserved,
	}; !maps.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	records := batch.Records()
	if got, want := len(records), 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := records[1].NextDSTChange, "2024-03-31 01:59:00 CET"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	err := batch.Err()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, zone := range []string{"toto en vacances", "bernard a la plage", "Africa/Abidjan", "Asia/Calcutta"} {
		if !strings.Contains(err.Error(), zone) {
			t.Errorf("%v missing from %v", zone, err)
		}
	}

	var completed int
	for range sr.Completed() {
		completed++
	}
	if got, want := completed, len(names); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for range sr.Pending() {
		t.Errorf("unexpected pending resolution")
	}

	var entries []logging.Entry
	sc := logging.NewScanner(out)
	for le := range sc.Entries() {
		entries = append(entries, le)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	// pending + completion per zone and a final batch summary.
	if got, want := len(entries), 2*len(names)+1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	last := entries[len(entries)-1]
	if got, want := last.Msg, logging.LogBatch; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := last.Resolved, 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := last.Failed, 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := last.Run, batch.RunID; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveAllAllResolved(t *testing.T) {
	r := transitions.NewResolver()
	batch := r.ResolveAll(context.Background(), []string{"Europe/Berlin", "America/Los_Angeles"}, utc(2024, 1, 15, 0, 0))
	if err := batch.Err(); err != nil {
		t.Fatal(err)
	}
	if got, want := len(batch.Failed()), 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := transitions.NewResolver()
	batch := r.ResolveAll(ctx, []string{"Europe/Paris", "Europe/Berlin"}, utc(2024, 1, 15, 0, 0))
	for _, o := range batch.Outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("%v: unexpected error: %v", o.Zone, o.Err)
		}
	}
}
