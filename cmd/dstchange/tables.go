// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"cloudeng.io/datetime"
	"github.com/cosnicolaou/dstchange/internal/logging"
	"github.com/cosnicolaou/dstchange/transitions"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type tableManager struct {
	display *time.Location
}

var titleCase = cases.Title(language.English)

func (tm tableManager) location() *time.Location {
	if tm.display == nil {
		return time.UTC
	}
	return tm.display
}

func formatTransition(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(transitions.RecordTimeFormat)
}

func reasonFor(err error) string {
	if reason, ok := transitions.ReasonFor(err); ok {
		return titleCase.String(reason.String())
	}
	return "Failed"
}

// Batch displays the outcome for every zone in the order they were
// requested.
func (tm tableManager) Batch(batch transitions.Batch) table.Writer {
	tw := table.NewWriter()
	ref := batch.Reference.In(tm.location())
	tw.SetTitle(fmt.Sprintf("%v %v (%v)", datetime.CalendarDateFromTime(ref), datetime.TimeOfDayFromTime(ref), tm.location()))
	tw.AppendHeader(table.Row{"Zone", "Next DST Change", "Second DST Change", "Status"})
	for _, o := range batch.Outcomes {
		if o.Err != nil {
			tw.AppendRow(table.Row{o.Zone, "", "", reasonFor(o.Err)})
			continue
		}
		tw.AppendRow(table.Row{
			o.Zone,
			formatTransition(o.Pair.First.Instant),
			formatTransition(o.Pair.Second.Instant),
			"Resolved",
		})
	}
	return tw
}

// Zones displays the current offset of each configured zone.
func (tm tableManager) Zones(zones []string, resolver transitions.ZoneResolver, now time.Time) table.Writer {
	tw := table.NewWriter()
	tw.SetTitle("Zones")
	tw.AppendHeader(table.Row{"Zone", "Local Time", "Offset", "DST", "Status"})
	for _, name := range zones {
		zone, err := resolver.Resolve(name)
		if err != nil {
			tw.AppendRow(table.Row{name, "", "", "", reasonFor(err)})
			continue
		}
		off := zone.Offset(now)
		local := zone.In(now)
		tw.AppendRow(table.Row{
			name,
			datetime.TimeOfDayFromTime(local),
			off.Total(),
			off.DST != 0,
			"Ok",
		})
	}
	return tw
}

func (tm tableManager) statusRow(sr *logging.StatusRecord) table.Row {
	completed := ""
	if !sr.Completed.IsZero() {
		completed = datetime.TimeOfDayFromTime(sr.Completed.In(tm.location())).String()
	}
	return table.Row{
		sr.RunID,
		sr.Zone,
		datetime.CalendarDateFromTime(sr.Reference.In(tm.location())),
		datetime.TimeOfDayFromTime(sr.Pending.In(tm.location())),
		completed,
		titleCase.String(sr.Status()),
		formatTransition(sr.First),
		formatTransition(sr.Second),
		sr.ErrorMessage(),
	}
}

// CompletedAndPending displays the completed, followed by the pending,
// resolutions recorded by sr.
func (tm tableManager) CompletedAndPending(sr *logging.StatusRecorder, when datetime.CalendarDate) table.Writer {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("Status: %v", when))
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
	})
	tw.AppendHeader(table.Row{"Run", "Zone", "Date", "Pending", "Completed", "Status", "First", "Second", "Error"})
	for rec := range sr.Completed() {
		tw.AppendRow(tm.statusRow(rec))
	}
	tw.AppendSeparator()
	for rec := range sr.Pending() {
		tw.AppendRow(tm.statusRow(rec))
	}
	return tw
}
