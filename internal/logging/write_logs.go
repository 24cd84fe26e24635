// Copyright 2024 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package logging

import (
	"log/slog"
	"time"

	"cloudeng.io/datetime"
)

const (
	LogPending    = "pending"
	LogResolved   = "resolved"
	LogFailed     = "failed"
	LogBatch      = "batch"
	LogSaved      = "saved"
	LogSaveFailed = "save-failed"
)

// WritePendingLog logs the start of the resolution of a single zone, it
// must be followed by either WriteResolvedLog or WriteFailedLog with the
// same run and zone.
func WritePendingLog(l *slog.Logger, runID, zone string, reference time.Time) {
	l.Info(LogPending,
		"run", runID,
		"zone", zone,
		"date", datetime.CalendarDateFromTime(reference).String(),
		"ref", reference)
}

// WriteResolvedLog logs the two transitions found for a zone.
func WriteResolvedLog(l *slog.Logger, runID, zone string, reference, first, second time.Time) {
	l.Info(LogResolved,
		"run", runID,
		"zone", zone,
		"date", datetime.CalendarDateFromTime(reference).String(),
		"ref", reference,
		"first", first,
		"second", second)
}

// WriteFailedLog logs a zone that could not be resolved, reason is the
// classification of err, if any.
func WriteFailedLog(l *slog.Logger, runID, zone string, reference time.Time, reason string, err error) {
	l.Warn(LogFailed,
		"run", runID,
		"zone", zone,
		"date", datetime.CalendarDateFromTime(reference).String(),
		"ref", reference,
		"reason", reason,
		"err", err)
}

// WriteBatchLog logs the completion of all of the zones in a run.
func WriteBatchLog(l *slog.Logger, runID string, reference time.Time, nZones, nResolved, nFailed int, elapsed time.Duration) {
	l.Info(LogBatch,
		"run", runID,
		"date", datetime.CalendarDateFromTime(reference).String(),
		"ref", reference,
		"#zones", nZones,
		"#resolved", nResolved,
		"#failed", nFailed,
		"elapsed", elapsed)
}

// WriteSaveLog logs the outcome of persisting the record for a zone.
func WriteSaveLog(l *slog.Logger, runID, zone string, err error) {
	if err != nil {
		l.Warn(LogSaveFailed, "run", runID, "zone", zone, "err", err)
		return
	}
	l.Info(LogSaved, "run", runID, "zone", zone)
}
