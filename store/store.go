// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package store provides persistence for resolved dst transitions.
// Records are keyed by zone name and a later record for the same zone
// replaces an earlier one.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"cloudeng.io/errors"
	"github.com/cosnicolaou/dstchange/internal/logging"
	"github.com/cosnicolaou/dstchange/transitions"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "dst_change"

// Store is implemented by anything that can persist a transitions.Record.
type Store interface {
	Put(ctx context.Context, rec transitions.Record) error
}

// SaveAll persists the record for every resolved zone in batch. Each
// save is attempted exactly once and a failure to save one zone does not
// prevent the others from being saved. All failures are returned.
func SaveAll(ctx context.Context, st Store, batch transitions.Batch, logger *slog.Logger) error {
	logger = logger.With("mod", "store")
	var errs errors.M
	for _, rec := range batch.Records() {
		err := st.Put(ctx, rec)
		if err != nil {
			err = fmt.Errorf("%q: save: %w", rec.ZoneName, err)
		}
		logging.WriteSaveLog(logger, batch.RunID, rec.ZoneName, err)
		errs.Append(err)
	}
	return errs.Err()
}
