// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transitions

import (
	"context"
	"time"

	"cloudeng.io/errors"
	"cloudeng.io/sync/errgroup"
	"github.com/cosnicolaou/dstchange/internal/logging"
	"github.com/google/uuid"
)

// Outcome is the result of resolving a single zone, exactly one of
// Pair or Err is set.
type Outcome struct {
	Zone string
	Pair TransitionPair
	Err  error
}

// Batch is the result of ResolveAll. Outcomes are in the same order as
// the zone names supplied to ResolveAll.
type Batch struct {
	RunID     string
	Reference time.Time
	Outcomes  []Outcome
	Elapsed   time.Duration
}

// Resolved returns the pairs for all successfully resolved zones.
func (b Batch) Resolved() []TransitionPair {
	pairs := make([]TransitionPair, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.Err == nil {
			pairs = append(pairs, o.Pair)
		}
	}
	return pairs
}

// Failed returns the outcomes for all zones that could not be resolved.
func (b Batch) Failed() []Outcome {
	var failed []Outcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Records returns the persistable records for all resolved zones.
func (b Batch) Records() []Record {
	pairs := b.Resolved()
	records := make([]Record, len(pairs))
	for i, p := range pairs {
		records[i] = p.Record()
	}
	return records
}

// Err returns all of the per-zone failures, or nil if every zone was
// resolved.
func (b Batch) Err() error {
	var errs errors.M
	for _, o := range b.Outcomes {
		errs.Append(o.Err)
	}
	return errs.Err()
}

// ResolveAll resolves every named zone concurrently. A failure for one
// zone has no effect on any other; all outcomes, successful or not, are
// returned in the Batch. Zones that have not started when ctx is
// canceled have the context's error as their outcome.
func (r *Resolver) ResolveAll(ctx context.Context, names []string, reference time.Time) Batch {
	start := time.Now()
	batch := Batch{
		RunID:     uuid.NewString(),
		Reference: reference,
		Outcomes:  make([]Outcome, len(names)),
	}
	var g errgroup.T
	for i, name := range names {
		g.Go(func() error {
			batch.Outcomes[i] = r.resolveOne(ctx, batch.RunID, name, reference)
			return nil
		})
	}
	_ = g.Wait()
	batch.Elapsed = time.Since(start)
	logging.WriteBatchLog(r.logger, batch.RunID, reference, len(names), len(batch.Resolved()), len(batch.Failed()), batch.Elapsed)
	return batch
}

func (r *Resolver) resolveOne(ctx context.Context, runID, name string, reference time.Time) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Zone: name, Err: err}
	}
	logging.WritePendingLog(r.logger, runID, name, reference)
	var sr *logging.StatusRecord
	if r.recorder != nil {
		sr = r.recorder.NewPending(&logging.StatusRecord{
			RunID:     runID,
			Zone:      name,
			Reference: reference,
		})
	}
	pair, err := r.Resolve(name, reference)
	if err != nil {
		reason := ""
		if rs, ok := ReasonFor(err); ok {
			reason = rs.String()
		}
		logging.WriteFailedLog(r.logger, runID, name, reference, reason, err)
		if r.recorder != nil {
			r.recorder.PendingDone(sr, time.Time{}, time.Time{}, reason, err)
		}
		return Outcome{Zone: name, Err: err}
	}
	logging.WriteResolvedLog(r.logger, runID, name, reference, pair.First.Instant, pair.Second.Instant)
	if r.recorder != nil {
		r.recorder.PendingDone(sr, pair.First.Instant, pair.Second.Instant, "", nil)
	}
	return Outcome{Zone: name, Pair: pair}
}
