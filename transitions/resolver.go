// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transitions

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cosnicolaou/dstchange/internal/logging"
)

// TransitionPair holds the next two transitions for a zone, Second is
// always strictly after First.
type TransitionPair struct {
	Zone   string
	First  TransitionPoint
	Second TransitionPoint
}

// RecordTimeFormat is the format used for the instants in a Record.
const RecordTimeFormat = "2006-01-02 15:04:05 MST"

// Record is the persisted form of a TransitionPair, keyed by ZoneName.
type Record struct {
	ZoneName        string `json:"timezone_name" yaml:"timezone_name"`
	NextDSTChange   string `json:"next_dst_change" yaml:"next_dst_change"`
	SecondDSTChange string `json:"second_dst_change" yaml:"second_dst_change"`
}

// Record returns the persisted form of the pair.
func (tp TransitionPair) Record() Record {
	return Record{
		ZoneName:        tp.Zone,
		NextDSTChange:   tp.First.Instant.Format(RecordTimeFormat),
		SecondDSTChange: tp.Second.Instant.Format(RecordTimeFormat),
	}
}

// TimeSource is an interface that provides the current time in a specific
// location and is intended for testing purposes.
type TimeSource interface {
	NowIn(in *time.Location) time.Time
}

type SystemTimeSource struct{}

func (SystemTimeSource) NowIn(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

type Option func(o *options)

type options struct {
	zones      ZoneResolver
	timeSource TimeSource
	logger     *slog.Logger
	recorder   *logging.StatusRecorder
}

// WithZoneResolver sets the ZoneResolver used to map names to zones, the
// default is LocationResolver.
func WithZoneResolver(zr ZoneResolver) Option {
	return func(o *options) {
		o.zones = zr
	}
}

// WithTimeSource sets the time source used by ResolveNow and is primarily
// intended for testing purposes.
func WithTimeSource(ts TimeSource) Option {
	return func(o *options) {
		o.timeSource = ts
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStatusRecorder sets a recorder that ResolveAll updates as each zone
// is started and completed.
func WithStatusRecorder(sr *logging.StatusRecorder) Option {
	return func(o *options) {
		o.recorder = sr
	}
}

// Resolver finds the next two transitions for named zones. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	options
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(&r.options)
	}
	if r.zones == nil {
		r.zones = LocationResolver{}
	}
	if r.timeSource == nil {
		r.timeSource = SystemTimeSource{}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	r.logger = r.logger.With("mod", "resolver")
	return r
}

// Zone resolves name using the Resolver's ZoneResolver.
func (r *Resolver) Zone(name string) (Zone, error) {
	return r.zones.Resolve(name)
}

// Now returns the current time, in UTC, from the Resolver's TimeSource.
func (r *Resolver) Now() time.Time {
	return r.timeSource.NowIn(time.UTC)
}

// ResolveNow calls Resolve with the current time from the Resolver's
// TimeSource.
func (r *Resolver) ResolveNow(name string) (TransitionPair, error) {
	return r.Resolve(name, r.Now())
}

// Resolve returns the next two transitions for the named zone starting at
// reference. An unknown zone is reported without any search being
// attempted. The second search starts one minute after the first
// transition, ie. in the new regime, and if it fails the zone is reported
// as NoDSTObserved since a partial pair cannot be persisted.
func (r *Resolver) Resolve(name string, reference time.Time) (TransitionPair, error) {
	zone, err := r.zones.Resolve(name)
	if err != nil {
		if _, ok := ReasonFor(err); ok {
			return TransitionPair{}, err
		}
		return TransitionPair{}, &ResolutionError{Zone: name, Reason: UnknownZone, Err: err}
	}
	first, err := FindNext(zone, reference)
	if err != nil {
		return TransitionPair{}, err
	}
	second, err := FindNext(zone, first.Instant.Add(time.Minute))
	if err != nil {
		r.logger.Warn("second transition not found", "zone", name, "first", first.Instant, "err", err)
		return TransitionPair{}, &ResolutionError{
			Zone:   name,
			Reason: NoDSTObserved,
			Err:    fmt.Errorf("second transition after %v: %w", first.Instant.Format(RecordTimeFormat), err),
		}
	}
	return TransitionPair{Zone: name, First: first, Second: second}, nil
}
