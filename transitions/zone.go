// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transitions

import (
	"fmt"
	"time"
)

// Offset is a zone's UTC offset at a given instant decomposed into its
// base (standard time) component and its daylight saving component. DST
// is zero whenever standard time is in effect.
type Offset struct {
	Base time.Duration
	DST  time.Duration
}

// Total returns the full UTC offset.
func (o Offset) Total() time.Duration {
	return o.Base + o.DST
}

// Zone provides the only capabilities needed to search for transitions:
// the local wall clock time and the decomposed UTC offset for any instant.
type Zone interface {
	Name() string
	In(t time.Time) time.Time
	Offset(t time.Time) Offset
}

// ZoneResolver maps a zone name to a Zone. Implementations must return
// an error that satisfies errors.Is(err, ErrUnknownZone) for names that
// cannot be resolved.
type ZoneResolver interface {
	Resolve(name string) (Zone, error)
}

// LocationResolver resolves IANA zone names using time.LoadLocation.
type LocationResolver struct{}

func (LocationResolver) Resolve(name string) (Zone, error) {
	if len(name) == 0 {
		return nil, &ResolutionError{Zone: name, Reason: UnknownZone, Err: fmt.Errorf("empty zone name")}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ResolutionError{Zone: name, Reason: UnknownZone, Err: err}
	}
	return NewLocationZone(loc), nil
}

// LocationZone implements Zone for a *time.Location.
type LocationZone struct {
	loc *time.Location
}

// NewLocationZone returns a Zone backed by the supplied location.
func NewLocationZone(loc *time.Location) LocationZone {
	return LocationZone{loc: loc}
}

func (z LocationZone) Name() string {
	return z.loc.String()
}

func (z LocationZone) Location() *time.Location {
	return z.loc
}

func (z LocationZone) In(t time.Time) time.Time {
	return t.In(z.loc)
}

// standardStep and standardSteps bound the search, in both directions,
// for the standard time used as the base of a daylight saving instant.
const (
	standardStep  = 30 * 24 * time.Hour
	standardSteps = 13
)

// Offset returns the decomposed offset for t. time.Location only records
// whether daylight saving is in effect, so the base offset for a daylight
// saving instant is taken from the standard time that precedes it, or
// failing that, the standard time that follows it, up to a year away.
// The same standard period is found for every instant of a daylight
// saving period, so the DST component is constant across it. Zones that
// are permanently on daylight saving time are treated as having a one
// hour saving.
func (z LocationZone) Offset(t time.Time) Offset {
	lt := t.In(z.loc)
	_, total := lt.Zone()
	offset := time.Duration(total) * time.Second
	if !lt.IsDST() {
		return Offset{Base: offset}
	}
	for _, step := range []time.Duration{-standardStep, standardStep} {
		probe := lt
		for range standardSteps {
			probe = probe.Add(step)
			if probe.IsDST() {
				continue
			}
			_, base := probe.Zone()
			if bd := time.Duration(base) * time.Second; bd != offset {
				return Offset{Base: bd, DST: offset - bd}
			}
		}
	}
	return Offset{Base: offset - time.Hour, DST: time.Hour}
}
