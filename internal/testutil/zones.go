// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cosnicolaou/dstchange/transitions"
)

// Period is a half open interval, [Start, End), during which daylight
// saving time is in effect.
type Period struct {
	Start, End time.Time
}

// RuleZone is a synthetic zone with a fixed standard offset and an
// explicit list of daylight saving periods.
type RuleZone struct {
	ZoneName string
	Standard time.Duration
	Saving   time.Duration
	Periods  []Period
}

func (z RuleZone) Name() string {
	return z.ZoneName
}

func (z RuleZone) Offset(t time.Time) transitions.Offset {
	for _, p := range z.Periods {
		if !t.Before(p.Start) && t.Before(p.End) {
			return transitions.Offset{Base: z.Standard, DST: z.Saving}
		}
	}
	return transitions.Offset{Base: z.Standard}
}

func (z RuleZone) In(t time.Time) time.Time {
	off := z.Offset(t)
	name := z.ZoneName
	if off.DST != 0 {
		name += "-DST"
	}
	return t.In(time.FixedZone(name, int(off.Total()/time.Second)))
}

// CountingZone counts the number of calls to Offset.
type CountingZone struct {
	transitions.Zone
	calls atomic.Int64
}

func NewCountingZone(z transitions.Zone) *CountingZone {
	return &CountingZone{Zone: z}
}

func (z *CountingZone) Offset(t time.Time) transitions.Offset {
	z.calls.Add(1)
	return z.Zone.Offset(t)
}

func (z *CountingZone) Calls() int64 {
	return z.calls.Load()
}

// Zones is a ZoneResolver over a fixed set of zones that records how
// many times each name was resolved.
type Zones struct {
	zones    map[string]transitions.Zone
	resolved map[string]*atomic.Int64
}

func NewZones(zones ...transitions.Zone) *Zones {
	z := &Zones{
		zones:    map[string]transitions.Zone{},
		resolved: map[string]*atomic.Int64{},
	}
	for _, zone := range zones {
		z.zones[zone.Name()] = zone
		z.resolved[zone.Name()] = &atomic.Int64{}
	}
	return z
}

func (z *Zones) Resolve(name string) (transitions.Zone, error) {
	zone, ok := z.zones[name]
	if !ok {
		return nil, &transitions.ResolutionError{
			Zone:   name,
			Reason: transitions.UnknownZone,
			Err:    fmt.Errorf("not one of the test zones"),
		}
	}
	z.resolved[name].Add(1)
	return zone, nil
}

// Resolved returns the number of times name was successfully resolved.
func (z *Zones) Resolved(name string) int64 {
	if c, ok := z.resolved[name]; ok {
		return c.Load()
	}
	return 0
}

// FixedTimeSource always returns the same time.
type FixedTimeSource time.Time

func (f FixedTimeSource) NowIn(loc *time.Location) time.Time {
	return time.Time(f).In(loc)
}
