// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transitions

import (
	"fmt"
	"time"
)

// TransitionPoint is the last minute, in the zone's local time, before the
// zone's daylight saving component changes.
type TransitionPoint struct {
	Zone    string
	Instant time.Time
}

func (tp TransitionPoint) String() string {
	return fmt.Sprintf("%v: %v", tp.Zone, tp.Instant.Format(RecordTimeFormat))
}

const day = 24 * time.Hour

// phase is one pass of the coarse-to-fine search. The probe is moved by
// step until the DST component at the probe matches (whileDiffers == false)
// or differs from (whileDiffers == true) the reference's. Each phase starts
// on the opposite side of the transition from where the previous one
// finished so the directions must alternate.
type phase struct {
	name         string
	step         time.Duration
	maxSteps     int
	whileDiffers bool
}

var phases = []phase{
	{name: "quarter", step: 90 * day, maxSteps: 4},
	{name: "month", step: -30 * day, maxSteps: 3, whileDiffers: true},
	{name: "day", step: day, maxSteps: 30},
	{name: "hour", step: -time.Hour, maxSteps: 24, whileDiffers: true},
	{name: "minute", step: time.Minute, maxSteps: 60},
}

// FindNext returns the next daylight saving transition in zone at or after
// reference, which is truncated to the minute. The returned instant is the last minute before the zone's DST
// component changes, truncated to the minute and expressed in the zone's
// local time. A zone whose DST component does not change within four
// quarters (360 days) of reference yields a ResolutionError with reason
// NoDSTObserved, as does a search that fails to converge because the
// zone's rules changed between probes.
func FindNext(zone Zone, reference time.Time) (TransitionPoint, error) {
	reference = zone.In(reference.Truncate(time.Minute))
	refDST := zone.Offset(reference).DST
	differs := func(t time.Time) bool {
		return zone.Offset(t).DST != refDST
	}
	probe := reference
	for _, p := range phases {
		for n := 1; ; n++ {
			probe = probe.Add(p.step)
			if differs(probe) != p.whileDiffers {
				break
			}
			if n < p.maxSteps {
				continue
			}
			if p.name == "quarter" {
				return TransitionPoint{}, &ResolutionError{Zone: zone.Name(), Reason: NoDSTObserved}
			}
			return TransitionPoint{}, &ResolutionError{
				Zone:   zone.Name(),
				Reason: NoDSTObserved,
				Err:    fmt.Errorf("%v phase did not converge after %v steps from %v", p.name, n, reference),
			}
		}
	}
	last := zone.In(probe.Add(-time.Minute)).Truncate(time.Minute)
	return TransitionPoint{Zone: zone.Name(), Instant: last}, nil
}
