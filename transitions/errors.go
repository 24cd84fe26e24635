// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transitions

import (
	"errors"
	"fmt"
)

// Reason classifies why a zone could not be resolved.
type Reason int

const (
	UnknownZone Reason = iota + 1
	NoDSTObserved
)

func (r Reason) String() string {
	switch r {
	case UnknownZone:
		return "unknown zone"
	case NoDSTObserved:
		return "no dst observed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

var (
	ErrUnknownZone   = errors.New("unknown zone")
	ErrNoDSTObserved = errors.New("no dst change observed")
)

// ResolutionError is the terminal, per-zone failure returned by FindNext,
// Resolve and ResolveAll. It is never retried within a run.
type ResolutionError struct {
	Zone   string
	Reason Reason
	Err    error // optional underlying cause
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%q: %v", e.Zone, e.Reason)
	}
	return fmt.Sprintf("%q: %v: %v", e.Zone, e.Reason, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrUnknownZone) and errors.Is(err, ErrNoDSTObserved)
// to test the reason.
func (e *ResolutionError) Is(target error) bool {
	switch target {
	case ErrUnknownZone:
		return e.Reason == UnknownZone
	case ErrNoDSTObserved:
		return e.Reason == NoDSTObserved
	}
	return false
}

// ReasonFor returns the Reason for err if it is, or wraps, a ResolutionError.
func ReasonFor(err error) (Reason, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return 0, false
}
