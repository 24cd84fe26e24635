// Copyright 2024 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package logging

import (
	"fmt"
	"iter"
	"sync"
	"time"

	"cloudeng.io/algo/container/list"
)

// StatusRecorder tracks zone resolutions that are in progress and those
// that have completed.
type StatusRecorder struct {
	mu      sync.Mutex
	done    []*StatusRecord
	waiting *list.Double[*StatusRecord]
}

func NewStatusRecorder() *StatusRecorder {
	return &StatusRecorder{
		done:    make([]*StatusRecord, 0, 1000),
		waiting: list.NewDouble[*StatusRecord](),
	}
}

type StatusRecord struct {
	RunID     string
	Zone      string
	Reference time.Time

	// The following fields are filled in by the status recorder.
	Pending   time.Time // Set by NewPending
	Completed time.Time // Set by PendingDone
	First     time.Time // Set using the arguments to PendingDone
	Second    time.Time
	Reason    string
	Error     error

	listID list.DoubleID[*StatusRecord]
}

func (sr *StatusRecord) Status() string {
	if sr.Completed.IsZero() {
		return "pending"
	}
	if sr.Error != nil {
		return "failed"
	}
	return "resolved"
}

func (sr *StatusRecord) Name() string {
	return fmt.Sprintf("%v:%v", sr.RunID, sr.Zone)
}

func (sr *StatusRecord) ErrorMessage() string {
	if sr.Error == nil {
		return ""
	}
	return sr.Error.Error()
}

// NewPending adds sr to the set of pending resolutions.
func (s *StatusRecorder) NewPending(sr *StatusRecord) *StatusRecord {
	if sr == nil {
		return sr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sr.listID = s.waiting.Append(sr)
	sr.Pending = time.Now()
	return sr
}

// PendingDone moves sr from the pending to the completed set.
func (s *StatusRecorder) PendingDone(sr *StatusRecord, first, second time.Time, reason string, err error) {
	if sr == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sr.Completed = time.Now()
	sr.First = first
	sr.Second = second
	sr.Reason = reason
	sr.Error = err
	s.done = append(s.done, sr)
	s.waiting.RemoveItem(sr.listID)
}

// Completed returns the completed resolutions in the order they completed.
func (s *StatusRecorder) Completed() iter.Seq[*StatusRecord] {
	return func(yield func(*StatusRecord) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, sr := range s.done {
			if !yield(sr) {
				return
			}
		}
	}
}

// CompletedRecent returns the completed resolutions, most recent first.
func (s *StatusRecorder) CompletedRecent() iter.Seq[*StatusRecord] {
	return func(yield func(*StatusRecord) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.done) - 1; i >= 0; i-- {
			if !yield(s.done[i]) {
				return
			}
		}
	}
}

func (s *StatusRecorder) Pending() iter.Seq[*StatusRecord] {
	return func(yield func(*StatusRecord) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for sr := range s.waiting.Forward() {
			if !yield(sr) {
				return
			}
		}
	}
}

func (s *StatusRecorder) ResetCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = s.done[:0]
}
