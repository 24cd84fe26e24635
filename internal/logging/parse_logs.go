// Copyright 2024 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"time"

	"cloudeng.io/datetime"
)

type logEntry struct {
	Time      time.Time `json:"time"`
	Msg       string    `json:"msg"`
	Level     string    `json:"level"`
	Mod       string    `json:"mod"`
	Run       string    `json:"run"`
	Zone      string    `json:"zone"`
	Date      Date      `json:"date"`
	Reference time.Time `json:"ref"`
	First     time.Time `json:"first"`
	Second    time.Time `json:"second"`
	Reason    string    `json:"reason"`
	Err       string    `json:"err"`
	NumZones  int       `json:"#zones"`
	Resolved  int       `json:"#resolved"`
	Failed    int       `json:"#failed"`
	Elapsed   int64     `json:"elapsed"`
}

type Entry struct {
	logEntry

	Date     datetime.CalendarDate
	First    time.Time
	Second   time.Time
	Elapsed  time.Duration
	Err      error
	LogEntry string // Original log line
}

// ParseLogLine parses a single JSON log line. Transition times for a
// resolved zone are converted back to that zone's local time where
// possible.
func ParseLogLine(line string) (Entry, error) {
	var le Entry
	le.LogEntry = line
	if err := json.Unmarshal([]byte(line), &le.logEntry); err != nil {
		return le, err
	}
	le.Date = datetime.CalendarDate(le.logEntry.Date)
	le.First = le.logEntry.First
	le.Second = le.logEntry.Second
	le.Elapsed = time.Duration(le.logEntry.Elapsed)
	if e := le.logEntry.Err; e != "" {
		le.Err = errors.New(e)
	}
	if le.Msg == LogResolved {
		// Zones not known to the local tz database are left as logged.
		if loc, err := time.LoadLocation(le.Zone); err == nil {
			le.First = le.First.In(loc)
			le.Second = le.Second.In(loc)
		}
	}
	return le, nil
}

// StatusRecord returns a new StatusRecord for a pending log entry.
func (le Entry) StatusRecord() *StatusRecord {
	return &StatusRecord{
		RunID:     le.Run,
		Zone:      le.Zone,
		Reference: le.Reference,
	}
}

type Scanner struct {
	sc  *bufio.Scanner
	err error
}

func NewScanner(rd io.Reader) *Scanner {
	return &Scanner{sc: bufio.NewScanner(rd)}
}

// Entries returns an iterator for over the Scanner's Entry's. Note
// that the iterator will stop if an error is encountered and that the
// Scanner's Err method should be checked after the iterator has completed.
func (ls *Scanner) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for {
			if !ls.sc.Scan() {
				ls.err = ls.sc.Err()
				return
			}
			line := ls.sc.Text()
			le, err := ParseLogLine(line)
			if err != nil {
				ls.err = err
				return
			}
			if !yield(le) {
				return
			}
		}
	}
}

func (ls *Scanner) Err() error {
	return ls.err
}
