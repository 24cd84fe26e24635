// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloudeng.io/datetime"
	"github.com/cosnicolaou/dstchange/internal/logging"
)

type LogFlags struct {
	Zone string `subcmd:"zone,,display log info for the specific zone"`
	Run  string `subcmd:"run,,display log info for the specific run"`
}

type LogStatusFlags struct {
	LogFlags
	TSV bool `subcmd:"tsv,false,print the status in tab separated values"`
}

type Log struct {
	out io.Writer
}

type logEntryHandler func(logging.Entry) error

func (l *Log) processLog(rd io.Reader, fv *LogStatusFlags, lh logEntryHandler) error {
	sc := logging.NewScanner(rd)
	for le := range sc.Entries() {
		if len(fv.Zone) > 0 && le.Zone != fv.Zone && le.Msg != logging.LogBatch {
			continue
		}
		if len(fv.Run) > 0 && le.Run != fv.Run {
			continue
		}
		if err := lh(le); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Status replays a log file and displays the status of every zone
// resolution found in it followed by a summary of each run.
func (l *Log) Status(_ context.Context, flags any, args []string) error {
	fv := flags.(*LogStatusFlags)
	srh := statusRecorder{
		StatusRecorder: logging.NewStatusRecorder(),
		pending:        make(map[string]*logging.StatusRecord),
	}
	rd := os.Stdin
	if len(args) > 1 {
		return fmt.Errorf("only one log file can be specified")
	}
	if len(args) == 1 {
		fi, err := os.OpenFile(args[0], os.O_RDONLY, 0)
		if err != nil {
			return err
		}
		defer fi.Close()
		rd = fi
	}
	err := l.processLog(rd, fv, srh.process)
	tm := tableManager{}
	tw := tm.CompletedAndPending(srh.StatusRecorder, datetime.CalendarDateFromTime(srh.last))
	if fv.TSV {
		fmt.Fprintln(l.out, tw.RenderTSV())
	} else {
		fmt.Fprintln(l.out, tw.Render())
	}
	for _, b := range srh.batches {
		fmt.Fprintf(l.out, "run %v: %v zones, %v resolved, %v failed in %v\n",
			b.Run, b.NumZones, b.Resolved, b.Failed, b.Elapsed)
	}
	return err
}

type statusRecorder struct {
	*logging.StatusRecorder
	pending map[string]*logging.StatusRecord
	batches []logging.Entry
	last    time.Time
}

func (sr *statusRecorder) process(le logging.Entry) error {
	if le.Mod != "resolver" {
		return nil
	}
	switch le.Msg {
	case logging.LogPending:
		rec := sr.NewPending(le.StatusRecord())
		rec.Pending = le.Time
		sr.pending[rec.Name()] = rec
	case logging.LogResolved, logging.LogFailed:
		key := le.StatusRecord().Name()
		pending, ok := sr.pending[key]
		if !ok {
			return nil
		}
		delete(sr.pending, key)
		sr.PendingDone(pending, le.First, le.Second, le.Reason, le.Err)
		pending.Completed = le.Time
		sr.last = le.Reference
	case logging.LogBatch:
		sr.batches = append(sr.batches, le)
		sr.last = le.Reference
	default: // ignore all other messages.
	}
	return nil
}
