// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package webapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cloudeng.io/datetime"
	"github.com/cosnicolaou/dstchange/internal/logging"
	"github.com/cosnicolaou/dstchange/transitions"
)

type Status struct {
	l  *slog.Logger
	sr *logging.StatusRecorder
}

func NewStatusServer(l *slog.Logger, sr *logging.StatusRecorder) *Status {
	return &Status{
		l:  l.With("component", "status"),
		sr: sr,
	}
}

type CompletionResponse struct {
	Run       string `json:"run"`
	Zone      string `json:"zone"`
	Date      string `json:"date"`
	Pending   string `json:"pending"`
	Completed string `json:"completed"`
	Status    string `json:"status"`
	First     string `json:"first,omitempty"`
	Second    string `json:"second,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error_message,omitempty"`
}

type PendingResponse struct {
	Run     string `json:"run"`
	Zone    string `json:"zone"`
	Date    string `json:"date"`
	Pending string `json:"pending"`
}

type StatusResponse struct {
	Pending   []PendingResponse    `json:"pending"`
	Completed []CompletionResponse `json:"completed"`
}

func formatTransition(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(transitions.RecordTimeFormat)
}

func (s *Status) completed(num int64, recent bool) []CompletionResponse {
	cr := []CompletionResponse{}
	var n int64
	it := s.sr.Completed()
	if recent {
		it = s.sr.CompletedRecent()
	}
	for sr := range it {
		cr = append(cr, CompletionResponse{
			Run:       sr.RunID,
			Zone:      sr.Zone,
			Date:      datetime.CalendarDateFromTime(sr.Reference).String(),
			Pending:   datetime.TimeOfDayFromTime(sr.Pending).String(),
			Completed: datetime.TimeOfDayFromTime(sr.Completed).String(),
			Status:    sr.Status(),
			First:     formatTransition(sr.First),
			Second:    formatTransition(sr.Second),
			Reason:    sr.Reason,
			Error:     sr.ErrorMessage(),
		})
		n++
		if num > 0 && n >= num {
			break
		}
	}
	return cr
}

func (s *Status) pending(num int64) []PendingResponse {
	pr := []PendingResponse{}
	var n int64
	for sr := range s.sr.Pending() {
		pr = append(pr, PendingResponse{
			Run:     sr.RunID,
			Zone:    sr.Zone,
			Date:    datetime.CalendarDateFromTime(sr.Reference).String(),
			Pending: datetime.TimeOfDayFromTime(sr.Pending).String(),
		})
		n++
		if num > 0 && n >= num {
			break
		}
	}
	return pr
}

func (s *Status) httpError(ctx context.Context, w http.ResponseWriter, u *url.URL, msg, err string, statusCode int) {
	s.l.Log(ctx, slog.LevelInfo, msg, "request", u.String(), "code", statusCode, "error", err)
	http.Error(w, err, statusCode)
}

// ServeStatus returns the pending and completed resolutions, the num
// parameter limits the number of each returned and order=recent returns
// the most recently completed first.
func (s *Status) ServeStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	pars := r.URL.Query()
	var num int64
	if ns := pars.Get("num"); ns != "" {
		var err error
		num, err = strconv.ParseInt(ns, 10, 64)
		if err != nil {
			s.httpError(ctx, w, r.URL, "status", "invalid num", http.StatusBadRequest)
			return
		}
	}
	recent := pars.Get("order") == "recent"
	resp := StatusResponse{
		Pending:   s.pending(num),
		Completed: s.completed(num, recent),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.httpError(ctx, w, r.URL, "status", err.Error(), http.StatusInternalServerError)
	}
}

func (s *Status) AppendEndpoints(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		s.ServeStatus(ctx, w, r)
	})
}
