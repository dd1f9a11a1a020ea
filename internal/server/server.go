// Package server exposes cascade analysis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/joshharrison/phaseline/internal/history"
	"github.com/joshharrison/phaseline/internal/phase"
	"github.com/joshharrison/phaseline/internal/report"
)

const maxBodyBytes = 8 << 20

// Options configures a Server.
type Options struct {
	Analyze []report.Option
	// Store, when set, receives every successful analysis and backs
	// GET /api/reports/latest.
	Store  *history.Store
	Logger *slog.Logger
	// Now is read once per request that has no ?now= query.
	Now func() time.Time
}

// Server handles the analysis API.
type Server struct {
	opts   Options
	logger *slog.Logger
}

// New returns a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{opts: opts, logger: opts.Logger}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze-delays", s.handleAnalyze)
	mux.HandleFunc("/api/graph", s.handleGraph)
	mux.HandleFunc("/api/reports/latest", s.handleLatest)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return mux
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// readDocument decodes the request body and the reference time.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*phase.Document, time.Time, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, time.Time{}, false
	}

	now := s.opts.Now().UTC()
	if q := r.URL.Query().Get("now"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "now must be an RFC3339 timestamp")
			return nil, time.Time{}, false
		}
		now = t.UTC()
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, time.Time{}, false
	}

	doc, err := phase.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidMessage(err))
		return nil, time.Time{}, false
	}
	if p := r.URL.Query().Get("project"); p != "" {
		doc.ProjectID = p
	}
	return doc, now, true
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	doc, now, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	rep, err := report.AnalyzeDocument(r.Context(), doc, now, s.opts.Analyze...)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidMessage(err))
		return
	}
	if rep.Error != "" {
		writeJSON(w, http.StatusInternalServerError, rep)
		return
	}

	if s.opts.Store != nil {
		entry := history.Entry{Project: doc.ProjectID, AnalyzedAt: now, Report: rep}
		if err := s.opts.Store.Append(r.Context(), entry); err != nil {
			s.logger.Warn("history append failed", "project", doc.ProjectID, "error", err)
		}
	}

	s.logger.Info("analyzed", "project", doc.ProjectID, "phases", len(doc.Phases),
		"delayed", len(rep.DelayedPhases), "impacted", len(rep.ImpactedPhases))
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.opts.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	entry, err := s.opts.Store.Latest(r.Context(), r.URL.Query().Get("project"))
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, history.ErrLocked):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		s.logger.Error("history read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

func invalidMessage(err error) string {
	var invalid *phase.InvalidInputError
	if errors.As(err, &invalid) {
		return invalid.Reason
	}
	return err.Error()
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	doc, now, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	view, err := report.BuildView(doc.Phases, now, s.opts.Analyze...)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
