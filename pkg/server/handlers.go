package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
	"github.com/nsxbet/sql-optimizer/pkg/cache"
	"github.com/nsxbet/sql-optimizer/pkg/logger"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Query   string `json:"query"`
	Dialect string `json:"dialect,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Query cannot be empty"})
		return
	}

	a := s.Analyzer()
	dialect := a.Dialect()
	if strings.TrimSpace(req.Dialect) != "" {
		dialect = types.ParseDialect(req.Dialect)
	}

	ctx := r.Context()
	log := s.logger.With(logger.RequestID(requestIDFrom(ctx)))

	cached, err := s.cache.Get(ctx, a.Fingerprint(), dialect, req.Query)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, cached)
		return
	case !errors.Is(err, cache.ErrMiss):
		log.Warn("cache lookup failed", logger.Error(err))
	}

	result, err := a.AnalyzeDialect(ctx, req.Query, dialect)
	if err != nil {
		log.Warn("analysis aborted", logger.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "Analysis aborted: " + err.Error()})
		return
	}

	if err := s.cache.Set(ctx, a.Fingerprint(), result); err != nil {
		log.Warn("cache store failed", logger.Error(err))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.Analyzer().Rules()
	if rules == nil {
		rules = []advisor.Rule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "SQL Optimizer API is running"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write response", logger.Error(err))
	}
}
