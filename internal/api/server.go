// Package api implements the REST handlers for subscriptions and stats.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/slotwatch/slotwatch/internal/service"
	"github.com/slotwatch/slotwatch/internal/storage"
)

// Server holds all dependencies for the REST API handlers.
type Server struct {
	subSvc service.SubscriptionService
	stats  storage.StatsStore
	dlog   storage.DispatchLogStore
	logger *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(subSvc service.SubscriptionService, stats storage.StatsStore, dlog storage.DispatchLogStore, logger *slog.Logger) *Server {
	return &Server{subSvc: subSvc, stats: stats, dlog: dlog, logger: logger}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/", s.handleLanding)
	r.Post("/email", s.handleSubscribe)
	r.Get("/unsubscribe", s.handleUnsubscribePage)
	r.Delete("/unsubscribe", s.handleUnsubscribe)
	r.Get("/stats/{day}", s.handleStatsDay)
	r.Get("/dispatches", s.handleListDispatches)
}

// subscribeRequest is the POST /email body.
type subscribeRequest struct {
	Email string `json:"email"`
}

// handleSubscribe validates and upserts an email subscription.
// Client errors answer 404 with a message, matching the original API contract.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusNotFound, "email is required")
		return
	}

	_, err := s.subSvc.Subscribe(r.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusNotFound, "invalid email address")
	case err != nil:
		s.logger.Error("subscribing email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
	default:
		writeJSON(w, http.StatusOK, true)
	}
}

// unsubscribeRequest is the DELETE /unsubscribe body.
type unsubscribeRequest struct {
	Email string `json:"email"`
	Hash  string `json:"hash"`
}

// handleUnsubscribe deletes a subscription after hash verification.
func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusNotFound, "email and hash are required")
		return
	}

	err := s.subSvc.Unsubscribe(r.Context(), req.Email, req.Hash)
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrHashMismatch),
		errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "invalid unsubscribe request")
	case err != nil:
		s.logger.Error("unsubscribing email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
	default:
		writeJSON(w, http.StatusOK, true)
	}
}

// handleStatsDay returns the dispatched-alert bucket for one calendar day
// (YYYY-MM-DD).
func (s *Server) handleStatsDay(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")

	bucket, err := s.stats.Day(r.Context(), day)
	if err != nil {
		s.logger.Error("reading stats day", "day", day, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	if bucket == nil {
		writeError(w, http.StatusNotFound, "no stats for day")
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

// handleListDispatches returns recent alert delivery attempts, newest first.
func (s *Server) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.dlog.ListDispatches(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing dispatches", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read dispatch log")
		return
	}
	if entries == nil {
		entries = []storage.DispatchLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
