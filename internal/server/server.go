// Package server exposes the categorization pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ledgerloom/receiptd/internal/common"
	"github.com/ledgerloom/receiptd/internal/engine"
	"github.com/ledgerloom/receiptd/internal/model"
)

// Server wraps the orchestrator behind a small JSON API.
type Server struct {
	orchestrator *engine.Orchestrator
	httpServer   *http.Server
	logger       *slog.Logger
}

// New creates a server listening on addr.
func New(addr string, orchestrator *engine.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orchestrator: orchestrator,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/categorize", s.handleCategorize)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type categorizeRequest struct {
	ReceiptID     string  `json:"receipt_id"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

type categorizeResponse struct {
	CategoryID     *int    `json:"category_id,omitempty"`
	ReceiptID      string  `json:"receipt_id,omitempty"`
	Category       string  `json:"category,omitempty"`
	Method         string  `json:"method,omitempty"`
	CategorySource string  `json:"category_source,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	OK             bool    `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
	OK    bool   `json:"ok"`
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.ReceiptID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "receipt_id is required"})
		return
	}
	if req.MinConfidence < 0 || req.MinConfidence > 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "min_confidence must be in [0,1]"})
		return
	}

	decision, err := s.orchestrator.ClassifyWithOptions(r.Context(), req.ReceiptID, engine.Options{
		MinConfidence: req.MinConfidence,
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "receipt not found"})
			return
		}
		s.logger.Error("categorize request failed",
			"receipt_id", req.ReceiptID,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if decision.NeedsReview {
		writeJSON(w, http.StatusOK, categorizeResponse{
			OK:        false,
			ReceiptID: decision.ReceiptID,
			Reason:    "no_match",
		})
		return
	}

	writeJSON(w, http.StatusOK, categorizeResponse{
		OK:             true,
		ReceiptID:      decision.ReceiptID,
		CategoryID:     decision.CategoryID,
		Category:       decision.Category,
		Confidence:     decision.Confidence,
		Method:         methodOf(decision.Source),
		CategorySource: string(decision.Source),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func methodOf(source model.Source) string {
	if source == model.SourceRules {
		return string(model.MethodRule)
	}
	return string(model.MethodLLM)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
