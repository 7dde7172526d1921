package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idmatch/internal/platform/middleware"
	"idmatch/internal/verify/models"
	pkgerrors "idmatch/pkg/errors"
)

// Service is the verification pipeline as the web layer sees it.
type Service interface {
	Run(ctx context.Context) (*models.Run, []models.Flash)
	FindRun(ctx context.Context, id string) (*models.Run, error)
	RecentRuns(ctx context.Context, limit int) ([]*models.Run, error)
}

// HealthCheck pings one dependency; name tells the operator which one broke.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves the results UI and the small JSON surface around it.
type Handler struct {
	logger  *slog.Logger
	service Service
	flashes *FlashQueue
	checks  []HealthCheck
}

func NewHandler(service Service, flashes *FlashQueue, logger *slog.Logger, checks ...HealthCheck) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		flashes: flashes,
		checks:  checks,
	}
}

// handleIndex runs the full pipeline synchronously and renders the outcome,
// merging any flash messages queued by a previous redirect.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	messages := h.flashes.Pop(w, r)

	run, runFlashes := h.service.Run(r.Context())
	messages = append(messages, runFlashes...)

	h.renderRun(w, r, run, messages)
}

// handleVerify runs the pipeline and redirects to the persisted run, so a
// browser refresh re-renders instead of re-verifying.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	run, flashes := h.service.Run(r.Context())
	h.flashes.Push(w, r, flashes...)
	http.Redirect(w, r, fmt.Sprintf("/runs/%s", run.ID), http.StatusSeeOther)
}

// handleRun re-renders a persisted run.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	messages := h.flashes.Pop(w, r)

	run, err := h.service.FindRun(r.Context(), id)
	if err != nil {
		status := pkgerrors.ToHTTPStatus(pkgerrors.CodeOf(err))
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "failed to load run",
				"request_id", middleware.GetRequestID(r.Context()),
				"run_id", id,
				"error", err.Error(),
			)
		}
		w.WriteHeader(status)
		messages = append(messages, models.DangerFlash(fmt.Sprintf("Run %s not found.", id)))
		h.render(w, r, &Page{Messages: messages})
		return
	}

	h.renderRun(w, r, run, messages)
}

// handleListRuns returns recent run summaries as JSON.
func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.service.RecentRuns(r.Context(), 20)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list runs",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		writeJSONError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"runs": runs}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode runs", "error", err.Error())
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	healthy := true
	for _, check := range h.checks {
		if err := check.Check(r.Context()); err != nil {
			status[check.Name] = err.Error()
			healthy = false
		} else {
			status[check.Name] = "ok"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h *Handler) renderRun(w http.ResponseWriter, r *http.Request, run *models.Run, messages []models.Flash) {
	h.render(w, r, &Page{Results: run.Results, Messages: messages})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page *Page) {
	if err := RenderResults(w, page); err != nil {
		// Headers are likely already written; log is all that is left.
		h.logger.ErrorContext(r.Context(), "failed to render results page",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
	}
}

func writeJSONError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pkgerrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": string(code)})
}
