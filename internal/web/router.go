package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idmatch/internal/platform/middleware"
)

// NewRouter wires the UI, the static image directory, and the operational
// endpoints behind the shared middleware chain.
func NewRouter(h *Handler, imageDir string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	// Generous timeout: GET / and POST /verify run the whole pipeline.
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/", h.handleIndex)
	r.Post("/verify", h.handleVerify)
	r.Get("/runs", h.handleListRuns)
	r.Get("/runs/{id}", h.handleRun)

	r.Handle("/images/*", http.StripPrefix("/images/",
		http.FileServer(http.Dir(imageDir))))

	r.Get("/healthz", h.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
