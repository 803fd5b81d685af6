package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public endpoints. Business logic stays in the services;
// handlers only translate between HTTP and domain types.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/subcontractors/{subcontractorID}/documents", func(r chi.Router) {
			r.Post("/", h.HandleUpload)
			r.Get("/", h.HandleList)
			r.Delete("/{documentID}", h.HandleDelete)
			r.Put("/{documentID}/verify", h.HandleVerify)
		})
		r.Post("/admin/expiration-scan", h.HandleRunScan)
	})

	return r
}
