package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handler *Handler
	Logger  *zap.Logger
	// Metrics — обработчик /metrics, nil отключает эндпоинт.
	Metrics http.Handler
	// Ready проверяет зависимости для /healthz.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(req.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	h := cfg.Handler
	r.Route("/api", func(api chi.Router) {
		api.Post("/citas", h.CreateBooking)
		api.Get("/horarios", h.ListSlots)
		api.Get("/servicios", h.ListServices)

		api.Route("/admin/citas", func(admin chi.Router) {
			admin.Get("/", h.ListBookings)
			admin.Patch("/", h.UpdateBooking)
			admin.Get("/{id}", h.GetBooking)
		})
	})

	return r
}
