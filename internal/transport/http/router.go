package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions carries the optional cross-cutting pieces of the router.
type RouterOptions struct {
	// Metrics serves /metrics when set.
	Metrics  http.Handler
	Observer RequestObserver
	// Limiter throttles write endpoints per client IP when set.
	Limiter *IPRateLimiter
}

// Router builds the chi router for the REST API, the WebSocket endpoint and health probes.
func (h *Handler) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger, opts.Observer))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Get("/ws", h.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/countries", h.ListCountries)
		r.Get("/modes", h.ListModes)
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/scores", h.ScoreHistory)

		r.Group(func(r chi.Router) {
			if opts.Limiter != nil {
				r.Use(RateLimit(opts.Limiter))
			}
			r.Post("/scores", h.SubmitScore)
			r.Post("/report-error", h.ReportError)

			r.Route("/games", func(r chi.Router) {
				r.Post("/", h.StartGame)
				r.Route("/{gameID}", func(r chi.Router) {
					r.Get("/", h.GetGame)
					r.Delete("/", h.AbandonGame)
					r.Post("/answers", h.AnswerQuestion)
					r.Post("/score", h.SaveGameScore)
				})
			})
		})
	})

	return r
}
