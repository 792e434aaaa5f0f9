package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// routes builds the HTTP handler. The API is rate limited; /healthz and
// /metrics are not, so that monitoring keeps working under load.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(requireGET)
	r.Use(middleware.GetHead)
	r.Use(securityHeadersMiddleware)
	r.Use(noCacheMiddleware)
	r.Use(gzipMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(newRateLimitMiddleware(s.limiter))
		r.Get("/sysinfo", s.handleSysinfo)
		r.Get("/probes", s.handleProbes)
		r.Get("/probes/{name}", s.handleProbe)
		r.Get("/summary", s.handleSummary)
	})

	return r
}
