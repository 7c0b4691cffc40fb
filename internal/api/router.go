package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter mounts the health and metrics endpoints at the root and the
// bridge API under /api/v1.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(withRequestID, s.accessLog, s.recoverPanics, middleware.RequestSize(maxRequestBodySize))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: metricsErrorLog{s.logger},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accessories", s.handleListAccessories)
		r.Get("/accessories/{uuid}", s.handleGetAccessory)
		r.Get("/devices", s.handleListDevices)
		r.Get("/appliances", s.handleListAppliances)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// metricsErrorLog reports collection failures from promhttp.
type metricsErrorLog struct{ logger Logger }

func (l metricsErrorLog) Println(v ...any) {
	l.logger.Warn("metrics collection error", "error", fmt.Sprint(v...))
}
