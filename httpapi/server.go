// Package httpapi exposes the coordination engine over JSON REST plus a
// server-sent-event stream, the collaborator surface spec §6 describes.
// It never sits on the coordination loop's critical path: every handler
// reads from or writes to the store the same way the loop itself does.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Pharbi/arachnid/coordination"
	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/telemetry"
)

// Server wires the HTTP surface over a store and an Engine used to seed
// new webs and run their coordination loops.
type Server struct {
	store   storage.Store
	engine  *coordination.Engine
	logger  telemetry.Logger
	events  *eventHub
	handler http.Handler
}

// New builds a Server ready to be used as an http.Handler. metricsHandler,
// when non-nil, is mounted at /metrics (typically telemetry.NewPrometheusMetrics's
// returned handler).
func New(store storage.Store, engine *coordination.Engine, logger telemetry.Logger, metricsHandler http.Handler) *Server {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	s := &Server{
		store:  store,
		engine: engine,
		logger: logger,
		events: newEventHub(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/webs", func(r chi.Router) {
		r.Post("/", s.handleCreateWeb)
		r.Get("/", s.handleListWebs)
		r.Route("/{webID}", func(r chi.Router) {
			r.Get("/", s.handleGetWeb)
			r.Delete("/", s.handleTerminateWeb)
			r.Get("/agents", s.handleListWebAgents)
			r.Get("/signals", s.handleListWebSignals)
			r.Get("/results", s.handleWebResults)
			r.Get("/events", s.handleWebEvents)
		})
	})

	r.Route("/agents/{agentID}", func(r chi.Router) {
		r.Get("/", s.handleGetAgent)
		r.Get("/context", s.handleAgentContext)
	})

	s.handler = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
