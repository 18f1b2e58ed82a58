// Package server exposes the activity registry over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mergington-activities/internal/activities"
	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/membership"
	"mergington-activities/internal/models"
)

// Registry is the activity store the handlers operate on.
type Registry interface {
	List() activities.Snapshot
	Get(name string) (models.Activity, bool)
	Signup(name, email string) (string, error)
	Unregister(name, email string) (string, error)
}

// Checker reports whether a backing dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP layer. Only Registry is required.
type Deps struct {
	Registry      Registry
	Hooks         *membership.Dispatcher
	Logger        logger.Logger
	Observability *observability.Observability
	Tracer        trace.Tracer
	// MetricsHandler serves /metrics; defaults to promhttp.Handler().
	MetricsHandler http.Handler
	// ReadyChecks are pinged by /ready, keyed by name.
	ReadyChecks map[string]Checker
}

type Server struct {
	registry   Registry
	hooks      *membership.Dispatcher
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	tracer     trace.Tracer
	metrics    http.Handler
	checks     map[string]Checker
}

func New(deps Deps) *Server {
	s := &Server{
		registry: deps.Registry,
		hooks:    deps.Hooks,
		logger:   deps.Logger,
		obs:      deps.Observability,
		tracer:   deps.Tracer,
		metrics:  deps.MetricsHandler,
		checks:   deps.ReadyChecks,
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("activities-api")
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}
	s.errHandler = apperrors.NewErrorHandler(s.logger)
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog(s.logger))
	r.Use(Tracing(s.tracer))
	r.Use(Metrics)
	r.Use(chimw.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/static/*", s.handleStatic)

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", s.handleListActivities)
		r.Post("/{name}/signup", s.handleSignup)
		r.Delete("/{name}/signup", s.handleUnregister)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", s.metrics)

	return r
}
