package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/common/validation"
	"mergington-activities/internal/membership"
	"mergington-activities/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, span := s.tracer.Start(r.Context(), "registry.list")
	snap := s.registry.List()
	span.SetAttributes(attribute.Int("activities.count", len(snap.Order)))
	span.End()
	s.obs.RecordOperation(r.Context(), "list", metrics.ResultSuccess, time.Since(start))

	writeJSON(w, http.StatusOK, snap)
}

// activityName returns the {name} segment decoded exactly once. chi matches
// on RawPath when the request carries one, leaving the segment escaped.
func activityName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "signup", membership.EventSignup, s.registry.Signup)
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "unregister", membership.EventUnregister, s.registry.Unregister)
}

// mutate runs a signup or unregister: validate, apply under a span, count,
// respond, then hand the event to the hooks.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op string, evtType membership.EventType, apply func(name, email string) (string, error)) {
	ctx := r.Context()
	log := logger.FromContext(ctx, s.logger)

	name, err := activityName(r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInvalidRequestError("Invalid activity name", err.Error()))
		return
	}

	result, email, err := validation.ValidateMembershipRequest(name, r.URL.Query())
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	if !result.Valid {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewInvalidRequestError(result.First(), "activity: "+name))
		return
	}

	start := time.Now()
	spanCtx, span := s.tracer.Start(ctx, "registry."+op)
	span.SetAttributes(attribute.String("activity.name", name))
	msg, err := apply(name, email)
	outcome := resultLabel(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()

	s.obs.RecordOperation(spanCtx, op, outcome, time.Since(start))
	counter := metrics.UnregistrationsTotal
	if evtType == membership.EventSignup {
		counter = metrics.SignupsTotal
	}
	label := name
	if outcome == metrics.ResultNotFound {
		label = metrics.UnknownActivity
	}
	counter.WithLabelValues(label, outcome).Inc()

	if err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}

	log.Info("membership changed", map[string]interface{}{
		"operation": op,
		"activity":  name,
		"email":     email,
	})
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: msg})

	evt := membership.NewEvent(evtType, name, email)
	if a, ok := s.registry.Get(name); ok {
		evt.Schedule = a.Schedule
	}
	s.hooks.Dispatch(evt)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, apperrors.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}

type statusBody struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusBody{Status: "healthy", Time: time.Now().UTC().Format(time.RFC3339)})
}

// handleReady pings every configured dependency. Any failure answers 503.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	body := statusBody{Status: "ready", Time: time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK

	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		body.Checks = make(map[string]string, len(s.checks))
		for name, c := range s.checks {
			if err := c.Ping(ctx); err != nil {
				body.Checks[name] = err.Error()
				body.Status = "not ready"
				status = http.StatusServiceUnavailable
				continue
			}
			body.Checks[name] = "ok"
		}
	}
	writeJSON(w, status, body)
}
