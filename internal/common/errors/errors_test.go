package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{}) { l.warns = append(l.warns, msg) }

func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.errors = append(l.errors, msg)
}

func TestKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   error
		status int
	}{
		{"not found", NewActivityNotFoundError("Nope"), ErrNotFound, http.StatusNotFound},
		{"already signed up", NewAlreadySignedUpError("Chess Club", "a@b"), ErrConflict, http.StatusBadRequest},
		{"not signed up", NewNotSignedUpError("Chess Club", "a@b"), ErrConflict, http.StatusBadRequest},
		{"invalid", NewInvalidRequestError("bad", ""), ErrInvalid, http.StatusUnprocessableEntity},
		{"audit schema", NewAuditSchemaFailedError(stderrors.New("denied")), ErrInternal, http.StatusInternalServerError},
		{"audit", NewAuditInsertFailedError(stderrors.New("db down")), ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, stderrors.Is(tt.err, tt.kind))
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, stderrors.Is(wrapped, tt.kind))
			assert.Equal(t, tt.status, HTTPStatus(Normalize(wrapped).Code))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Activity not found", NewActivityNotFoundError("x").Message)
	assert.Equal(t, "Student is already signed up", NewAlreadySignedUpError("x", "y").Message)
	assert.Equal(t, "Student is not signed up for this activity", NewNotSignedUpError("x", "y").Message)
}

func TestNormalize_ForeignError(t *testing.T) {
	stdErr := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
	assert.False(t, stdErr.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "REGISTRY", GetErrorCategory(ErrCodeActivityNotFound))
	assert.Equal(t, "REGISTRY", GetErrorCategory(ErrCodeNotSignedUp))
	assert.Equal(t, "HOOK", GetErrorCategory(ErrCodeEventPublishFailed))
	assert.Equal(t, "HOOK", GetErrorCategory(ErrCodeAuditSchemaFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRequest))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestHandleHTTPError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/activities/Nope/signup", nil)
	h.HandleHTTPError(rec, req, NewActivityNotFoundError("Nope"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body DetailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Activity not found", body.Detail)
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)

	rec = httptest.NewRecorder()
	h.HandleHTTPError(rec, req, stderrors.New("kaboom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, log.errors, 1)
}
