package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler turns errors into JSON error responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// DetailBody is the failure envelope: {"detail": "..."}.
type DetailBody struct {
	Detail string `json:"detail"`
}

// HandleHTTPError normalizes err, logs it and writes the response.
// Client errors log at warn, everything else at error.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	WriteHTTPError(w, stdErr)
}

// WriteHTTPError writes the status and {"detail": Message} for a StandardError.
func WriteHTTPError(w http.ResponseWriter, stdErr *StandardError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(DetailBody{Detail: stdErr.Message})
}
