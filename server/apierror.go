package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON body of every failed API request.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrInvalidRequest       = NewAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
	ErrUnknownMeasure       = NewAPIError(http.StatusBadRequest, "UNKNOWN_MEASURE", "Unknown measure")
	ErrUnknownNeighbourhood = NewAPIError(http.StatusBadRequest, "UNKNOWN_NEIGHBOURHOOD", "Neighbourhood not present in the dataset")
	ErrInvalidInterval      = NewAPIError(http.StatusBadRequest, "INVALID_INTERVAL", "Invalid zoom interval")
	ErrSessionNotFound      = NewAPIError(http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
	ErrNoChartData          = NewAPIError(http.StatusUnprocessableEntity, "NO_CHART_DATA", "Nothing to chart")
	ErrInternal             = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

func renderError(w http.ResponseWriter, r *http.Request, e *APIError) {
	_ = render.Render(w, r, e)
}
