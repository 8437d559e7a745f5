// Package router carries the response envelope and error translation
// shared by every HTTP handler.
package router

import (
	"net/http"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/gin-gonic/gin"
)

// Response is the envelope wrapping every JSON reply.
type Response struct {
	Success               bool          `json:"success"`
	Data                  any           `json:"data,omitempty"`
	Error                 *RequestError `json:"error,omitempty"`
	ProcessingTimeSeconds float64       `json:"processing_time_seconds"`
	Timestamp             string        `json:"timestamp"`
	Engine                string        `json:"engine,omitempty"`
}

// RequestError is the wire form of a failed request.
type RequestError struct {
	Kind          string `json:"kind"`
	Message       string `json:"message"`
	Engine        string `json:"engine,omitempty"`
	Field         string `json:"field,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Retryable     bool   `json:"retryable"`
}

// StatusForKind maps a typed error kind onto its HTTP status.
func StatusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.ErrKindInvalidInput:
		return http.StatusBadRequest
	case core.ErrKindUnknownEngine, core.ErrKindUnknownWorkflow:
		return http.StatusNotFound
	case core.ErrKindConsentRequired:
		return http.StatusForbidden
	case core.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case core.ErrKindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondOK writes a success envelope.
func RespondOK(c *gin.Context, engine string, started time.Time, data any) {
	c.JSON(http.StatusOK, Response{
		Success:               true,
		Data:                  data,
		ProcessingTimeSeconds: time.Since(started).Seconds(),
		Timestamp:             time.Now().UTC().Format(time.RFC3339),
		Engine:                engine,
	})
}

// RespondError translates err into the envelope. Untyped errors surface
// as INTERNAL_ERROR with a correlation id stamped by core.AsError.
func RespondError(c *gin.Context, engine string, started time.Time, err error) {
	typed := core.AsError(err, engine)
	c.JSON(StatusForKind(typed.Kind), Response{
		Success: false,
		Error: &RequestError{
			Kind:          string(typed.Kind),
			Message:       typed.Message,
			Engine:        typed.Engine,
			Field:         typed.Field,
			CorrelationID: typed.CorrelationID,
			Retryable:     typed.Kind.Retryable(),
		},
		ProcessingTimeSeconds: time.Since(started).Seconds(),
		Timestamp:             time.Now().UTC().Format(time.RFC3339),
		Engine:                engine,
	})
}
