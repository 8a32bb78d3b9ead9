package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/middleware"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/validation"
)

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, models.Event) error { return nil }

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"User not found"`
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

// parseID reads the {id} path parameter. Anything that is not a positive
// integer cannot name a row, so callers answer 404.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// bindBody decodes a JSON object body into dst and returns the keys it
// carried. An absent, null, empty object or empty array body is rejected with
// "No data provided". It writes the 400 response itself and reports whether
// the handler may continue.
func bindBody(c *gin.Context, dst any) (map[string]json.RawMessage, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "No data provided")
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		respondError(c, http.StatusBadRequest, "No data provided")
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		var list []json.RawMessage
		if json.Unmarshal(raw, &list) == nil && len(list) == 0 {
			respondError(c, http.StatusBadRequest, "No data provided")
			return nil, false
		}
		respondError(c, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	if len(fields) == 0 {
		respondError(c, http.StatusBadRequest, "No data provided")
		return nil, false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid value for %s", typeErr.Field))
			return nil, false
		}
		respondError(c, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	return fields, true
}

// supplied marks a key sent as JSON null as present with an empty value, so
// the field's own rule rejects it instead of the update skipping it.
func supplied(fields map[string]json.RawMessage, key string, dst **string) {
	if _, ok := fields[key]; ok && *dst == nil {
		*dst = new(string)
	}
}

// respondInvalid answers a failed validation: 404 for a reference to a
// missing row, 400 for a rejected field, 500 for anything else.
func respondInvalid(c *gin.Context, logger *slog.Logger, failure string, err error) {
	var verr *validation.Error
	switch {
	case validation.IsReferenceNotFound(err):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, verr.Message)
	default:
		internalError(c, logger, failure, err)
	}
}

// publish emits a lifecycle event. Failures are logged only: the change is
// already committed.
func publish(c *gin.Context, pub EventPublisher, logger *slog.Logger, t models.EventType, data any) {
	correlationID := middleware.GetCorrelationID(c)

	event, err := models.NewEvent(t, correlationID, data)
	if err == nil {
		err = pub.Publish(c.Request.Context(), event)
	}
	if err != nil {
		logger.Error("failed to publish event",
			"event_type", t, "correlation_id", correlationID, "error", err)
	}
}

// internalError logs err with the request's correlation id and answers 500
// with a generic message.
func internalError(c *gin.Context, logger *slog.Logger, message string, err error) {
	logger.Error(message,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"correlation_id", middleware.GetCorrelationID(c),
		"error", err,
	)
	respondError(c, http.StatusInternalServerError, message)
}
