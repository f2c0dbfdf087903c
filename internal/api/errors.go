// errors.go - Structured error handling for API responses
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/design-review/backend/internal/chat"
	"github.com/design-review/backend/internal/compliance"
	"github.com/design-review/backend/internal/export"
	"github.com/design-review/backend/internal/projects"
	"github.com/design-review/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewInvalidInputError creates a 400 validation error from a domain error
func NewInvalidInputError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Details: cause.Error(),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// fromDomainError maps package sentinel errors to API errors. resource and
// id name the thing being addressed for 404s.
func fromDomainError(err error, resource, id string) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, chat.ErrNotFound),
		errors.Is(err, projects.ErrNotFound),
		errors.Is(err, export.ErrNotFound),
		errors.Is(err, compliance.ErrNotFound),
		errors.Is(err, upload.ErrNotFound):
		return NewNotFoundError(resource, id)
	case errors.Is(err, projects.ErrVersionConflict):
		return NewConflictError(err.Error())
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrIncompleteProject),
		errors.Is(err, chat.ErrUnknownSurface),
		errors.Is(err, projects.ErrInvalid),
		errors.Is(err, export.ErrInvalidRequest),
		errors.Is(err, compliance.ErrInvalidStatus):
		return NewInvalidInputError(err)
	case errors.Is(err, chat.ErrChatDisabled),
		errors.Is(err, chat.ErrUploadsDisabled),
		errors.Is(err, chat.ErrProjectsDisabled),
		errors.Is(err, chat.ErrSessionClosed):
		return NewConflictError(err.Error())
	case errors.Is(err, chat.ErrTooManySessions),
		errors.Is(err, chat.ErrManagerClosed),
		errors.Is(err, upload.ErrClosed):
		return NewServiceUnavailableError(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewServiceUnavailableError("request cancelled")
	}
	return NewInternalError("unexpected error", err)
}

// NewErrorHandler returns an Echo error handler that renders every error as
// an APIError. Unknown errors carry their text only when showDetails is set.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(logger, cfg.Advanced.Debug)
func NewErrorHandler(logger *zap.Logger, showDetails bool) echo.HTTPErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if showDetails {
				apiErr.Details = err.Error()
			}
		}

		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.Status)
			return
		}
		_ = c.JSON(apiErr.Status, apiErr)
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
