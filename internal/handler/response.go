package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/api"
	"haul/internal/location"
	"haul/internal/repository"
	"haul/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string         `json:"error"`
	Alert *service.Alert `json:"alert,omitempty"`
}

// errInvalidBody is reported for requests that fail to bind.
var errInvalidBody = errors.New("invalid request body")

// respondError sends an error response with the appropriate HTTP status code
// and raises the matching alert for the UI shell.
func respondError(c *gin.Context, alerts *service.AlertService, action string, err error) {
	code := mapErrorToHTTPStatus(err)
	resp := ErrorResponse{Error: err.Error()}
	if alerts != nil {
		alert := alerts.FromError(c.Request.Context(), action, err)
		resp.Alert = &alert
		resp.Error = alert.Message
	}
	c.JSON(code, resp)
}

// respondBadRequest rejects a request body that could not be bound.
func respondBadRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: errInvalidBody.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service, client and storage errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var apiErr *api.Error

	switch {
	// Session errors
	case errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, api.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrConversationNotOpen):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrPhoneRequired),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrInvalidLoadID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrUnsupportedLanguage),
		errors.Is(err, service.ErrInvalidDocumentType),
		errors.Is(err, service.ErrDocumentPathRequired),
		errors.Is(err, service.ErrDocumentsIncomplete),
		errors.Is(err, location.ErrInvalidFix):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrJourneyAlreadyActive),
		errors.Is(err, service.ErrNoActiveJourney),
		errors.Is(err, service.ErrJourneyNotOpen):
		return http.StatusConflict

	// Forbidden errors
	case errors.Is(err, service.ErrRoleNotAllowed),
		errors.Is(err, service.ErrLocationPermissionDenied):
		return http.StatusForbidden

	// Backend unreachable or misbehaving
	case errors.Is(err, api.ErrTransport),
		errors.Is(err, service.ErrMissingToken):
		return http.StatusBadGateway

	// Backend rejections pass through; backend failures become Bad Gateway
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
