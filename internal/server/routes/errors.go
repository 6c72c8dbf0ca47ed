package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	appservices "github.com/fr0stylo/storefront/internal/app/services"
)

type errorResponse struct {
	Error string                `json:"error"`
	Kind  appservices.ErrorKind `json:"kind"`
}

var statusByKind = map[appservices.ErrorKind]int{
	appservices.ErrorNotFound:         http.StatusNotFound,
	appservices.ErrorInvalidInput:     http.StatusBadRequest,
	appservices.ErrorPaymentMismatch:  http.StatusUnprocessableEntity,
	appservices.ErrorAssetUnavailable: http.StatusConflict,
	appservices.ErrorStillValid:       http.StatusConflict,
	appservices.ErrorExpired:          http.StatusGone,
	appservices.ErrorUnauthorized:     http.StatusUnauthorized,
	appservices.ErrorConflict:         http.StatusConflict,
	appservices.ErrorUnavailable:      http.StatusServiceUnavailable,
}

// statusFor maps a classified error to an HTTP status.
func statusFor(kind appservices.ErrorKind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, log *slog.Logger, err error) error {
	kind := appservices.ClassifyError(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(c.Request().Context(), "Request failed", "kind", kind, "error", err)
		message := "internal error"
		if kind == appservices.ErrorUnavailable {
			message = "custody unavailable"
		}
		return c.JSON(status, errorResponse{Error: message, Kind: kind})
	}
	return c.JSON(status, errorResponse{Error: err.Error(), Kind: kind})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: message, Kind: appservices.ErrorInvalidInput})
}
