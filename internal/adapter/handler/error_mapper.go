package handler

import (
	"errors"
	"net/http"

	"figures-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "figure not found")

	case errors.Is(err, domain.ErrBadPayload):
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload")

	case errors.Is(err, domain.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "figures API unavailable")

	case errors.Is(err, domain.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, "internal configuration error")

	case errors.Is(err, domain.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
