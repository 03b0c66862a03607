package handlers

import (
	"errors"
	"net/http"

	"github.com/clutch-social/backend/internal/apperror"
	"github.com/labstack/echo/v4"
)

// httpError maps the application error taxonomy onto HTTP statuses. Transient
// store failures come back as 503 so clients know a manual retry is sensible;
// partial two-sided writes come back as 502 for the same reason.
func httpError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, apperror.ErrPermission):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, apperror.ErrSelfRequest), errors.Is(err, apperror.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, apperror.ErrDuplicateRequest), errors.Is(err, apperror.ErrInvalidTransition), errors.Is(err, apperror.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, apperror.ErrPartialWrite):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.Is(err, apperror.ErrNetwork):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
