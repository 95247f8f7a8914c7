package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/specworks/reqregistry/common/errs"
)

// httpError maps domain errors onto HTTP status codes. The mapping is the
// service contract: 503 means retry later, 409 means re-read and retry
// with fresh state, 400 means the request itself is wrong.
func httpError(err error) error {
	switch {
	case errors.Is(err, errs.ErrAllocationUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, errs.ErrStaleVersion),
		errors.Is(err, errs.ErrImmutableVersion),
		errors.Is(err, errs.ErrAbstractTree):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrIncompleteSelection),
		errors.Is(err, errs.ErrAmbiguousSelection),
		errors.Is(err, errs.ErrCyclicReleaseHistory),
		errors.Is(err, errs.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
