package handler // handler translates HTTP requests into booking engine calls

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

// writeError maps engine errors onto status codes.  Unknown errors are
// logged and answered with a generic 500 so internals never leak.
func writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	var cerr *service.ConflictError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.FieldErrors})
	case errors.As(err, &cerr):
		slots := cerr.Slots
		if slots == nil {
			slots = []model.SlotRef{}
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrSlotConflict.Error(), "slots": slots})
	case errors.Is(err, service.ErrSlotConflict),
		errors.Is(err, service.ErrLinkAlreadyUsed),
		errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": rootMessage(err)})
	case errors.Is(err, service.ErrLinkExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": service.ErrLinkExpired.Error()})
	case errors.Is(err, service.ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrNotAuthorized.Error()})
	case errors.Is(err, service.ErrLinkNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": service.ErrLinkNotFound.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// rootMessage returns the sentinel text for a 409 without the wrapping
// context, which may mention internal ids.
func rootMessage(err error) string {
	for _, s := range []error{service.ErrSlotConflict, service.ErrLinkAlreadyUsed, service.ErrInvalidTransition} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func badID(c echo.Context, what string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + what + " id"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

// principal returns the caller resolved by middleware.ResolvePrincipal.
func principal(c echo.Context) (model.Principal, bool) {
	return middleware.PrincipalFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// dateRange reads the from/to query parameters.  Empty values are left
// zero for the service to report.
func dateRange(c echo.Context) (from, to model.Date, err error) {
	fields := map[string]string{}
	if s := c.QueryParam("from"); s != "" {
		if from, err = model.ParseDate(s); err != nil {
			fields["from"] = "must be YYYY-MM-DD"
		}
	}
	if s := c.QueryParam("to"); s != "" {
		if to, err = model.ParseDate(s); err != nil {
			fields["to"] = "must be YYYY-MM-DD"
		}
	}
	if len(fields) > 0 {
		return model.Date{}, model.Date{}, &service.ValidationError{FieldErrors: fields}
	}
	return from, to, nil
}
