package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	slot := model.SlotRef{Date: model.Date{Year: 2025, Month: 1, Day: 8}, Start: model.NewTimeOfDay(9, 0)}
	cases := []struct {
		err    error
		status int
	}{
		{&service.ValidationError{FieldErrors: map[string]string{"name": "is required"}}, http.StatusBadRequest},
		{service.ErrNotAuthorized, http.StatusForbidden},
		{fmt.Errorf("appointment 9: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrLinkNotFound, http.StatusNotFound},
		{&service.ConflictError{Slots: []model.SlotRef{slot}}, http.StatusConflict},
		{service.ErrSlotConflict, http.StatusConflict},
		{service.ErrLinkAlreadyUsed, http.StatusConflict},
		{fmt.Errorf("pending -> completed: %w", service.ErrInvalidTransition), http.StatusConflict},
		{service.ErrLinkExpired, http.StatusGone},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestWriteErrorBodies(t *testing.T) {
	e := echo.New()
	slot := model.SlotRef{Date: model.Date{Year: 2025, Month: 1, Day: 8}, Start: model.NewTimeOfDay(9, 0)}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, &service.ConflictError{Slots: []model.SlotRef{slot}}))
	assert.JSONEq(t, `{"error":"slot is not available","slots":[{"date":"2025-01-08","start":"09:00"}]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, &service.ValidationError{FieldErrors: map[string]string{"phone": "is required"}}))
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "is required", body.Fields["phone"])

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, errors.New("dial tcp 10.0.0.3:3306: refused")))
	assert.NotContains(t, rec.Body.String(), "10.0.0.3", "internal details stay in the log")
}

func TestDateRangeQuery(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?from=2025-01-06&to=2025-13-01", nil), httptest.NewRecorder())
	_, _, err := dateRange(c)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "to")
	assert.NotContains(t, verr.FieldErrors, "from")

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?from=2025-01-06&to=2025-01-07", nil), httptest.NewRecorder())
	from, to, err := dateRange(c)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", from.String())
	assert.Equal(t, "2025-01-07", to.String())
}
