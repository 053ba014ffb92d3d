package router_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/database"
	"github.com/iliyamo/slot-booking/internal/identity"
	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/router"
	"github.com/iliyamo/slot-booking/internal/service"
	"github.com/iliyamo/slot-booking/internal/utils"
)

const secret = "router-test-secret"

type api struct {
	t     *testing.T
	e     *echo.Echo
	owner string
	res   uint64
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db, database.SQLite))
	store := repository.NewStore(db, database.SQLite)

	uid := uint64(1)
	res := model.Resource{TenantID: 1, UserID: &uid, Name: "Owner", IsOwner: true}
	require.NoError(t, store.CreateResource(ctx, &res))
	var week []model.WeeklyAvailability
	for d := time.Monday; d <= time.Friday; d++ {
		week = append(week, model.WeeklyAvailability{DayOfWeek: d, Active: true, Start: model.NewTimeOfDay(9, 0), End: model.NewTimeOfDay(17, 0)})
	}
	require.NoError(t, store.ReplaceWeekly(ctx, res.ID, week))

	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	svcs := service.New(service.Options{
		Store:  store,
		Now:    func() time.Time { return now },
		Logger: slog.New(slog.DiscardHandler),
	})

	e := echo.New()
	router.RegisterRoutes(e, store)
	router.RegisterStaff(e, router.StaffDeps{
		JWTSecret: secret,
		Resolver:  identity.NewResolver(store),
		Services:  svcs,
	})
	router.RegisterPublic(e, svcs.Links, middleware.NewTokenBucket(config.RateLimitConfig{}, nil))

	tok, err := utils.NewAccessToken(secret, 1, utils.RoleOwner, 60)
	require.NoError(t, err)
	return &api{t: t, e: e, owner: tok.Token, res: res.ID}
}

func (a *api) do(method, path, token, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/readyz", "", "").Code)
}

func TestStaffRoutesRequireAuth(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/v1/resources/1/availability", "", "").Code)

	stranger, err := utils.NewAccessToken(secret, 50, utils.RoleStaff, 60)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/v1/resources/1/availability", stranger.Token, "").Code)

	rec := a.do(http.MethodGet, "/v1/resources/1/availability", a.owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Days []model.WeeklyAvailability `json:"days"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Days, 7)
	assert.True(t, body.Days[time.Monday].Active)
}

func TestBookingFlow(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/resources/1/appointments", a.owner, `{"date":"2025-01-08","start":"10:00","end":"11:00","customer_name":"Luz"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var appt model.Appointment
	decode(t, rec, &appt)
	assert.Equal(t, model.StatusPending, appt.Status)

	rec = a.do(http.MethodPost, "/v1/resources/1/appointments", a.owner, `{"date":"2025-01-08","start":"10:30","end":"11:30"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slots"`)

	rec = a.do(http.MethodGet, "/v1/resources/1/free-busy?from=2025-01-08&to=2025-01-08", a.owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fb struct {
		Days map[string]struct {
			Free []string `json:"free"`
		} `json:"days"`
	}
	decode(t, rec, &fb)
	assert.NotContains(t, fb.Days["2025-01-08"].Free, "10:00")
	assert.Contains(t, fb.Days["2025-01-08"].Free, "11:00")

	rec = a.do(http.MethodGet, "/v1/resources/1/free-busy?from=2025-01-08&to=nope", a.owner, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/v1/appointments/" + jsonID(appt.ID)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, path+"/transition", a.owner, `{"status":"completed"}`).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, path+"/transition", a.owner, `{"status":"confirmed"}`).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodPost, path+"/move", a.owner, `{"date":"2025-01-09","start":"09:00","end":"10:00"}`).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/appointments/999", a.owner, "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/v1/appointments/abc", a.owner, "").Code)
}

func TestReservationLinkFlow(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/resources/1/links", a.owner,
		`{"from":"2025-01-08","to":"2025-01-08","slots":{"2025-01-08":["09:00","10:00"]},"expires_in_hours":24,"message":"See you soon"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Token string `json:"token"`
		Path  string `json:"path"`
	}
	decode(t, rec, &created)
	require.Len(t, created.Token, 43)
	assert.Equal(t, "/v1/public/links/"+created.Token, created.Path)

	rec = a.do(http.MethodGet, created.Path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"2025-01-08":["09:00","10:00"]}`, extract(t, rec, "available"))
	assert.NotContains(t, rec.Body.String(), "resource_id")

	rec = a.do(http.MethodPost, created.Path+"/redeem", "", `{"date":"2025-01-08","start":"09:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, created.Path+"/redeem", "", `{"date":"2025-01-08","start":"09:00","name":"Ana","phone":"555-0101"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, created.Path+"/redeem", "", `{"date":"2025-01-08","start":"10:00","name":"Ana","phone":"555-0101"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/public/links/unknown-token", "", "").Code)

	rec = a.do(http.MethodGet, "/v1/resources/1/links", a.owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var links []model.ReservationLink
	decode(t, rec, &links)
	require.Len(t, links, 1)
	assert.Equal(t, model.LinkUsed, links[0].Status)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/v1/links/"+jsonID(links[0].ID), a.owner, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, created.Path, "", "").Code)
}

func TestAvailabilityWrites(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/v1/resources/1/availability", a.owner, `{"days":`).Code)
	rec := a.do(http.MethodPut, "/v1/resources/1/availability", a.owner, `{"days":[{"day_of_week":9,"active":true,"start":"09:00","end":"10:00"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "days[0]")

	rec = a.do(http.MethodPut, "/v1/resources/1/availability", a.owner, `{"days":[{"day_of_week":6,"active":true,"start":"10:00","end":"14:00"}]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodPost, "/v1/resources/1/exceptions", a.owner, `{"date":"2025-01-11","all_day":true,"kind":"block","reason":"inventory"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ex model.Exception
	decode(t, rec, &ex)

	rec = a.do(http.MethodGet, "/v1/resources/1/exceptions?from=2025-01-06&to=2025-01-12", a.owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Exception
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/v1/exceptions/"+jsonID(ex.ID), a.owner, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/v1/exceptions/"+jsonID(ex.ID), a.owner, "").Code)
}

func jsonID(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func extract(t *testing.T, rec *httptest.ResponseRecorder, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	decode(t, rec, &m)
	return string(m[field])
}
