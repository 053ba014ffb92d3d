package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
		ok   bool
	}{
		{"09:00", 540, true},
		{"9:30", 570, true},
		{"17:45:00", 1065, true},
		{"24:00", MinutesPerDay, true},
		{"24:30", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	assert.Equal(t, "09:05", NewTimeOfDay(9, 5).String())
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, time.Wednesday, d.Weekday())

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-03-04"))
	assert.Equal(t, Date{2025, time.March, 4}, d)
	require.NoError(t, d.Scan([]byte("2025-03-05")))
	assert.Equal(t, 5, d.Day)
	require.NoError(t, d.Scan(time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 6, d.Day)
	assert.Error(t, d.Scan(42))
}

func TestTimeOfDayOn(t *testing.T) {
	loc := time.FixedZone("local", -3*3600)
	d := Date{2025, time.January, 10}
	at := NewTimeOfDay(14, 30).On(d, loc)
	assert.Equal(t, "2025-01-10T17:30:00Z", at.UTC().Format(time.RFC3339))
	assert.Equal(t, NewTimeOfDay(14, 30), TimeOfDayOf(at.In(loc)))
}

func TestWindowHalfOpen(t *testing.T) {
	w := TimeWindow{Start: 540, End: 600}
	assert.True(t, w.Contains(540))
	assert.False(t, w.Contains(600))
	assert.False(t, w.Overlaps(TimeWindow{Start: 600, End: 630}))
	assert.True(t, w.Overlaps(TimeWindow{Start: 599, End: 630}))
	assert.False(t, TimeWindow{Start: 600, End: 600}.Valid())
}

func TestStatusTransitions(t *testing.T) {
	all := []AppointmentStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}
	allowed := map[[2]AppointmentStatus]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusPending, StatusNoShow}:      true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
		{StatusConfirmed, StatusNoShow}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]AppointmentStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusCancelled.Occupies())
	assert.False(t, StatusNoShow.Occupies())
	assert.True(t, StatusCompleted.Occupies())
}

func TestOfferedSlotsJSON(t *testing.T) {
	d := Date{2025, time.January, 8}
	slots := OfferedSlots{d: {600, 540, 600}, d.AddDays(1): {}}.Normalize()
	require.Len(t, slots, 1)
	assert.Equal(t, []TimeOfDay{540, 600}, slots[d])
	assert.Equal(t, 2, slots.Count())
	assert.True(t, slots.Contains(d, 540))
	assert.False(t, slots.Contains(d, 570))

	raw, err := json.Marshal(slots)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2025-01-08":["09:00","10:00"]}`, string(raw))

	var back OfferedSlots
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, slots, back)
}

func TestLinkEffectiveStatus(t *testing.T) {
	exp := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	l := ReservationLink{Status: LinkActive, ExpiresAt: exp}

	assert.Equal(t, LinkActive, l.EffectiveStatus(exp.Add(-time.Second)))
	assert.Equal(t, LinkExpired, l.EffectiveStatus(exp))

	l.Status = LinkUsed
	assert.Equal(t, LinkUsed, l.EffectiveStatus(exp.Add(time.Hour)))
}

func TestPrincipalPermissions(t *testing.T) {
	mine := Resource{ID: 1, TenantID: 10}
	colleague := Resource{ID: 2, TenantID: 10}
	foreign := Resource{ID: 3, TenantID: 11}

	staff := Principal{UserID: 5, TenantID: 10, ResourceID: 1}
	owner := Principal{UserID: 6, TenantID: 10, ResourceID: 9, IsOwner: true}

	assert.True(t, staff.CanManage(mine))
	assert.False(t, staff.CanManage(colleague))
	assert.True(t, staff.CanView(colleague))
	assert.True(t, owner.CanManage(colleague))
	assert.False(t, owner.CanManage(foreign))
	assert.False(t, owner.CanView(foreign))
	assert.False(t, Principal{}.CanManage(Resource{}))
}
