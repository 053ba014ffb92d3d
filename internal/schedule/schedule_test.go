package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/slot-booking/internal/model"
)

func tod(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	v, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func day(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func win(t *testing.T, start, end string) model.TimeWindow {
	return model.TimeWindow{Start: tod(t, start), End: tod(t, end)}
}

func weekdays(t *testing.T, resourceID uint64, start, end string) []model.WeeklyAvailability {
	week := make([]model.WeeklyAvailability, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		week = append(week, model.WeeklyAvailability{
			ResourceID: resourceID,
			DayOfWeek:  d,
			Active:     d >= time.Monday && d <= time.Friday,
			Start:      tod(t, start),
			End:        tod(t, end),
		})
	}
	return week
}

func ptr(v model.TimeOfDay) *model.TimeOfDay { return &v }

func TestNormalizeMergesAndSorts(t *testing.T) {
	got := Normalize([]model.TimeWindow{
		win(t, "13:00", "15:00"),
		win(t, "09:00", "10:00"),
		win(t, "10:00", "11:00"),
		win(t, "14:00", "16:00"),
		{Start: 600, End: 600},
	})
	assert.Equal(t, []model.TimeWindow{win(t, "09:00", "11:00"), win(t, "13:00", "16:00")}, got)
}

func TestSubtractSplitsWindow(t *testing.T) {
	got := Subtract([]model.TimeWindow{win(t, "09:00", "18:00")}, win(t, "12:00", "13:00"))
	assert.Equal(t, []model.TimeWindow{win(t, "09:00", "12:00"), win(t, "13:00", "18:00")}, got)

	got = Subtract(got, win(t, "08:00", "09:30"))
	assert.Equal(t, win(t, "09:30", "12:00"), got[0])
}

func TestDaySchedule(t *testing.T) {
	week := weekdays(t, 1, "09:00", "18:00")
	wednesday := day(t, "2025-01-08")
	sunday := day(t, "2025-01-05")
	require.Equal(t, time.Wednesday, wednesday.Weekday())
	require.Equal(t, time.Sunday, sunday.Weekday())

	t.Run("weekly rule applies", func(t *testing.T) {
		assert.Equal(t, []model.TimeWindow{win(t, "09:00", "18:00")}, DaySchedule(week, nil, wednesday))
	})

	t.Run("all day block clears the day", func(t *testing.T) {
		exceptions := []model.Exception{{ResourceID: 1, Date: wednesday, AllDay: true, Kind: model.ExceptionBlock, Reason: "holiday"}}
		assert.Empty(t, DaySchedule(week, exceptions, wednesday))
		assert.NotEmpty(t, DaySchedule(week, exceptions, wednesday.AddDays(1)))
	})

	t.Run("extra grants an otherwise closed day", func(t *testing.T) {
		exceptions := []model.Exception{{ResourceID: 1, Date: sunday, Kind: model.ExceptionExtra, Start: ptr(tod(t, "10:00")), End: ptr(tod(t, "14:00"))}}
		assert.Equal(t, []model.TimeWindow{win(t, "10:00", "14:00")}, DaySchedule(week, exceptions, sunday))
	})

	t.Run("partial blocks and extras compose regardless of order", func(t *testing.T) {
		block := model.Exception{Date: wednesday, Kind: model.ExceptionBlock, Start: ptr(tod(t, "12:00")), End: ptr(tod(t, "14:00"))}
		extra := model.Exception{Date: wednesday, Kind: model.ExceptionExtra, Start: ptr(tod(t, "17:00")), End: ptr(tod(t, "20:00"))}
		second := model.Exception{Date: wednesday, Kind: model.ExceptionBlock, Start: ptr(tod(t, "09:00")), End: ptr(tod(t, "10:00"))}
		want := []model.TimeWindow{win(t, "10:00", "12:00"), win(t, "14:00", "20:00")}
		assert.Equal(t, want, DaySchedule(week, []model.Exception{block, extra, second}, wednesday))
		assert.Equal(t, want, DaySchedule(week, []model.Exception{second, extra, block}, wednesday))
	})

	t.Run("missing weekly rows mean closed", func(t *testing.T) {
		assert.Empty(t, DaySchedule(nil, nil, wednesday))
	})
}

func TestGenerateSlots(t *testing.T) {
	got, err := GenerateSlots([]model.TimeWindow{win(t, "09:00", "10:00")}, 30)
	require.NoError(t, err)
	assert.Equal(t, []model.TimeOfDay{tod(t, "09:00"), tod(t, "09:30")}, got)

	again, err := GenerateSlots([]model.TimeWindow{win(t, "09:00", "10:00"), win(t, "09:00", "10:00")}, 30)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	odd, err := GenerateSlots([]model.TimeWindow{win(t, "14:00", "15:10"), win(t, "09:00", "09:45")}, 30)
	require.NoError(t, err)
	assert.Equal(t, []model.TimeOfDay{tod(t, "09:00"), tod(t, "09:30"), tod(t, "14:00"), tod(t, "14:30"), tod(t, "15:00")}, odd)

	_, err = GenerateSlots([]model.TimeWindow{win(t, "09:00", "10:00")}, 0)
	assert.ErrorIs(t, err, ErrInvalidGranularity)
}

func TestFreeBusy(t *testing.T) {
	friday := day(t, "2025-01-10")
	avail := Availability{ResourceID: 7, Weekly: weekdays(t, 7, "13:00", "16:00")}
	booked := model.Appointment{ID: 1, ResourceID: 7, Date: friday, Start: tod(t, "14:00"), End: tod(t, "15:00"), Status: model.StatusConfirmed}
	other := model.Appointment{ID: 2, ResourceID: 8, Date: friday, Start: tod(t, "13:00"), End: tod(t, "14:00"), Status: model.StatusConfirmed}

	t.Run("occupied slots are busy and boundaries are free", func(t *testing.T) {
		got, err := FreeBusy(avail, friday, friday, []model.Appointment{booked, other}, 30)
		require.NoError(t, err)
		assert.Equal(t, []model.TimeOfDay{tod(t, "13:00"), tod(t, "13:30"), tod(t, "15:00"), tod(t, "15:30")}, got[friday].Free)
		assert.Equal(t, []model.TimeWindow{win(t, "14:00", "15:00")}, got[friday].Busy)
	})

	t.Run("cancellation frees the slot", func(t *testing.T) {
		cancelled := booked
		cancelled.Status = model.StatusCancelled
		got, err := FreeBusy(avail, friday, friday, []model.Appointment{cancelled}, 30)
		require.NoError(t, err)
		assert.Contains(t, got[friday].Free, tod(t, "14:00"))
		assert.Empty(t, got[friday].Busy)
	})

	t.Run("closed days are empty not errors", func(t *testing.T) {
		saturday := friday.AddDays(1)
		got, err := FreeBusy(avail, friday, saturday.AddDays(1), nil, 30)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.NotNil(t, got[saturday].Free)
		assert.Empty(t, got[saturday].Free)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := FreeBusy(avail, friday, friday.AddDays(-1), nil, 30)
		assert.ErrorIs(t, err, ErrInvertedRange)
	})
}

func TestFitsWithin(t *testing.T) {
	windows := []model.TimeWindow{win(t, "09:00", "12:00")}
	busy := []model.TimeWindow{win(t, "10:00", "10:30")}

	assert.True(t, FitsWithin(windows, busy, tod(t, "09:00"), 60))
	assert.False(t, FitsWithin(windows, busy, tod(t, "09:30"), 60))
	assert.True(t, FitsWithin(windows, busy, tod(t, "10:30"), 90))
	assert.False(t, FitsWithin(windows, busy, tod(t, "11:30"), 60))
}
