package schedule

import (
	"errors"
	"sort"

	"github.com/iliyamo/slot-booking/internal/model"
)

// ErrInvertedRange is returned when a date range ends before it starts.
var ErrInvertedRange = errors.New("date range ends before it starts")

// DayFreeBusy is the partition of one day's candidate slots.
type DayFreeBusy struct {
	Windows []model.TimeWindow `json:"windows"`
	Free    []model.TimeOfDay  `json:"free"`
	Busy    []model.TimeWindow `json:"busy"`
}

// BusyIntervals returns the sorted intervals occupied on date by
// appointments of resourceID.  Appointments whose status does not
// occupy time (cancelled, no_show) and the appointment with ID
// excludeID (0 excludes nothing) are skipped.
func BusyIntervals(appts []model.Appointment, resourceID uint64, date model.Date, excludeID uint64) []model.TimeWindow {
	busy := []model.TimeWindow{}
	for _, a := range appts {
		if a.ResourceID != resourceID || a.Date != date || !a.Status.Occupies() {
			continue
		}
		if excludeID != 0 && a.ID == excludeID {
			continue
		}
		busy = append(busy, a.Window())
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })
	return busy
}

// IsFree reports whether the instant t lies outside every busy interval.
// Touching a boundary is not a conflict: an interval ending at 10:00
// leaves 10:00 free.
func IsFree(t model.TimeOfDay, busy []model.TimeWindow) bool {
	for _, b := range busy {
		if b.Contains(t) {
			return false
		}
	}
	return true
}

// FitsWithin reports whether an interval of length durationMin starting
// at start lies inside one open window and overlaps no busy interval.
// This is the check every write path uses before committing.
func FitsWithin(windows, busy []model.TimeWindow, start model.TimeOfDay, durationMin int) bool {
	target := model.TimeWindow{Start: start, End: start.Add(durationMin)}
	if !target.Valid() || !Covers(windows, target) {
		return false
	}
	for _, b := range busy {
		if b.Overlaps(target) {
			return false
		}
	}
	return true
}

// FreeBusyDay computes the partition for one date.
func FreeBusyDay(avail Availability, date model.Date, appts []model.Appointment, granularity int) (DayFreeBusy, error) {
	windows := avail.Day(date)
	slots, err := GenerateSlots(windows, granularity)
	if err != nil {
		return DayFreeBusy{}, err
	}
	busy := BusyIntervals(appts, avail.ResourceID, date, 0)
	free := make([]model.TimeOfDay, 0, len(slots))
	for _, s := range slots {
		if IsFree(s, busy) {
			free = append(free, s)
		}
	}
	return DayFreeBusy{Windows: windows, Free: free, Busy: busy}, nil
}

// FreeBusy computes the partition for every date in [from, to].  A date
// without any open window yields an empty free list, never an error.
// Cost is O(slots x busy) per date, which is fine for daily volumes.
func FreeBusy(avail Availability, from, to model.Date, appts []model.Appointment, granularity int) (map[model.Date]DayFreeBusy, error) {
	if to.Before(from) {
		return nil, ErrInvertedRange
	}
	out := make(map[model.Date]DayFreeBusy, from.DaysUntil(to)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		day, err := FreeBusyDay(avail, d, appts, granularity)
		if err != nil {
			return nil, err
		}
		out[d] = day
	}
	return out, nil
}
