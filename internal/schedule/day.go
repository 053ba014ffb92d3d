package schedule

import "github.com/iliyamo/slot-booking/internal/model"

// Availability bundles the recurring rules and date exceptions of one
// resource.
type Availability struct {
	ResourceID uint64
	Weekly     []model.WeeklyAvailability
	Exceptions []model.Exception
}

// DaySchedule computes the open windows of a resource on date.
//
// The weekly rule for date's weekday seeds the set (empty when the day
// is missing or inactive).  Every extra exception on that date is
// unioned in, then every partial block is subtracted, and an all-day
// block empties the day.  Because all grants are applied before all
// removals the result does not depend on the order of exceptions.
func DaySchedule(weekly []model.WeeklyAvailability, exceptions []model.Exception, date model.Date) []model.TimeWindow {
	windows := []model.TimeWindow{}
	for _, rule := range weekly {
		if rule.DayOfWeek == date.Weekday() && rule.Active {
			windows = Union(windows, rule.Window())
		}
	}

	var blocks []model.Exception
	for _, ex := range exceptions {
		if ex.Date != date {
			continue
		}
		switch ex.Kind {
		case model.ExceptionExtra:
			windows = Union(windows, ex.Window())
		case model.ExceptionBlock:
			blocks = append(blocks, ex)
		}
	}
	for _, ex := range blocks {
		if ex.AllDay {
			return []model.TimeWindow{}
		}
		windows = Subtract(windows, ex.Window())
	}
	return Normalize(windows)
}

// Day is a convenience wrapper over DaySchedule.
func (a Availability) Day(date model.Date) []model.TimeWindow {
	return DaySchedule(a.Weekly, a.Exceptions, date)
}
