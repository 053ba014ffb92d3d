package model

import "time"

// WeeklyAvailability is the recurring working-hours rule of a resource
// for one day of the week.  A resource has at most one row per day and
// the whole week is replaced at once.  Start < End whenever Active.
//
// Fields:
//  ResourceID – resource the rule belongs to.
//  DayOfWeek  – 0 (Sunday) .. 6 (Saturday).
//  Active     – whether the resource works on that day.
//  Start      – local start of the working window.
//  End        – local end of the working window (exclusive).
type WeeklyAvailability struct {
	ResourceID uint64       `json:"resource_id"` // weekly_availability.resource_id
	DayOfWeek  time.Weekday `json:"day_of_week"` // weekly_availability.day_of_week
	Active     bool         `json:"active"`      // weekly_availability.active
	Start      TimeOfDay    `json:"start"`       // weekly_availability.start_min
	End        TimeOfDay    `json:"end"`         // weekly_availability.end_min
}

// Window returns the rule as a TimeWindow.
func (w WeeklyAvailability) Window() TimeWindow { return TimeWindow{Start: w.Start, End: w.End} }

// ExceptionKind tells whether an exception removes or grants time.
type ExceptionKind string

const (
	ExceptionBlock ExceptionKind = "block"
	ExceptionExtra ExceptionKind = "extra"
)

// Valid reports whether k is a known kind.
func (k ExceptionKind) Valid() bool { return k == ExceptionBlock || k == ExceptionExtra }

// Exception is a one-off override for one exact date layered on top of
// the weekly rule: a holiday, a vacation day, a custom closure, or an
// extra opening on an otherwise closed day.  Several exceptions may
// exist for the same date.
//
// Fields:
//  ID         – primary key identifier.
//  ResourceID – resource the exception applies to.
//  Date       – the day affected.
//  AllDay     – when true Start/End are ignored.
//  Start/End  – affected sub-interval for partial exceptions.
//  Reason     – free text shown to staff.
//  Kind       – block or extra.
type Exception struct {
	ID         uint64        `json:"id"`              // availability_exceptions.id
	ResourceID uint64        `json:"resource_id"`     // availability_exceptions.resource_id
	Date       Date          `json:"date"`            // availability_exceptions.day
	AllDay     bool          `json:"all_day"`         // availability_exceptions.all_day
	Start      *TimeOfDay    `json:"start,omitempty"` // availability_exceptions.start_min (nullable)
	End        *TimeOfDay    `json:"end,omitempty"`   // availability_exceptions.end_min (nullable)
	Reason     string        `json:"reason"`          // availability_exceptions.reason
	Kind       ExceptionKind `json:"kind"`            // availability_exceptions.kind
	CreatedAt  time.Time     `json:"created_at"`      // availability_exceptions.created_at
}

// Window returns the interval the exception acts on.  All-day
// exceptions cover the whole day.
func (e Exception) Window() TimeWindow {
	if e.AllDay || e.Start == nil || e.End == nil {
		return TimeWindow{Start: 0, End: MinutesPerDay}
	}
	return TimeWindow{Start: *e.Start, End: *e.End}
}
