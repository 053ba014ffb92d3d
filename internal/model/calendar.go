package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a TimeOfDay.  A window
// may end at MinutesPerDay ("24:00") to mean "until midnight".
const MinutesPerDay = 24 * 60

const dateLayout = "2006-01-02"

// Date is a calendar day in the business's local offset.  It carries no
// clock time and no zone, so two Dates compare equal whenever they name
// the same day.  Date is comparable and can be used as a map key; it
// marshals to and from "YYYY-MM-DD" (also as a JSON object key).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of the day in UTC.  It is meant for arithmetic
// and formatting, not for comparing against wall-clock instants.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Weekday returns the day of week, Sunday = 0.
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

// DaysUntil returns the number of days from d to o (negative when o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()).Hours() / 24)
}

func (d Date) String() string { return d.Time().Format(dateLayout) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores a Date as a "YYYY-MM-DD" string so that lexical and
// chronological ordering agree in every SQL dialect we run against.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

// TimeOfDay is a local wall-clock time expressed in minutes since
// midnight.  Valid values are 0..MinutesPerDay inclusive.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hours and minutes.
func NewTimeOfDay(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (seconds are ignored).
// "24:00" is accepted as the end of the day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	t := NewTimeOfDay(h, m)
	if !t.Valid() {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return t, nil
}

// Valid reports whether t lies within a day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t <= MinutesPerDay }

// Add returns t shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay { return t + TimeOfDay(minutes) }

// On returns the instant at which t occurs on day d in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc).Add(time.Duration(t) * time.Minute)
}

// TimeOfDayOf returns the wall-clock minutes of the instant in its location.
func TimeOfDayOf(ts time.Time) TimeOfDay {
	return NewTimeOfDay(ts.Hour(), ts.Minute())
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60) }

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores a TimeOfDay as its minute count.
func (t TimeOfDay) Value() (driver.Value, error) { return int64(t), nil }

// Scan implements sql.Scanner.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
		return nil
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return err
		}
		*t = TimeOfDay(n)
		return nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*t = TimeOfDay(n)
		return nil
	}
	return fmt.Errorf("cannot scan %T into TimeOfDay", src)
}

// TimeWindow is a half-open interval [Start, End) of local time on a
// single day.  It is used both for open working windows and for busy
// intervals occupied by appointments.
type TimeWindow struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Valid reports whether the window is non-empty and inside one day.
func (w TimeWindow) Valid() bool {
	return w.Start >= 0 && w.End <= MinutesPerDay && w.Start < w.End
}

// Contains reports whether the instant t falls inside [Start, End).
func (w TimeWindow) Contains(t TimeOfDay) bool { return w.Start <= t && t < w.End }

// Overlaps reports whether two half-open windows share any instant.
// Windows that merely touch (one ends where the other starts) do not.
func (w TimeWindow) Overlaps(o TimeWindow) bool { return w.Start < o.End && o.Start < w.End }

// Covers reports whether o lies entirely inside w.
func (w TimeWindow) Covers(o TimeWindow) bool { return w.Start <= o.Start && o.End <= w.End }

// Minutes returns the window length.
func (w TimeWindow) Minutes() int { return int(w.End - w.Start) }

func (w TimeWindow) String() string { return "[" + w.Start.String() + "," + w.End.String() + ")" }
