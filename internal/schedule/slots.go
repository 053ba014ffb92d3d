package schedule

import (
	"errors"

	"github.com/iliyamo/slot-booking/internal/model"
)

// DefaultGranularity is the slot step used when none is configured.
const DefaultGranularity = 30

// ErrInvalidGranularity is returned for a non-positive slot step.
var ErrInvalidGranularity = errors.New("granularity must be positive")

// GenerateSlots discretises windows into candidate start times
// start, start+g, start+2g, ... strictly before each window's end.
// Whether an appointment of a given length fits after a slot is left to
// the caller.  The windows are normalised first, so the output is
// sorted and free of duplicates for any input.
func GenerateSlots(windows []model.TimeWindow, granularityMinutes int) ([]model.TimeOfDay, error) {
	if granularityMinutes <= 0 {
		return nil, ErrInvalidGranularity
	}
	slots := []model.TimeOfDay{}
	for _, w := range Normalize(windows) {
		for t := w.Start; t < w.End; t = t.Add(granularityMinutes) {
			if n := len(slots); n > 0 && slots[n-1] >= t {
				continue
			}
			slots = append(slots, t)
		}
	}
	return slots, nil
}
