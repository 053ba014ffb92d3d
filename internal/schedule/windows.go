// Package schedule holds the pure availability computations: turning
// weekly rules and date exceptions into open windows, discretising
// windows into candidate slots, and partitioning slots into free and
// busy against existing appointments.  Nothing here performs I/O, so
// every result is recomputed from its inputs on each call.
package schedule

import (
	"sort"

	"github.com/iliyamo/slot-booking/internal/model"
)

// Normalize returns the windows sorted by start with overlapping and
// adjacent windows merged and empty or invalid windows dropped.
func Normalize(ws []model.TimeWindow) []model.TimeWindow {
	valid := make([]model.TimeWindow, 0, len(ws))
	for _, w := range ws {
		if w.Valid() {
			valid = append(valid, w)
		}
	}
	if len(valid) == 0 {
		return []model.TimeWindow{}
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End < valid[j].End
	})
	out := []model.TimeWindow{valid[0]}
	for _, w := range valid[1:] {
		last := &out[len(out)-1]
		if w.Start <= last.End {
			if w.End > last.End {
				last.End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// Union adds w to the set ws.
func Union(ws []model.TimeWindow, w model.TimeWindow) []model.TimeWindow {
	return Normalize(append(append([]model.TimeWindow(nil), ws...), w))
}

// Subtract removes every instant of cut from the set ws.  A window that
// straddles cut is split in two.
func Subtract(ws []model.TimeWindow, cut model.TimeWindow) []model.TimeWindow {
	ws = Normalize(ws)
	if !cut.Valid() {
		return ws
	}
	out := make([]model.TimeWindow, 0, len(ws)+1)
	for _, w := range ws {
		if !w.Overlaps(cut) {
			out = append(out, w)
			continue
		}
		if w.Start < cut.Start {
			out = append(out, model.TimeWindow{Start: w.Start, End: cut.Start})
		}
		if cut.End < w.End {
			out = append(out, model.TimeWindow{Start: cut.End, End: w.End})
		}
	}
	return out
}

// Covers reports whether target lies entirely inside one window of ws.
func Covers(ws []model.TimeWindow, target model.TimeWindow) bool {
	for _, w := range Normalize(ws) {
		if w.Covers(target) {
			return true
		}
	}
	return false
}
