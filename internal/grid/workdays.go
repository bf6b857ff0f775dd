package grid

import "time"

// WeekdaySet is a set of weekdays, bit n standing for time.Weekday(n).
type WeekdaySet uint8

// DefaultWorkDays is Monday through Friday.
const DefaultWorkDays WeekdaySet = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday

// NewWeekdaySet builds a set from day numbers (0 = Sunday). Values outside
// 0..6 are ignored.
func NewWeekdaySet(days ...int) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d < 0 || d > 6 {
			continue
		}
		s |= 1 << uint(d)
	}
	return s
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Len returns the number of weekdays in the set.
func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days returns the set as ascending day numbers.
func (s WeekdaySet) Days() []int {
	out := make([]int, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, int(d))
		}
	}
	return out
}

// ColumnWeekdays returns the weekday of each grid column, starting at first.
// With showWeekend false only work days remain; an empty work-day set keeps
// all seven columns so the grid never collapses to nothing.
func ColumnWeekdays(first time.Weekday, work WeekdaySet, showWeekend bool) []time.Weekday {
	cols := make([]time.Weekday, 0, 7)
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(first) + i) % 7)
		if !showWeekend && work != 0 && !work.Has(wd) {
			continue
		}
		cols = append(cols, wd)
	}
	return cols
}

// WorkDayMask marks which columns are working days. When highlight is false
// nothing is marked.
func WorkDayMask(cols []time.Weekday, work WeekdaySet, highlight bool) []bool {
	mask := make([]bool, len(cols))
	if !highlight {
		return mask
	}
	for i, wd := range cols {
		mask[i] = work.Has(wd)
	}
	return mask
}

// FilterDates drops dates whose weekday is not in work, preserving order.
// An empty set returns dates unchanged.
func FilterDates(dates []Date, work WeekdaySet) []Date {
	if work == 0 {
		return dates
	}
	out := make([]Date, 0, len(dates))
	for _, d := range dates {
		if work.Has(d.Weekday()) {
			out = append(out, d)
		}
	}
	return out
}
