package grid

import (
	"fmt"
	"strings"
	"time"
)

// View names one of the supported calendar views.
type View string

const (
	ViewDay      View = "Day"
	ViewWeek     View = "Week"
	ViewWorkWeek View = "WorkWeek"
	ViewMonth    View = "Month"
)

// ParseView accepts view names case-insensitively.
func ParseView(s string) (View, error) {
	for _, v := range []View{ViewDay, ViewWeek, ViewWorkWeek, ViewMonth} {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("grid: unknown view %q", s)
}

// ViewConfig carries everything the generator needs to lay out one view.
type ViewConfig struct {
	View   View
	Anchor Date

	// FirstDayOfWeek is the weekday of the leftmost column.
	FirstDayOfWeek time.Weekday

	// WorkDays is the global work-day set. Resources may override it.
	WorkDays WeekdaySet

	// ShowWeekend keeps non-work columns in the grid. When false they are
	// removed entirely.
	ShowWeekend bool

	// HighlightWorkDays controls whether cells are marked as work days at all.
	HighlightWorkDays bool

	// Interval is the number of periods (days, weeks or months) shown.
	Interval int

	// Location is the zone data-date attributes are computed in.
	Location *time.Location
}

// DefaultViewConfig returns a Month view anchored at anchor with the usual
// Sunday-first, Monday-to-Friday setup.
func DefaultViewConfig(anchor Date) ViewConfig {
	return ViewConfig{
		View:              ViewMonth,
		Anchor:            anchor,
		FirstDayOfWeek:    time.Sunday,
		WorkDays:          DefaultWorkDays,
		ShowWeekend:       true,
		HighlightWorkDays: true,
		Interval:          1,
		Location:          time.Local,
	}
}

// MaxInterval bounds the number of days, weeks or months one view covers.
const MaxInterval = 24

func clampInterval(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxInterval:
		return MaxInterval
	default:
		return n
	}
}

// Normalize replaces out-of-range values with defaults. Interval is clamped
// to 1..MaxInterval.
func (c *ViewConfig) Normalize() {
	if c.View == "" {
		c.View = ViewMonth
	}
	if c.FirstDayOfWeek < time.Sunday || c.FirstDayOfWeek > time.Saturday {
		c.FirstDayOfWeek = time.Sunday
	}
	c.Interval = clampInterval(c.Interval)
	if c.Location == nil {
		c.Location = time.Local
	}
}
