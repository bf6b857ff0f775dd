package grid

import "time"

// MonthDates returns every date of the whole weeks that cover the interval
// months starting with anchor's month. The first date falls on first and the
// result length is always a multiple of seven. A single month always spans
// five or six weeks: a February that fits exactly in four gets a trailing
// week of next-month dates.
func MonthDates(anchor Date, first time.Weekday, interval int) []Date {
	interval = clampInterval(interval)
	from := StartOfWeek(anchor.FirstOfMonth(), first)
	lastMonth := anchor.FirstOfMonth().AddMonths(interval - 1)
	to := StartOfWeek(lastMonth.LastOfMonth(), first).AddDays(6)
	if from.DaysUntil(to) < 5*7-1 {
		to = from.AddDays(5*7 - 1)
	}
	return dateRange(from, to)
}

// WeekDates returns 7*interval dates starting at the week containing anchor.
func WeekDates(anchor Date, first time.Weekday, interval int) []Date {
	interval = clampInterval(interval)
	from := StartOfWeek(anchor, first)
	return dateRange(from, from.AddDays(7*interval-1))
}

// DayDates returns interval consecutive dates starting at anchor.
func DayDates(anchor Date, interval int) []Date {
	interval = clampInterval(interval)
	return dateRange(anchor, anchor.AddDays(interval-1))
}

// RenderDates returns the dates the configured view shows, after the
// weekend filter. WorkWeek is always restricted to work days.
func RenderDates(c ViewConfig) []Date {
	c.Normalize()
	var dates []Date
	switch c.View {
	case ViewDay:
		dates = DayDates(c.Anchor, c.Interval)
	case ViewWeek, ViewWorkWeek:
		dates = WeekDates(c.Anchor, c.FirstDayOfWeek, c.Interval)
	default:
		dates = MonthDates(c.Anchor, c.FirstDayOfWeek, c.Interval)
	}
	if c.View == ViewWorkWeek || !c.ShowWeekend {
		dates = FilterDates(dates, c.WorkDays)
	}
	return dates
}

// MonthBounds returns the first and last day of the months a Month view with
// this config treats as current. Dates outside are "other month" cells.
func MonthBounds(c ViewConfig) (Date, Date) {
	c.Normalize()
	first := c.Anchor.FirstOfMonth()
	return first, first.AddMonths(c.Interval - 1).LastOfMonth()
}

// Next returns the anchor one navigation step forward.
func Next(c ViewConfig) Date {
	return step(c, 1)
}

// Previous returns the anchor one navigation step back.
func Previous(c ViewConfig) Date {
	return step(c, -1)
}

func step(c ViewConfig, dir int) Date {
	c.Normalize()
	switch c.View {
	case ViewDay:
		return c.Anchor.AddDays(dir * c.Interval)
	case ViewWeek, ViewWorkWeek:
		return c.Anchor.AddDays(dir * 7 * c.Interval)
	default:
		return c.Anchor.AddMonths(dir * c.Interval)
	}
}

func dateRange(from, to Date) []Date {
	n := from.DaysUntil(to) + 1
	if n <= 0 {
		return nil
	}
	out := make([]Date, n)
	for i := range out {
		out[i] = from.AddDays(i)
	}
	return out
}
