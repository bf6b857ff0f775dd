package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWeekdaySetIgnoresInvalid(t *testing.T) {
	s := NewWeekdaySet(0, 3, 7, -1, 3)
	assert.Equal(t, []int{0, 3}, s.Days())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(time.Sunday))
	assert.False(t, s.Has(time.Monday))
}

func TestDefaultWorkDays(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5}, DefaultWorkDays.Days())
}

func TestColumnWeekdays(t *testing.T) {
	cols := ColumnWeekdays(time.Tuesday, DefaultWorkDays, true)
	assert.Equal(t, []time.Weekday{
		time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		time.Saturday, time.Sunday, time.Monday,
	}, cols)

	cols = ColumnWeekdays(time.Tuesday, DefaultWorkDays, false)
	assert.Equal(t, []time.Weekday{
		time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Monday,
	}, cols)

	assert.Len(t, ColumnWeekdays(time.Sunday, 0, false), 7)
}

func TestWorkDayMask(t *testing.T) {
	cols := ColumnWeekdays(time.Sunday, DefaultWorkDays, true)
	assert.Equal(t, []bool{false, true, true, true, true, true, false}, WorkDayMask(cols, DefaultWorkDays, true))
	assert.Equal(t, make([]bool, 7), WorkDayMask(cols, DefaultWorkDays, false))
}

func TestFilterDatesPreservesOrder(t *testing.T) {
	dates := MonthDates(NewDate(2017, time.October, 5), time.Sunday, 1)
	work := NewWeekdaySet(0, 2, 3)
	got := FilterDates(dates, work)
	assert.Len(t, got, 15)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Before(got[i]))
	}
	for _, d := range got {
		assert.True(t, work.Has(d.Weekday()))
	}
	assert.Equal(t, dates, FilterDates(dates, 0))
}
