package grid

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateNormalizes(t *testing.T) {
	assert.Equal(t, Date{2017, time.November, 1}, NewDate(2017, time.October, 32))
	assert.Equal(t, Date{2016, time.December, 31}, NewDate(2017, time.January, 0))
}

func TestAddMonthsClampsDay(t *testing.T) {
	assert.Equal(t, Date{2018, time.February, 28}, NewDate(2018, time.January, 31).AddMonths(1))
	assert.Equal(t, Date{2020, time.February, 29}, NewDate(2020, time.January, 31).AddMonths(1))
	assert.Equal(t, Date{2017, time.September, 30}, NewDate(2017, time.October, 31).AddMonths(-1))
	assert.Equal(t, Date{2018, time.January, 5}, NewDate(2017, time.November, 5).AddMonths(2))
}

func TestStartOfWeek(t *testing.T) {
	oct5 := NewDate(2017, time.October, 5) // Thursday
	assert.Equal(t, NewDate(2017, time.October, 1), StartOfWeek(oct5, time.Sunday))
	assert.Equal(t, NewDate(2017, time.October, 2), StartOfWeek(oct5, time.Monday))
	assert.Equal(t, NewDate(2017, time.October, 5), StartOfWeek(oct5, time.Thursday))
	assert.Equal(t, NewDate(2017, time.September, 29), StartOfWeek(oct5, time.Friday))
}

func TestCompareAndDaysUntil(t *testing.T) {
	a := NewDate(2017, time.October, 1)
	b := NewDate(2017, time.October, 2)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, 1, a.DaysUntil(b))
	assert.Equal(t, -365, NewDate(2018, time.October, 1).DaysUntil(a))

	// beyond the ~292 year range of time.Duration
	assert.Equal(t, 146097, NewDate(2000, time.January, 1).DaysUntil(NewDate(2400, time.January, 1)))
	assert.Equal(t, -146097, NewDate(2400, time.January, 1).DaysUntil(NewDate(2000, time.January, 1)))
	assert.Len(t, dateRange(NewDate(2017, time.October, 1), NewDate(2350, time.October, 1)), 121626)
}

func TestDataDateRoundTrip(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	d := NewDate(2017, time.October, 1)

	attr := d.DataDate(loc)
	assert.Equal(t, "1506783600000", attr)

	got, err := ParseDataDate(attr, loc)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	_, err = ParseDataDate("", loc)
	assert.Error(t, err)
	_, err = ParseDataDate("not-a-number", loc)
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2018, time.April, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2018-04-01"}`, string(b))

	var back struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, NewDate(2018, time.April, 1), back.D)

	assert.Error(t, json.Unmarshal([]byte(`{"d":"2018-13-01"}`), &back))
}
