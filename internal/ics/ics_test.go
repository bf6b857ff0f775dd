package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendar(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//schedgrid//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

var teamFeed = calendar(
	"BEGIN:VEVENT",
	"UID:standup",
	"SUMMARY:Standup",
	"DTSTART:20171002T090000Z",
	"DTEND:20171002T093000Z",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE:20171009T090000Z",
	"X-RESOURCE:Owners=1,3",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup",
	"SUMMARY:Standup (moved)",
	"RECURRENCE-ID:20171016T090000Z",
	"DTSTART:20171016T140000Z",
	"DTEND:20171016T150000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:offsite",
	"SUMMARY:Offsite",
	"DTSTART;VALUE=DATE:20171004",
	"DTEND;VALUE=DATE:20171006",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"SUMMARY:No UID",
	"DTSTART:20171004T100000Z",
	"END:VEVENT",
)

func TestParseICS(t *testing.T) {
	src := Source{ID: "team", URL: "https://example.com/team.ics", Resources: map[string][]string{"Rooms": {"1"}}}
	events, err := ParseICS(src, teamFeed)
	require.NoError(t, err)
	require.Len(t, events, 3, "event without UID is skipped")

	standup := events[0]
	assert.Equal(t, "standup", standup.UID)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)
	assert.Equal(t, map[string][]string{"Rooms": {"1"}, "Owners": {"1", "3"}}, standup.ResourceIDs)
	assert.False(t, standup.AllDay)

	moved := events[1]
	assert.True(t, moved.IsOverride)
	require.NotNil(t, moved.Recurrence)
	assert.Equal(t, time.Date(2017, time.October, 16, 9, 0, 0, 0, time.UTC), *moved.Recurrence)

	offsite := events[2]
	assert.True(t, offsite.AllDay)

	_, err = ParseICS(src, nil)
	assert.Error(t, err)
}

func TestExpandOccurrences(t *testing.T) {
	events, err := ParseICS(Source{ID: "team", Block: true}, teamFeed)
	require.NoError(t, err)

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2017, time.October, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2017, time.November, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, res.TruncatedEvents)

	var got []string
	for _, a := range res.Appointments {
		got = append(got, a.Subject+"@"+a.Start.Format("01-02T15:04"))
		assert.True(t, a.IsBlock)
		assert.Equal(t, "team", a.SourceID)
	}
	assert.Equal(t, []string{
		"Standup@10-02T09:00",
		"Offsite@10-04T00:00",
		"Standup (moved)@10-16T14:00",
		"Standup@10-23T09:00",
	}, got)

	offsite := res.Appointments[1]
	assert.True(t, offsite.AllDay)
	assert.Equal(t, time.Date(2017, time.October, 6, 0, 0, 0, 0, time.UTC), offsite.End)
}

func TestExpandOccurrencesCap(t *testing.T) {
	events, err := ParseICS(Source{ID: "daily"}, calendar(
		"BEGIN:VEVENT",
		"UID:daily",
		"SUMMARY:Daily",
		"DTSTART:20171001T080000Z",
		"DTEND:20171001T083000Z",
		"RRULE:FREQ=DAILY",
		"END:VEVENT",
	))
	require.NoError(t, err)

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             time.Date(2017, time.October, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:               time.Date(2017, time.October, 31, 0, 0, 0, 0, time.UTC),
		MaxOccurrencesPerEvent: 5,
	})
	require.NoError(t, err)
	assert.Len(t, res.Appointments, 5)
	assert.Equal(t, []string{"daily"}, res.TruncatedEvents)
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	_, err := ExpandOccurrences(nil, ExpandConfig{
		RangeStart: time.Date(2017, time.October, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2017, time.October, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestFetcherCachesAndFallsBack(t *testing.T) {
	var calls atomic.Int32
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if failing.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(teamFeed)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "team", URL: srv.URL + "/team.ics?token=secret"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, teamFeed, first.Body)

	second, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, second.FromCache, "304 served from cache")

	failing.Store(true)
	third, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, third.FromCache)
	assert.Equal(t, int32(3), calls.Load())

	_, errs := f.FetchAll(ctx, []Source{{ID: "empty"}})
	assert.Len(t, errs, 1)
}

func TestCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(teamFeed)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	res, errs := Collect(context.Background(), f,
		[]Source{{ID: "team", URL: srv.URL}, {ID: "broken", URL: "http://127.0.0.1:0/none.ics"}},
		ExpandConfig{
			DisplayLocation: time.UTC,
			RangeStart:      time.Date(2017, time.October, 1, 0, 0, 0, 0, time.UTC),
			RangeEnd:        time.Date(2017, time.October, 8, 0, 0, 0, 0, time.UTC),
		})
	assert.Len(t, errs, 1)
	assert.Len(t, res.Appointments, 2)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private.ics?token=abcd"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
