package refresh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"schedgrid/internal/ics"
	"schedgrid/internal/model"
)

type fakeTarget struct {
	mu     sync.Mutex
	from   time.Time
	to     time.Time
	reject bool
	binds  [][]model.Appointment
}

func (f *fakeTarget) VisibleRange() (time.Time, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.from, f.to
}

func (f *fakeTarget) SetAppointments(apps []model.Appointment) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return false
	}
	f.binds = append(f.binds, apps)
	return true
}

func (f *fakeTarget) bindCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.binds)
}

func october() *fakeTarget {
	return &fakeTarget{
		from: time.Date(2017, time.October, 1, 0, 0, 0, 0, time.UTC),
		to:   time.Date(2017, time.November, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every now and then", time.UTC, nil, october())
	assert.Error(t, err)

	r, err := New("@hourly", nil, nil, october())
	require.NoError(t, err)
	assert.Equal(t, time.Local, r.loc)
}

func TestRunOnce(t *testing.T) {
	target := october()
	var gotFrom, gotTo time.Time
	r, err := New("*/15 * * * *", time.UTC, func(_ context.Context, from, to time.Time) ([]model.Appointment, error) {
		gotFrom, gotTo = from, to
		return []model.Appointment{{UID: "a"}}, nil
	}, target)
	require.NoError(t, err)

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Equal(t, target.from, gotFrom)
	assert.Equal(t, target.to, gotTo)
	require.Equal(t, 1, target.bindCount())
	assert.Equal(t, "a", target.binds[0][0].UID)
}

func TestRunOnceFeedErrors(t *testing.T) {
	boom := errors.New("feed down")

	t.Run("nothing loaded", func(t *testing.T) {
		target := october()
		r, err := New("@hourly", time.UTC, func(context.Context, time.Time, time.Time) ([]model.Appointment, error) {
			return nil, boom
		}, target)
		require.NoError(t, err)

		err = r.RunOnce(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, target.bindCount())
	})

	t.Run("partial load", func(t *testing.T) {
		target := october()
		r, err := New("@hourly", time.UTC, func(context.Context, time.Time, time.Time) ([]model.Appointment, error) {
			return []model.Appointment{{UID: "kept"}}, boom
		}, target)
		require.NoError(t, err)

		require.NoError(t, r.RunOnce(context.Background()))
		assert.Equal(t, 1, target.bindCount())
	})

	t.Run("bind cancelled", func(t *testing.T) {
		target := october()
		target.reject = true
		r, err := New("@hourly", time.UTC, func(context.Context, time.Time, time.Time) ([]model.Appointment, error) {
			return []model.Appointment{{UID: "x"}}, nil
		}, target)
		require.NoError(t, err)

		require.NoError(t, r.RunOnce(context.Background()))
		assert.Zero(t, target.bindCount())
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	target := october()
	loaded := make(chan struct{}, 1)
	r, err := New("@hourly", time.UTC, func(context.Context, time.Time, time.Time) ([]model.Appointment, error) {
		select {
		case loaded <- struct{}{}:
		default:
		}
		return nil, nil
	}, target)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("initial refresh did not run")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, target.bindCount())
}

const standupFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//schedgrid//test//EN
BEGIN:VEVENT
UID:standup@example.com
DTSTART:20171002T090000Z
DTEND:20171002T093000Z
SUMMARY:Standup
END:VEVENT
BEGIN:VEVENT
UID:retro@example.com
DTSTART:20171201T090000Z
DTEND:20171201T100000Z
SUMMARY:Retro
END:VEVENT
END:VCALENDAR
`

func TestFeedLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/team.ics" {
			http.Error(w, "unavailable", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(standupFeed))
	}))
	defer srv.Close()

	sources := []ics.Source{
		{ID: "team", URL: srv.URL + "/team.ics", Resources: map[string][]string{"Owners": {"1"}}},
		{ID: "broken", URL: srv.URL + "/broken.ics"},
	}
	load := FeedLoader(ics.NewFetcher(t.TempDir(), srv.Client()), sources, time.UTC)

	target := october()
	apps, err := load(context.Background(), target.from, target.to)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	require.Len(t, apps, 1)
	assert.Equal(t, "Standup", apps[0].Subject)
	assert.Equal(t, "team", apps[0].SourceID)
	assert.True(t, apps[0].HasResource("Owners", "1"))
}

func TestErrorsAggregate(t *testing.T) {
	assert.NoError(t, errorsAggregate(nil))
	err := errorsAggregate([]error{errors.New("a"), errors.New("b")})
	assert.EqualError(t, err, "a; b")
}
