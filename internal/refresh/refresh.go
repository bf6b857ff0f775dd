// Package refresh reloads appointment feeds on a cron schedule and binds the
// result to a schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"schedgrid/internal/ics"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
)

// Loader returns the appointments overlapping [from, to).
type Loader func(ctx context.Context, from, to time.Time) ([]model.Appointment, error)

// Target receives refreshed appointments. Implementations must be safe for
// concurrent use; the refresher calls them from the cron goroutine.
type Target interface {
	VisibleRange() (time.Time, time.Time)
	SetAppointments(apps []model.Appointment) bool
}

// Refresher runs Loader for Target's visible range on a schedule.
type Refresher struct {
	schedule cron.Schedule
	loc      *time.Location
	load     Loader
	target   Target

	// mu serializes runs so a slow feed never overlaps the next tick.
	mu sync.Mutex
}

// New validates spec (standard 5-field cron syntax or a descriptor such as
// "@hourly") and returns a Refresher.
func New(spec string, loc *time.Location, load Loader, target Target) (*Refresher, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("refresh: invalid schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{schedule: sched, loc: loc, load: load, target: target}, nil
}

// RunOnce loads appointments for the target's current range and binds them.
func (r *Refresher) RunOnce(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, to := r.target.VisibleRange()
	started := time.Now()
	apps, err := r.load(ctx, from, to)
	if err != nil && len(apps) == 0 {
		return fmt.Errorf("refresh: %w", err)
	}
	if err != nil {
		appLog.Error("refresh completed with feed errors", err, "appointments", len(apps))
	}
	if !r.target.SetAppointments(apps) {
		appLog.Info("refresh discarded: data bind cancelled")
		return nil
	}
	appLog.Info("refresh completed",
		"appointments", len(apps),
		"range_start", from.Format(time.RFC3339),
		"range_end", to.Format(time.RFC3339),
		"took", time.Since(started).String(),
	)
	return nil
}

// Run performs an initial refresh, then refreshes on every tick until ctx is
// cancelled. It waits for a running refresh to finish before returning.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.RunOnce(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	c := cron.New(cron.WithLocation(r.loc))
	c.Schedule(r.schedule, cron.FuncJob(func() {
		if err := r.RunOnce(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}))
	c.Start()
	appLog.Debug("refresh scheduler started", "next", r.schedule.Next(time.Now().In(r.loc)).Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Debug("refresh scheduler stopped")
	return nil
}

// FeedLoader adapts ics.Collect into a Loader. Feed failures are aggregated
// into the returned error next to whatever could be loaded.
func FeedLoader(f *ics.Fetcher, sources []ics.Source, loc *time.Location) Loader {
	return func(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
		res, errs := ics.Collect(ctx, f, sources, ics.ExpandConfig{
			DisplayLocation: loc,
			RangeStart:      from,
			RangeEnd:        to,
		})
		if len(res.TruncatedEvents) > 0 {
			appLog.Info("recurrence expansion truncated", "uids", strings.Join(res.TruncatedEvents, ","))
		}
		return res.Appointments, errorsAggregate(errs)
	}
}

func errorsAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}
