// Package schedule drives a computed grid the way an interactive calendar
// does: navigation, view switching, cell clicks and selections, each raised
// through cancellable callbacks before the change commits.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"schedgrid/internal/grid"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
)

// Options configures a Scheduler.
type Options struct {
	View   grid.ViewConfig
	Levels []grid.ResourceLevel
	Group  grid.GroupConfig

	// MaxPerCell caps the appointments listed per cell. Zero means 3.
	MaxPerCell int

	Handlers Handlers

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Scheduler owns one view's state. It is not safe for concurrent use;
// callers sharing it across goroutines must serialize access.
type Scheduler struct {
	cfg        grid.ViewConfig
	levels     []grid.ResourceLevel
	group      grid.GroupConfig
	tree       *grid.ResourceTree
	maxPerCell int
	handlers   Handlers
	now        func() time.Time

	layout       *grid.Layout
	selected     []int
	appointments []model.Appointment
	placements   []CellPlacement
}

// New builds the scheduler and performs the initial render.
func New(opts Options) (*Scheduler, error) {
	opts.View.Normalize()
	if opts.MaxPerCell <= 0 {
		opts.MaxPerCell = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tree, err := grid.ExpandResources(opts.Levels, opts.Group, opts.View.WorkDays)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	s := &Scheduler{
		cfg:        opts.View,
		levels:     opts.Levels,
		group:      opts.Group,
		tree:       tree,
		maxPerCell: opts.MaxPerCell,
		handlers:   opts.Handlers,
		now:        opts.Now,
	}
	if s.handlers.Created != nil {
		s.handlers.Created()
	}
	s.rebuild()
	s.bind(nil)
	return s, nil
}

// Config returns the current view configuration.
func (s *Scheduler) Config() grid.ViewConfig {
	return s.cfg
}

// Grouping returns the current resource grouping.
func (s *Scheduler) Grouping() grid.GroupConfig {
	return s.group
}

// Layout returns the current layout.
func (s *Scheduler) Layout() *grid.Layout {
	return s.layout
}

// Today returns the current date in the view's location.
func (s *Scheduler) Today() grid.Date {
	return grid.DateOf(s.now().In(s.cfg.Location))
}

// VisibleRange returns the half-open time span covered by the layout.
func (s *Scheduler) VisibleRange() (time.Time, time.Time) {
	return s.layout.Start.In(s.cfg.Location), s.layout.End.AddDays(1).In(s.cfg.Location)
}

// Next moves one period forward. It reports whether the move committed.
func (s *Scheduler) Next() bool {
	return s.navigateDate(grid.Next(s.cfg))
}

// Previous moves one period back.
func (s *Scheduler) Previous() bool {
	return s.navigateDate(grid.Previous(s.cfg))
}

// NavigateTo moves the anchor to d.
func (s *Scheduler) NavigateTo(d grid.Date) bool {
	return s.navigateDate(d)
}

// ChangeView switches to v, keeping the anchor date.
func (s *Scheduler) ChangeView(v grid.View) bool {
	return s.navigateView(v, s.cfg.Anchor)
}

// OpenDay switches to the Day view of d, as a click on a month cell's date
// header does.
func (s *Scheduler) OpenDay(d grid.Date) bool {
	return s.navigateView(grid.ViewDay, d)
}

func (s *Scheduler) navigateDate(target grid.Date) bool {
	begin := &ActionEventArgs{Name: "actionBegin", RequestType: RequestDateNavigate}
	if s.raiseBegin(begin) {
		return false
	}
	nav := &NavigatingEventArgs{
		Name:         "navigating",
		Action:       NavigateDate,
		PreviousDate: s.cfg.Anchor,
		CurrentDate:  target,
	}
	if s.handlers.Navigating != nil {
		s.handlers.Navigating(nav)
	}
	if nav.Cancel {
		appLog.Debug("date navigation cancelled", "from", s.cfg.Anchor, "to", target)
		return false
	}

	s.cfg.Anchor = target
	s.rebuild()
	s.raiseComplete(RequestDateNavigate)
	return true
}

func (s *Scheduler) navigateView(v grid.View, anchor grid.Date) bool {
	begin := &ActionEventArgs{Name: "actionBegin", RequestType: RequestViewNavigate}
	if s.raiseBegin(begin) {
		return false
	}
	nav := &NavigatingEventArgs{
		Name:         "navigating",
		Action:       NavigateView,
		PreviousView: s.cfg.View,
		CurrentView:  v,
		PreviousDate: s.cfg.Anchor,
		CurrentDate:  anchor,
	}
	if s.handlers.Navigating != nil {
		s.handlers.Navigating(nav)
	}
	if nav.Cancel {
		appLog.Debug("view navigation cancelled", "from", s.cfg.View, "to", v)
		return false
	}

	s.cfg.View = v
	s.cfg.Anchor = anchor
	s.rebuild()
	s.raiseComplete(RequestViewNavigate)
	return true
}

// Update applies property changes (work days, first day of week, ...) and
// re-renders. No navigation events are raised.
func (s *Scheduler) Update(fn func(*grid.ViewConfig)) error {
	next := s.cfg
	fn(&next)
	next.Normalize()
	tree, err := grid.ExpandResources(s.levels, s.group, next.WorkDays)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	s.cfg, s.tree = next, tree
	s.rebuild()
	return nil
}

// Preview lays out the view fn derives from the current configuration,
// using the current grouping. State is left untouched and no events fire.
func (s *Scheduler) Preview(fn func(*grid.ViewConfig)) *grid.Layout {
	c := s.cfg
	fn(&c)
	c.Normalize()
	return grid.Build(c, s.tree, s.Today())
}

// SetGrouping replaces the resource grouping and re-renders.
func (s *Scheduler) SetGrouping(g grid.GroupConfig) error {
	tree, err := grid.ExpandResources(s.levels, g, s.cfg.WorkDays)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	s.group, s.tree = g, tree
	s.rebuild()
	return nil
}

// SetAppointments binds a new appointment list. It is reported as a
// dataBind action and can be cancelled from ActionBegin. The bound list is a
// copy of apps ordered by start, then UID.
func (s *Scheduler) SetAppointments(apps []model.Appointment) bool {
	return s.bind(apps)
}

// Appointments returns the bound appointments.
func (s *Scheduler) Appointments() []model.Appointment {
	return s.appointments
}

func (s *Scheduler) bind(apps []model.Appointment) bool {
	begin := &ActionEventArgs{Name: "actionBegin", RequestType: RequestDataBind}
	if s.raiseBegin(begin) {
		return false
	}
	s.appointments = sortedAppointments(apps)
	s.placements = place(s.layout, s.tree, s.appointments, s.maxPerCell)
	s.raiseComplete(RequestDataBind)
	return true
}

func sortedAppointments(apps []model.Appointment) []model.Appointment {
	if apps == nil {
		return nil
	}
	out := append([]model.Appointment(nil), apps...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.UID < b.UID
	})
	return out
}

// rebuild recomputes the layout, clears the selection and raises RenderCell
// for every date header and work cell.
func (s *Scheduler) rebuild() {
	s.layout = grid.Build(s.cfg, s.tree, s.Today())
	s.selected = nil
	s.placements = place(s.layout, s.tree, s.appointments, s.maxPerCell)

	appLog.Debug("layout rebuilt",
		"view", s.cfg.View,
		"anchor", s.cfg.Anchor,
		"cells", len(s.layout.Cells),
		"groups", s.layout.GroupCount,
	)

	if s.handlers.RenderCell == nil {
		return
	}
	for _, row := range s.layout.HeaderRows {
		for _, h := range row {
			if h.Kind != grid.HeaderDate {
				continue
			}
			args := &RenderCellEventArgs{Name: "renderCell", ElementType: "dateHeader"}
			if h.Date != nil {
				args.Date = *h.Date
			}
			s.handlers.RenderCell(args)
		}
	}
	for _, c := range s.layout.Cells {
		s.handlers.RenderCell(&RenderCellEventArgs{
			Name:        "renderCell",
			ElementType: "workCells",
			Date:        c.Date,
			GroupIndex:  c.GroupIndex,
		})
	}
}

// raiseBegin reports whether the handler cancelled the action.
func (s *Scheduler) raiseBegin(args *ActionEventArgs) bool {
	if s.handlers.ActionBegin != nil {
		s.handlers.ActionBegin(args)
	}
	return args.Cancel
}

func (s *Scheduler) raiseComplete(rt RequestType) {
	if s.handlers.ActionComplete != nil {
		s.handlers.ActionComplete(&ActionEventArgs{Name: "actionComplete", RequestType: rt})
	}
}
