package schedule

import (
	"time"

	"schedgrid/internal/grid"
	"schedgrid/internal/model"
)

// CellPlacement lists the appointments shown in one work cell.
type CellPlacement struct {
	Cell grid.Cell `json:"cell"`

	// Appointments are the visible (non-block) appointments, at most the
	// configured per-cell limit, in start order.
	Appointments []model.Appointment `json:"appointments"`

	// More counts appointments hidden behind the limit.
	More int `json:"more"`

	// Blocked is set when a block appointment covers the cell.
	Blocked bool `json:"blocked"`
}

// Placements returns one entry per layout cell, in document order.
func (s *Scheduler) Placements() []CellPlacement {
	return s.placements
}

// place distributes apps over the layout's cells. An appointment lands in a
// group's cells only if it is assigned to every resource on that group's
// path; ungrouped layouts accept all appointments.
func place(l *grid.Layout, tree *grid.ResourceTree, apps []model.Appointment, limit int) []CellPlacement {
	out := make([]CellPlacement, len(l.Cells))
	for i, c := range l.Cells {
		out[i].Cell = c
	}
	loc := l.Location()

	for _, a := range apps {
		first, last := coveredDates(a, loc)
		if last.Before(l.Start) || first.After(l.End) {
			continue
		}
		if first.Before(l.Start) {
			first = l.Start
		}
		if last.After(l.End) {
			last = l.End
		}
		for g := 0; g < l.GroupCount; g++ {
			if !matchesGroup(a, tree.Leaf(g)) {
				continue
			}
			for d := first; !d.After(last); d = d.AddDays(1) {
				i := l.CellIndex(d, g)
				if i < 0 {
					continue // hidden weekend column
				}
				p := &out[i]
				switch {
				case a.IsBlock:
					p.Blocked = true
				case len(p.Appointments) < limit:
					p.Appointments = append(p.Appointments, a)
				default:
					p.More++
				}
			}
		}
	}
	return out
}

// coveredDates returns the first and last calendar day a spans in loc. An
// end exactly at midnight does not cover that day.
func coveredDates(a model.Appointment, loc *time.Location) (grid.Date, grid.Date) {
	start := a.Start.In(loc)
	end := a.End.In(loc)
	first := grid.DateOf(start)
	if !end.After(start) {
		return first, first
	}
	last := grid.DateOf(end)
	if end.Equal(last.In(loc)) {
		last = last.AddDays(-1)
	}
	return first, last
}

func matchesGroup(a model.Appointment, leaf *grid.ResourceNode) bool {
	for n := leaf; n != nil; n = n.Parent {
		if !a.HasResource(n.LevelName, n.Resource.ID) {
			return false
		}
	}
	return true
}
