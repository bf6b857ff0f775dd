package schedule

import (
	"schedgrid/internal/grid"
)

// CellDetails resolves a cell from its data-date attribute. An absent or
// unrendered date yields ok == false.
func (s *Scheduler) CellDetails(dataDate string, group int) (grid.CellDetails, bool) {
	return s.layout.CellDetails(dataDate, group)
}

// ClickCell raises CellClick for the cell and, unless cancelled, selects it.
// Blocked cells raise the event but are never selected.
func (s *Scheduler) ClickCell(dataDate string, group int) bool {
	args, idx, ok := s.clickArgs("cellClick", dataDate, group)
	if !ok {
		return false
	}
	if s.handlers.CellClick != nil {
		s.handlers.CellClick(args)
	}
	if args.Cancel || s.placements[idx].Blocked {
		return false
	}
	s.commitSelection([]int{idx})
	return true
}

// DoubleClickCell raises CellDoubleClick. It reports false when the cell is
// unknown or the handler cancelled.
func (s *Scheduler) DoubleClickCell(dataDate string, group int) bool {
	args, _, ok := s.clickArgs("cellDoubleClick", dataDate, group)
	if !ok {
		return false
	}
	if s.handlers.CellDoubleClick != nil {
		s.handlers.CellDoubleClick(args)
	}
	return !args.Cancel
}

// SelectRange selects every unblocked cell of group between the two dates,
// inclusive and in either order, as a drag across cells does.
func (s *Scheduler) SelectRange(fromDataDate, toDataDate string, group int) bool {
	loc := s.layout.Location()
	from, err := grid.ParseDataDate(fromDataDate, loc)
	if err != nil {
		return false
	}
	to, err := grid.ParseDataDate(toDataDate, loc)
	if err != nil {
		return false
	}
	if to.Before(from) {
		from, to = to, from
	}

	var picked []int
	for i, c := range s.layout.Cells {
		if c.GroupIndex != group || c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		if s.placements[i].Blocked {
			continue
		}
		picked = append(picked, i)
	}
	if len(picked) == 0 {
		return false
	}
	s.commitSelection(picked)
	return true
}

// ClearSelection drops the current selection.
func (s *Scheduler) ClearSelection() {
	s.selected = nil
}

// Selected returns the selected cells in document order.
func (s *Scheduler) Selected() []grid.Cell {
	out := make([]grid.Cell, 0, len(s.selected))
	for _, i := range s.selected {
		out = append(out, s.layout.Cells[i])
	}
	return out
}

func (s *Scheduler) clickArgs(name, dataDate string, group int) (*CellClickEventArgs, int, bool) {
	details, ok := s.layout.CellDetails(dataDate, group)
	if !ok {
		return nil, -1, false
	}
	idx := s.layout.CellIndex(grid.DateOf(details.StartTime), group)
	return &CellClickEventArgs{
		Name:       name,
		StartTime:  details.StartTime,
		EndTime:    details.EndTime,
		IsAllDay:   details.IsAllDay,
		GroupIndex: group,
	}, idx, true
}

func (s *Scheduler) commitSelection(idx []int) {
	s.selected = idx
	if s.handlers.Select != nil {
		s.handlers.Select(&SelectEventArgs{Name: "select", Cells: s.Selected()})
	}
}
