package grid

import (
	"strconv"
	"time"
)

// HeaderKind distinguishes resource header cells from date header cells.
type HeaderKind string

const (
	HeaderResource HeaderKind = "resource"
	HeaderDate     HeaderKind = "date"
)

// HeaderCell is one cell of a header row.
type HeaderCell struct {
	Kind    HeaderKind   `json:"kind"`
	Text    string       `json:"text"`
	ColSpan int          `json:"colspan"`
	Weekday time.Weekday `json:"weekday"`

	// Date is set for Day/Week/WorkWeek date headers only. Month headers
	// stand for a whole column of weekdays.
	Date *Date `json:"date,omitempty"`

	// ResourceID and Level are set for resource headers.
	ResourceID string `json:"resource_id,omitempty"`
	Level      int    `json:"level,omitempty"`
	Color      string `json:"color,omitempty"`

	IsCurrentDay bool `json:"current_day,omitempty"`
}

// Cell is one work cell of the grid.
type Cell struct {
	Date       Date   `json:"date"`
	DataDate   string `json:"data_date"`
	GroupIndex int    `json:"group_index"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Label      string `json:"label"`

	IsWorkDay     bool `json:"work_day"`
	IsOtherMonth  bool `json:"other_month,omitempty"`
	IsCurrentDate bool `json:"current_date,omitempty"`
}

// Layout is the computed structure of one rendered view.
type Layout struct {
	View        View           `json:"view"`
	Anchor      Date           `json:"anchor"`
	Start       Date           `json:"start"`
	End         Date           `json:"end"`
	Columns     []time.Weekday `json:"columns"`
	Rows        int            `json:"rows"`
	GroupCount  int            `json:"group_count"`
	ByDate      bool           `json:"by_date"`
	RenderDates []Date         `json:"render_dates"`
	HeaderRows  [][]HeaderCell `json:"header_rows"`
	Cells       []Cell         `json:"cells"`

	loc   *time.Location
	index map[cellKey]int
}

type cellKey struct {
	date  Date
	group int
}

// Build lays out the view described by c, expanded over tree (which may be
// nil for an ungrouped schedule). today drives current-day highlighting.
func Build(c ViewConfig, tree *ResourceTree, today Date) *Layout {
	c.Normalize()
	dates := RenderDates(c)

	l := &Layout{
		View:        c.View,
		Anchor:      c.Anchor,
		RenderDates: dates,
		GroupCount:  tree.GroupCount(),
		ByDate:      tree != nil && tree.ByDate && len(tree.Leaves) > 0,
		loc:         c.Location,
	}
	if len(dates) > 0 {
		l.Start, l.End = dates[0], dates[len(dates)-1]
	}

	// Month views wrap into weekly rows; the other views are a single row of
	// dates.
	if c.View == ViewMonth {
		l.Columns = ColumnWeekdays(c.FirstDayOfWeek, c.WorkDays, c.ShowWeekend)
	} else {
		l.Columns = make([]time.Weekday, len(dates))
		for i, d := range dates {
			l.Columns[i] = d.Weekday()
		}
	}
	cols := len(l.Columns)
	if cols > 0 {
		l.Rows = len(dates) / cols
	}

	l.HeaderRows = buildHeaders(c, l, tree, today)
	l.Cells = buildCells(c, l, tree, today)

	l.index = make(map[cellKey]int, len(l.Cells))
	for i, cell := range l.Cells {
		l.index[cellKey{cell.Date, cell.GroupIndex}] = i
	}
	return l
}

func buildHeaders(c ViewConfig, l *Layout, tree *ResourceTree, today Date) [][]HeaderCell {
	cols := len(l.Columns)
	dateHeader := func(col, span int) HeaderCell {
		h := HeaderCell{Kind: HeaderDate, ColSpan: span, Weekday: l.Columns[col]}
		if c.View == ViewMonth {
			h.Text = h.Weekday.String()
			h.IsCurrentDay = h.Weekday == today.Weekday()
		} else {
			d := l.RenderDates[col]
			h.Date = &d
			h.Text = h.Weekday.String()[:3] + " " + strconv.Itoa(d.Day)
			h.IsCurrentDay = d == today
		}
		return h
	}
	resourceHeader := func(n *ResourceNode, span int) HeaderCell {
		return HeaderCell{
			Kind:       HeaderResource,
			Text:       n.Resource.Text,
			ColSpan:    span,
			ResourceID: n.Resource.ID,
			Level:      n.Level,
			Color:      n.Resource.Color,
		}
	}

	var rows [][]HeaderCell
	if tree == nil || len(tree.Leaves) == 0 {
		row := make([]HeaderCell, 0, cols)
		for i := 0; i < cols; i++ {
			row = append(row, dateHeader(i, 1))
		}
		return append(rows, row)
	}

	if tree.ByDate {
		row := make([]HeaderCell, 0, cols)
		for i := 0; i < cols; i++ {
			row = append(row, dateHeader(i, len(tree.Leaves)))
		}
		rows = append(rows, row)
		for _, level := range tree.Levels {
			row := make([]HeaderCell, 0, cols*len(level))
			for i := 0; i < cols; i++ {
				for _, n := range level {
					row = append(row, resourceHeader(n, n.LeafCount))
				}
			}
			rows = append(rows, row)
		}
		return rows
	}

	for _, level := range tree.Levels {
		row := make([]HeaderCell, 0, len(level))
		for _, n := range level {
			row = append(row, resourceHeader(n, n.LeafCount*cols))
		}
		rows = append(rows, row)
	}
	row := make([]HeaderCell, 0, cols*len(tree.Leaves))
	for range tree.Leaves {
		for i := 0; i < cols; i++ {
			row = append(row, dateHeader(i, 1))
		}
	}
	return append(rows, row)
}

// buildCells emits cells in document order: row by row, and within a row
// either group-major (each leaf's columns in turn) or, for ByDate, date-major.
func buildCells(c ViewConfig, l *Layout, tree *ResourceTree, today Date) []Cell {
	cols := len(l.Columns)
	groups := l.GroupCount
	monthStart, monthEnd := MonthBounds(c)

	workDays := make([]WeekdaySet, groups)
	for g := range workDays {
		workDays[g] = c.WorkDays
		if leaf := tree.Leaf(g); leaf != nil {
			workDays[g] = leaf.WorkDays
		}
	}

	cells := make([]Cell, 0, len(l.RenderDates)*groups)
	emit := func(row, col, g int) {
		d := l.RenderDates[row*cols+col]
		cells = append(cells, Cell{
			Date:          d,
			DataDate:      d.DataDate(c.Location),
			GroupIndex:    g,
			Row:           row,
			Col:           col,
			Label:         cellLabel(d),
			IsWorkDay:     c.HighlightWorkDays && workDays[g].Has(d.Weekday()),
			IsOtherMonth:  c.View == ViewMonth && (d.Before(monthStart) || d.After(monthEnd)),
			IsCurrentDate: d == today,
		})
	}
	for row := 0; row < l.Rows; row++ {
		if l.ByDate {
			for col := 0; col < cols; col++ {
				for g := 0; g < groups; g++ {
					emit(row, col, g)
				}
			}
			continue
		}
		for g := 0; g < groups; g++ {
			for col := 0; col < cols; col++ {
				emit(row, col, g)
			}
		}
	}
	return cells
}

// cellLabel is the day number, prefixed with the short month name on the
// first of a month.
func cellLabel(d Date) string {
	if d.Day == 1 {
		return d.Month.String()[:3] + " 1"
	}
	return strconv.Itoa(d.Day)
}

// Location returns the zone the layout's data-date values are in.
func (l *Layout) Location() *time.Location {
	return l.loc
}

// Cell returns the cell of date in group, if rendered.
func (l *Layout) Cell(d Date, group int) (Cell, bool) {
	i, ok := l.index[cellKey{d, group}]
	if !ok {
		return Cell{}, false
	}
	return l.Cells[i], true
}

// CellIndex returns the document-order index of the cell, or -1.
func (l *Layout) CellIndex(d Date, group int) int {
	i, ok := l.index[cellKey{d, group}]
	if !ok {
		return -1
	}
	return i
}

// WorkDayCount returns the number of cells marked as work days.
func (l *Layout) WorkDayCount() int {
	n := 0
	for _, c := range l.Cells {
		if c.IsWorkDay {
			n++
		}
	}
	return n
}

// OtherMonthCount returns the number of cells outside the current months.
func (l *Layout) OtherMonthCount() int {
	n := 0
	for _, c := range l.Cells {
		if c.IsOtherMonth {
			n++
		}
	}
	return n
}

// HeaderCount returns the number of header cells of kind k.
func (l *Layout) HeaderCount(k HeaderKind) int {
	n := 0
	for _, row := range l.HeaderRows {
		for _, h := range row {
			if h.Kind == k {
				n++
			}
		}
	}
	return n
}

// RenderCellCount is the number of cell render callbacks one pass over the
// layout produces: every work cell plus every date header cell.
func (l *Layout) RenderCellCount() int {
	return len(l.Cells) + l.HeaderCount(HeaderDate)
}

// CellDetails describes the time span of a work cell.
type CellDetails struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	IsAllDay   bool      `json:"is_all_day"`
	GroupIndex int       `json:"group_index"`
}

// CellDetails resolves a cell from its data-date attribute. A missing,
// malformed or unrendered date yields ok == false.
func (l *Layout) CellDetails(dataDate string, group int) (CellDetails, bool) {
	d, err := ParseDataDate(dataDate, l.loc)
	if err != nil {
		return CellDetails{}, false
	}
	if _, ok := l.Cell(d, group); !ok {
		return CellDetails{}, false
	}
	return CellDetails{
		StartTime:  d.In(l.loc),
		EndTime:    d.AddDays(1).In(l.loc),
		IsAllDay:   true,
		GroupIndex: group,
	}, true
}
