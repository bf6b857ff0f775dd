package schedule

import (
	"time"

	"schedgrid/internal/grid"
)

// RequestType names the action reported through ActionBegin/ActionComplete.
type RequestType string

const (
	RequestDataBind     RequestType = "dataBind"
	RequestDateNavigate RequestType = "dateNavigate"
	RequestViewNavigate RequestType = "viewNavigate"
)

// NavigationAction tells date navigation from view navigation.
type NavigationAction string

const (
	NavigateDate NavigationAction = "date"
	NavigateView NavigationAction = "view"
)

// ActionEventArgs is passed to ActionBegin and ActionComplete. Setting
// Cancel in ActionBegin aborts the action.
type ActionEventArgs struct {
	Name        string
	RequestType RequestType
	Cancel      bool
}

// NavigatingEventArgs describes a pending navigation. Setting Cancel keeps
// the current date and view.
type NavigatingEventArgs struct {
	Name         string
	Action       NavigationAction
	PreviousDate grid.Date
	CurrentDate  grid.Date
	PreviousView grid.View
	CurrentView  grid.View
	Cancel       bool
}

// CellClickEventArgs is passed to CellClick and CellDoubleClick. Setting
// Cancel leaves the selection untouched.
type CellClickEventArgs struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	IsAllDay   bool
	GroupIndex int
	Cancel     bool
}

// SelectEventArgs reports a committed selection.
type SelectEventArgs struct {
	Name  string
	Cells []grid.Cell
}

// RenderCellEventArgs is raised once per work cell and date header cell
// each time the layout is rebuilt.
type RenderCellEventArgs struct {
	Name        string
	ElementType string // "workCells" or "dateHeader"
	Date        grid.Date
	GroupIndex  int
}

// Handlers are the optional callbacks a Scheduler raises. All of them run
// synchronously on the goroutine that triggered the action.
type Handlers struct {
	Created         func()
	ActionBegin     func(*ActionEventArgs)
	ActionComplete  func(*ActionEventArgs)
	Navigating      func(*NavigatingEventArgs)
	CellClick       func(*CellClickEventArgs)
	CellDoubleClick func(*CellClickEventArgs)
	Select          func(*SelectEventArgs)
	RenderCell      func(*RenderCellEventArgs)
}
