package calendar

import (
	"sync"

	"meetroom/internal/slots"
)

// ViewState is the current mode of a calendar viewing session.
type ViewState string

const (
	// StateViewing shows the month grid.
	StateViewing ViewState = "viewing"
	// StateDayDetail shows the slot breakdown of one selected day.
	StateDayDetail ViewState = "day_detail"
)

// viewTransitions lists the allowed state changes. Month navigation is a
// Viewing self-transition; there are no other states.
var viewTransitions = map[ViewState][]ViewState{
	StateViewing:   {StateViewing, StateDayDetail},
	StateDayDetail: {StateViewing},
}

func canTransition(from, to ViewState) bool {
	for _, s := range viewTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// View is one user's calendar session for a room: the displayed month
// plus an optionally open day detail. Safe for concurrent use.
type View struct {
	mu       sync.Mutex
	state    ViewState
	month    Month
	selected Cell
}

// NewView starts a session in Viewing mode on the given month.
func NewView(month Month) *View {
	return &View{state: StateViewing, month: month}
}

// State returns the current view state.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Month returns the displayed month.
func (v *View) Month() Month {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.month
}

// NextMonth navigates forward and returns the new month. Navigation is
// only possible while the grid is showing.
func (v *View) NextMonth() (Month, bool) {
	return v.navigate(func(m Month) Month { return m.Next() })
}

// PreviousMonth navigates backward and returns the new month.
func (v *View) PreviousMonth() (Month, bool) {
	return v.navigate(func(m Month) Month { return m.Previous() })
}

func (v *View) navigate(step func(Month) Month) (Month, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	// Navigation is the Viewing self-transition, not a way back out of
	// the day detail.
	if v.state != StateViewing || !canTransition(v.state, StateViewing) {
		return v.month, false
	}
	v.month = step(v.month)
	return v.month, true
}

// OpenDay switches to the day detail for cell. Empty and past cells are
// not clickable; the call reports whether the transition happened.
func (v *View) OpenDay(cell Cell) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if cell.Empty() || cell.Class == slots.ClassPast {
		return false
	}
	if !canTransition(v.state, StateDayDetail) {
		return false
	}
	v.state = StateDayDetail
	v.selected = cell
	return true
}

// SelectedDay returns the open day cell, if any.
func (v *View) SelectedDay() (Cell, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateDayDetail {
		return Cell{}, false
	}
	return v.selected, true
}

// CloseDay returns from the day detail to the month grid.
func (v *View) CloseDay() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !canTransition(v.state, StateViewing) || v.state != StateDayDetail {
		return false
	}
	v.state = StateViewing
	v.selected = Cell{}
	return true
}
