// Package schedule implements the appointment availability core: parsing
// booking time/duration strings into minute intervals, overlap detection
// against the daily operating window, and slot/grid generation for the
// booking UI. Everything in this package is a pure function of its inputs.
package schedule

import "fmt"

// Default cadences used by the booking UI.
const (
	DefaultStepMinutes = 30 // selectable slot cadence
	DefaultCellMinutes = 15 // visualization grid cadence
)

// Window describes the daily operating window and the cadences derived
// values are generated at. All minute offsets elsewhere in this package are
// relative to DayStartMinutes.
type Window struct {
	DayStartMinutes int // minutes from midnight, e.g. 540 = 9:00
	DayEndMinutes   int // minutes from midnight, e.g. 1140 = 19:00
	StepMinutes     int // slot cadence, default 30
	CellMinutes     int // grid cadence, default 15
}

// DefaultWindow returns the 9:00-19:00 window with standard cadences.
func DefaultWindow() Window {
	return Window{
		DayStartMinutes: 9 * 60,
		DayEndMinutes:   19 * 60,
		StepMinutes:     DefaultStepMinutes,
		CellMinutes:     DefaultCellMinutes,
	}
}

// Length returns the window length in minutes.
func (w Window) Length() int {
	return w.DayEndMinutes - w.DayStartMinutes
}

// Validate checks the window invariants. It is meant to run once at
// configuration-load time, not per call.
func (w Window) Validate() error {
	if w.DayEndMinutes <= w.DayStartMinutes {
		return fmt.Errorf("schedule: window end (%d) must be after start (%d)", w.DayEndMinutes, w.DayStartMinutes)
	}
	if w.StepMinutes <= 0 || w.CellMinutes <= 0 {
		return fmt.Errorf("schedule: cadences must be positive, got step=%d cell=%d", w.StepMinutes, w.CellMinutes)
	}
	length := w.Length()
	if length%w.StepMinutes != 0 {
		return fmt.Errorf("schedule: step %d does not evenly divide window length %d", w.StepMinutes, length)
	}
	if length%w.CellMinutes != 0 {
		return fmt.Errorf("schedule: cell %d does not evenly divide window length %d", w.CellMinutes, length)
	}
	return nil
}
