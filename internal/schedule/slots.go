package schedule

// Slot is a candidate appointment start at the coarse selection cadence.
type Slot struct {
	Minutes   int    `json:"minutes"`
	Display   string `json:"display"`
	Available bool   `json:"available"`
}

// GridCell is one fixed-width bucket of the fine-grained day visualization.
type GridCell struct {
	Minutes int    `json:"minutes"`
	Booked  bool   `json:"booked"`
	Label   string `json:"label,omitempty"`
}

// GenerateSlots produces candidate starts from 0 to windowLength-duration
// inclusive, stepping by the window's slot cadence, in ascending order. The
// ordering is a presentation contract: the UI lays slots out chronologically.
// A duration longer than the window yields no slots.
func (w Window) GenerateSlots(duration int, blocks []TimeBlock) []Slot {
	length := w.Length()
	if duration > length {
		return nil
	}
	slots := make([]Slot, 0, length/w.StepMinutes+1)
	for minutes := 0; minutes <= length-duration; minutes += w.StepMinutes {
		slots = append(slots, Slot{
			Minutes:   minutes,
			Display:   w.FormatMinutes(minutes, false),
			Available: w.IsIntervalAvailable(minutes, duration, blocks),
		})
	}
	return slots
}

// GenerateGrid produces one cell per grid cadence across the full window in
// ascending order. A cell is booked when any block's [start, end) contains
// the cell's start minute; the first matching block's label wins, so
// duplicate or overlapping bookings render deterministically.
func (w Window) GenerateGrid(blocks []TimeBlock) []GridCell {
	length := w.Length()
	cells := make([]GridCell, 0, length/w.CellMinutes)
	for minutes := 0; minutes < length; minutes += w.CellMinutes {
		cell := GridCell{Minutes: minutes}
		for _, block := range blocks {
			if minutes >= block.Start && minutes < block.End {
				cell.Booked = true
				cell.Label = block.Label
				break
			}
		}
		cells = append(cells, cell)
	}
	return cells
}

// HasAnyAvailableSlot reports whether at least one slot is selectable. The
// UI branches on this to distinguish "duration too long for today" from
// "pick a different date", so it is exposed separately.
func HasAnyAvailableSlot(slots []Slot) bool {
	for _, s := range slots {
		if s.Available {
			return true
		}
	}
	return false
}

// NextAvailableSlot returns the earliest feasible start for the duration,
// or ok=false when the day cannot fit it.
func (w Window) NextAvailableSlot(duration int, blocks []TimeBlock) (Slot, bool) {
	for _, s := range w.GenerateSlots(duration, blocks) {
		if s.Available {
			return s, true
		}
	}
	return Slot{}, false
}

// AvailableSlotCount returns how many candidate starts can fit the duration.
func (w Window) AvailableSlotCount(duration int, blocks []TimeBlock) int {
	count := 0
	for _, s := range w.GenerateSlots(duration, blocks) {
		if s.Available {
			count++
		}
	}
	return count
}
