package schedule

import "fmt"

// TimeBlock is an occupied half-open interval [Start, End) in minutes from
// the window's day start. Blocks are rebuilt from the booking list on every
// computation and never mutated. Overlapping blocks are legal input — the
// upstream store gives no disjointness guarantee — and are handled with
// union semantics by the overlap predicate.
type TimeBlock struct {
	Start int
	End   int
	Label string // original time+duration strings, for tooltips
}

// BookingTime is the read-only shape the booking store supplies for each
// approved booking on a date.
type BookingTime struct {
	Time     string // e.g. "02:00 م" or "2:00 PM"
	Duration string // e.g. "1 hr", "30 mins"
}

// BlocksFromBookings maps each booking through the codec to one TimeBlock.
// No dedup and no merging: one input booking yields exactly one block so
// grid labels stay traceable to their source record. The first malformed
// record aborts with its ParseError.
func (w Window) BlocksFromBookings(bookings []BookingTime) ([]TimeBlock, error) {
	blocks := make([]TimeBlock, 0, len(bookings))
	for _, b := range bookings {
		block, err := w.blockFromBooking(b)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// BlocksFromBookingsLenient is the forgiving variant used when computing a
// day's availability from stored data: malformed records are skipped and
// returned for reporting instead of corrupting the whole day. A booking
// that cannot be decoded must never silently occupy minute zero.
func (w Window) BlocksFromBookingsLenient(bookings []BookingTime) (blocks []TimeBlock, skipped []BookingTime) {
	blocks = make([]TimeBlock, 0, len(bookings))
	for _, b := range bookings {
		block, err := w.blockFromBooking(b)
		if err != nil {
			skipped = append(skipped, b)
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks, skipped
}

func (w Window) blockFromBooking(b BookingTime) (TimeBlock, error) {
	start, err := w.ParseTimeOfDay(b.Time)
	if err != nil {
		return TimeBlock{}, err
	}
	duration, err := ParseDuration(b.Duration)
	if err != nil {
		return TimeBlock{}, err
	}
	return TimeBlock{
		Start: start,
		End:   start + duration,
		Label: fmt.Sprintf("%s (%s)", b.Time, b.Duration),
	}, nil
}
