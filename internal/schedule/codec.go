package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Arabic meridiem markers used by the booking data: ص (morning), م (afternoon).
const (
	arabicAM = "ص"
	arabicPM = "م"
)

var clockPattern = regexp.MustCompile(`(\d+):(\d+)`)

// ParseError reports a time-of-day or duration string that did not match the
// expected pattern. Malformed stored bookings must be rejected loudly rather
// than silently treated as occupying the start of the day.
type ParseError struct {
	Input string
	Kind  string // "time" or "duration"
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schedule: cannot parse %s %q", e.Kind, e.Input)
}

// ParseTimeOfDay converts a display time string to minutes from the window's
// day start. Accepts "H:MM"/"HH:MM" with an AM/PM marker in Latin
// (case-insensitive) or Arabic (ص/م). The result may be negative or exceed
// the window length when the time lies outside the operating window; range
// checking belongs to IsIntervalAvailable, not the parser.
func (w Window) ParseTimeOfDay(s string) (int, error) {
	cleaned := strings.TrimSpace(s)
	match := clockPattern.FindStringSubmatch(cleaned)
	if match == nil {
		return 0, &ParseError{Input: s, Kind: "time"}
	}

	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])

	lower := strings.ToLower(cleaned)
	isPM := strings.Contains(cleaned, arabicPM) || strings.Contains(lower, "pm")
	isAM := strings.Contains(cleaned, arabicAM) || strings.Contains(lower, "am")

	if isPM && hour != 12 {
		hour += 12
	} else if isAM && hour == 12 {
		hour = 0
	}

	return hour*60 + minute - w.DayStartMinutes, nil
}

// FormatMinutes renders a minutes-from-day-start offset as a display time.
// In 12-hour mode the Arabic meridiem marker is appended, matching the
// strings stored with bookings. Left inverse of ParseTimeOfDay for on-grid
// values.
func (w Window) FormatMinutes(minutes int, use24Hour bool) string {
	total := w.DayStartMinutes + minutes
	hour := total / 60
	minute := total % 60

	if use24Hour {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	marker := arabicAM
	if hour >= 12 {
		marker = arabicPM
	}
	if hour > 12 {
		hour -= 12
	}
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, minute, marker)
}

// ParseDuration converts a duration-catalog string to minutes. Strings with
// a "mins" marker parse the leading integer directly ("30 mins" -> 30);
// anything else parses as a floating-point number of hours ("1.5 hr" -> 90).
// Catalog entries must be minute-exact after the hour multiplication.
func ParseDuration(s string) (int, error) {
	cleaned := strings.TrimSpace(s)
	if strings.Contains(cleaned, "mins") {
		digits := leadingDigits(cleaned)
		if digits == "" {
			return 0, &ParseError{Input: s, Kind: "duration"}
		}
		minutes, err := strconv.Atoi(digits)
		if err != nil {
			return 0, &ParseError{Input: s, Kind: "duration"}
		}
		return minutes, nil
	}

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return 0, &ParseError{Input: s, Kind: "duration"}
	}
	hours, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, &ParseError{Input: s, Kind: "duration"}
	}
	return int(hours * 60), nil
}

// FormatDuration renders minutes as a catalog-style duration label:
// sub-hour durations in minutes ("45 mins"), whole and half hours in hours
// ("1 hr", "1.5 hr"). Left inverse of ParseDuration.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d mins", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%d hr", minutes/60)
	}
	return strconv.FormatFloat(float64(minutes)/60, 'g', -1, 64) + " hr"
}

func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}
