package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SlotDuration is the fixed length of every bookable appointment.
// Changing it changes the label every booking consumes, so it is a
// system-wide constant rather than per-doctor configuration.
const SlotDuration = time.Hour

var ErrMalformedLabel = errors.New("malformed slot label")

// SlotLabel is a half-open time-of-day interval with minute granularity,
// independent of any calendar date. The canonical string form is
// "HH:MM-HH:MM" with zero-padded 24-hour clock times.
type SlotLabel struct {
	StartMinute int // minutes after midnight, inclusive
	EndMinute   int // minutes after midnight, exclusive
}

// Parse accepts "H:MM-H:MM" or "HH:MM-HH:MM" and returns the normalized
// label. It fails unless the input is exactly two dash-separated clock
// times. End <= start is accepted; templates are trusted input and the
// doctor-management side owns their shape.
func Parse(raw string) (SlotLabel, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return SlotLabel{}, fmt.Errorf("%w: %q", ErrMalformedLabel, raw)
	}

	start, err := parseClock(parts[0])
	if err != nil {
		return SlotLabel{}, fmt.Errorf("%w: %q", ErrMalformedLabel, raw)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return SlotLabel{}, fmt.Errorf("%w: %q", ErrMalformedLabel, raw)
	}

	return SlotLabel{StartMinute: start, EndMinute: end}, nil
}

func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 { // "9:00" -> "09:00"
		s = "0" + s
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (s SlotLabel) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		s.StartMinute/60, s.StartMinute%60,
		s.EndMinute/60, s.EndMinute%60,
	)
}

// Overlaps reports whether two half-open intervals share at least one
// instant. An interval ending exactly where the other starts does not
// overlap.
func (s SlotLabel) Overlaps(o SlotLabel) bool {
	return s.StartMinute < o.EndMinute && o.StartMinute < s.EndMinute
}

// Normalize returns the canonical "HH:MM-HH:MM" form of a raw label, or
// the trimmed input unchanged when it cannot be parsed. Availability
// computation matches booked labels against template labels by string
// equality, so both sides must pass through here.
func Normalize(raw string) string {
	label, err := Parse(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return label.String()
}

// StartMinuteOf returns the start offset of a raw label for ordering.
// Malformed labels sort to midnight rather than failing the whole
// computation.
func StartMinuteOf(raw string) int {
	label, err := Parse(raw)
	if err != nil {
		return 0
	}
	return label.StartMinute
}

// SortLabels orders raw labels ascending by start time, in place.
// Starts are treated as unique within a template, so no tie-break.
func SortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return StartMinuteOf(labels[i]) < StartMinuteOf(labels[j])
	})
}

// LabelFor renders the time-of-day label a booked interval consumes,
// spanning the full duration anchored at the appointment's start minute.
func LabelFor(start, end time.Time) string {
	return start.Format("15:04") + "-" + end.Format("15:04")
}

// DayRange returns the inclusive [00:00:00, 23:59:59.999999999] bounds
// of a calendar day in that day's location.
func DayRange(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}
