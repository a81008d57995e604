package schedule

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-day format used throughout the system.
	DateLayout = "2006-01-02"
	// ClockLayout is the slot start-time format (24h hour:minute).
	ClockLayout = "15:04"

	DefaultSlotMinutes = 30
)

// Slot identifies one bookable interval on a doctor's calendar.
// Identity is (doctor, date, start); the doctor is implied by which
// calendar the slot lives on.
type Slot struct {
	Date  string `json:"date"`
	Start string `json:"start"`
}

func (s Slot) String() string {
	return s.Date + " " + s.Start
}

// ParseDate validates a calendar day in DateLayout form.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// ParseClock validates an hour:minute string and returns minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
