package world

import "fmt"

const (
	minutesPerHour = 60
	hoursPerDay    = 24
)

// Clock is in-game time. The zero value is not valid; use NewClock.
type Clock struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// NewClock returns the start of a new game: day 1, 08:00.
func NewClock() Clock {
	return Clock{Day: 1, Hour: 8}
}

// Advance moves the clock forward, carrying minutes into hours and hours
// into days. Non-positive values are ignored.
func (c *Clock) Advance(minutes int) {
	if minutes <= 0 {
		return
	}
	total := c.Minute + minutes
	c.Minute = total % minutesPerHour
	hours := c.Hour + total/minutesPerHour
	c.Hour = hours % hoursPerDay
	c.Day += hours / hoursPerDay
}

// Valid reports whether every field is in range.
func (c Clock) Valid() bool {
	return c.Day >= 1 &&
		c.Hour >= 0 && c.Hour < hoursPerDay &&
		c.Minute >= 0 && c.Minute < minutesPerHour
}

func (c Clock) String() string {
	return fmt.Sprintf("Day %d, %02d:%02d", c.Day, c.Hour, c.Minute)
}

// TimeOfDay names the part of the day.
func (c Clock) TimeOfDay() string {
	switch {
	case c.Hour >= 5 && c.Hour < 12:
		return "morning"
	case c.Hour >= 12 && c.Hour < 17:
		return "afternoon"
	case c.Hour >= 17 && c.Hour < 21:
		return "evening"
	default:
		return "night"
	}
}
