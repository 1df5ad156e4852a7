package domain

import (
	"fmt"
	"time"
)

// ClockLayout is the layout used for time-of-day values (HH:MM)
const ClockLayout = "15:04"

// Clock is a minute-resolution time of day, stored as minutes since midnight
type Clock int

// ParseClock parses an HH:MM string into a Clock
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustParseClock is like ParseClock but panics on error. Intended for tests and constants.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hour returns the hour component
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component
func (c Clock) Minute() int { return int(c) % 60 }

// String formats the clock as HH:MM
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the timestamp for this clock on the calendar day of t, in t's location
func (c Clock) On(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, t.Location())
}

// TradingWindow is the inclusive [Start, End] range of valid times of day for an instrument
type TradingWindow struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// NewTradingWindow builds a window from HH:MM strings
func NewTradingWindow(start, end string) (TradingWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TradingWindow{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TradingWindow{}, err
	}
	if e < s {
		return TradingWindow{}, fmt.Errorf("window end %s is before start %s", e, s)
	}
	return TradingWindow{Start: s, End: e}, nil
}

// String formats the window as HH:MM-HH:MM
func (w TradingWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// MinutesPerDay is the number of grid points the window yields for one day
func (w TradingWindow) MinutesPerDay() int {
	if w.End < w.Start {
		return 0
	}
	return int(w.End-w.Start) + 1
}

// Contains reports whether the time-of-day of t lies inside the window.
// Seconds count: 16:00:30 is outside a window ending at 16:00.
func (w TradingWindow) Contains(t time.Time) bool {
	tod := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	start := time.Duration(w.Start) * time.Minute
	end := time.Duration(w.End) * time.Minute
	return tod >= start && tod <= end
}

// Grid returns every minute of the window on the calendar day of t, ascending
func (w TradingWindow) Grid(day time.Time) []time.Time {
	n := w.MinutesPerDay()
	grid := make([]time.Time, 0, n)
	first := w.Start.On(day)
	for i := 0; i < n; i++ {
		grid = append(grid, first.Add(time.Duration(i)*time.Minute))
	}
	return grid
}
