// Package clock holds time-of-day arithmetic and an injectable wall clock.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a minute-of-day value in [0, 1440)
type TimeOfDay int

// Parse reads a strict "HH:MM" 24-hour value
func Parse(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustParse is Parse for constants and tests
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Window is an inclusive operating-hours range. Close before Open wraps past midnight.
type Window struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// ParseWindow parses an open/close pair
func ParseWindow(open, close string) (Window, error) {
	o, err := Parse(open)
	if err != nil {
		return Window{}, err
	}
	c, err := Parse(close)
	if err != nil {
		return Window{}, err
	}
	return Window{Open: o, Close: c}, nil
}

// Contains reports whether t falls inside the window, both ends inclusive
func (w Window) Contains(t TimeOfDay) bool {
	if w.Open <= w.Close {
		return t >= w.Open && t <= w.Close
	}
	return t >= w.Open || t <= w.Close
}

// Wraps reports whether the window crosses midnight
func (w Window) Wraps() bool {
	return w.Close < w.Open
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real is the system clock
var Real Clock = realClock{}

// Fixed is a settable clock for tests
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
