package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeKey is the data-store key holding the current game time.
const TimeKey = "time"

// MaxDays is the last representable day.
const MaxDays = 999_999

const secondsPerDay = 86400

// Time is the in-game clock. Days run from 1 to MaxDays.
type Time struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// DefaultTime is 8 o'clock in the morning of the first day.
var DefaultTime = Time{Days: 1, Hours: 8}

// NewTime validates the components and returns a Time.
func NewTime(days, hours, minutes, seconds int) (Time, error) {
	if days < 1 || days > MaxDays || hours < 0 || hours > 23 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 {
		return Time{}, fmt.Errorf("invalid time %d:%02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return Time{Days: days, Hours: hours, Minutes: minutes, Seconds: seconds}, nil
}

// ParseTime reads the short form produced by Time.String, e.g. "1:08:00:00".
func ParseTime(s string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return Time{}, fmt.Errorf("parse time %q: expected d:hh:mm:ss", s)
	}
	var values [4]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return Time{}, fmt.Errorf("parse time %q: %w", s, err)
		}
		values[i] = v
	}
	return NewTime(values[0], values[1], values[2], values[3])
}

// String renders the short form d:hh:mm:ss.
func (t Time) String() string {
	return fmt.Sprintf("%d:%02d:%02d:%02d", t.Days, t.Hours, t.Minutes, t.Seconds)
}

// Add advances the clock by the given number of seconds, carrying into
// minutes, hours, and days. The result is clamped to 1:00:00:00 and to the
// last second of MaxDays.
func (t Time) Add(seconds int) Time {
	const (
		lowest  = int64(secondsPerDay)
		highest = int64(MaxDays+1)*secondsPerDay - 1
	)
	total := t.totalSeconds()
	switch delta := int64(seconds); {
	case delta < lowest-total:
		total = lowest
	case delta > highest-total:
		total = highest
	default:
		total += delta
	}
	return Time{
		Days:    int(total / secondsPerDay),
		Hours:   int(total % secondsPerDay / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

func (t Time) totalSeconds() int64 {
	return int64(t.Days)*secondsPerDay + int64(t.Hours)*3600 + int64(t.Minutes)*60 + int64(t.Seconds)
}
