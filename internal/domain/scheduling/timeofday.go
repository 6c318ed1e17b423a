// Package scheduling provides the appointment calendar: overlap detection
// per resource and date, locked booking and moving, and slot availability.
package scheduling

import (
	"database/sql/driver"
	"fmt"

	"atelier/internal/core/apperror"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time in minutes after midnight.
// Its textual form is the zero-padded 24-hour "HH:MM", which sorts the
// same way lexicographically and numerically.
type TimeOfDay int

// ParseTimeOfDay parses a strict "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	invalid := apperror.NewValidation("time must be HH:MM").WithDetail("value", s)
	if len(s) != 5 || s[2] != ':' {
		return 0, invalid
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, invalid
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, invalid
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay parses s and panics on error. Use only for constants and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns t plus minutes, wrapping around midnight.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	v := (int(t) + minutes) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return TimeOfDay(v)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value stores the HH:MM text form.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan reads the HH:MM text form.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("scan TimeOfDay: unsupported type %T", src)
	}
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps reports whether the intervals share any instant.
// Touching endpoints do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}

// Minutes is the interval length.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// ResolveInterval builds an interval from a start and either an explicit
// end or a duration. Intervals crossing midnight are rejected.
func ResolveInterval(start, end string, durationMinutes int) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}

	var e TimeOfDay
	switch {
	case durationMinutes > 0:
		if durationMinutes >= minutesPerDay {
			return Interval{}, apperror.NewValidation("duration must be shorter than a day").
				WithDetail("duration_minutes", durationMinutes)
		}
		e = s.Add(durationMinutes)
	case end != "":
		e, err = ParseTimeOfDay(end)
		if err != nil {
			return Interval{}, err
		}
	default:
		return Interval{}, apperror.NewValidation("end time or duration is required")
	}

	if e <= s {
		return Interval{}, apperror.NewValidation("appointment must end after it starts on the same day").
			WithDetail("start", s.String()).
			WithDetail("end", e.String())
	}
	return Interval{Start: s, End: e}, nil
}
