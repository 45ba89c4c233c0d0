package carpool

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	isoLayout = "2006-01-02"
	// Long form written by older clients, e.g. "Mar 01, 2024, 12:00:00 AM".
	legacyLayout = "Jan 02, 2006, 03:04:05 PM"
)

// Commas are stripped before these are tried.
var longLayouts = []string{
	"Jan 2 2006 3:04:05 PM",
	"Jan 2 2006",
	"January 2 2006 3:04:05 PM",
	"January 2 2006",
}

// Day is a calendar date with no time-of-day or zone. The zero Day means
// "unset".
type Day struct {
	t time.Time
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// ParseDay accepts ISO dates (anything after the first ten characters is
// ignored, so "2024-03-01 00:00:00" works) and the legacy long form.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len(isoLayout) {
		if t, err := time.Parse(isoLayout, s[:len(isoLayout)]); err == nil {
			return DayOf(t), nil
		}
	}
	flat := strings.Join(strings.Fields(strings.ReplaceAll(s, ",", " ")), " ")
	for _, layout := range longLayouts {
		if t, err := time.Parse(layout, flat); err == nil {
			return DayOf(t), nil
		}
	}
	return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// NormalizeDay is ParseDay with a fallback to the calendar date of now. The
// second result reports whether the fallback was used; callers must surface
// it as a data-quality warning.
func NormalizeDay(s string, now time.Time) (Day, bool) {
	d, err := ParseDay(s)
	if err != nil {
		return DayOf(now), true
	}
	return d, false
}

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(isoLayout)
}

// LegacyString renders d the way old clients stored it.
func (d Day) LegacyString() string { return d.t.Format(legacyLayout) }

func (d Day) Year() int { return d.t.Year() }

// Time returns midnight UTC of d.
func (d Day) Time() time.Time { return d.t }

func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

func (d Day) After(o Day) bool { return d.t.After(o.t) }

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int { return d.t.Compare(o.t) }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
