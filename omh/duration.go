package omh

import (
	"fmt"
	"math"
	"time"
)

// DurationUnit is one of the unit codes allowed in an Open mHealth
// duration.
type DurationUnit uint8

const (
	Picoseconds DurationUnit = iota
	Nanoseconds
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
	Weeks
	Months
	Years
	UnknownUnit
)

var unitCodes = [...]string{
	Picoseconds:  "ps",
	Nanoseconds:  "ns",
	Microseconds: "us",
	Milliseconds: "ms",
	Seconds:      "sec",
	Minutes:      "min",
	Hours:        "h",
	Days:         "d",
	Weeks:        "wk",
	Months:       "Mo",
	Years:        "yr",
}

// nanosPerUnit holds the fixed length of every unit up to hours.
var nanosPerUnit = [...]float64{
	Picoseconds:  0.001,
	Nanoseconds:  1,
	Microseconds: 1_000,
	Milliseconds: 1_000_000,
	Seconds:      1_000_000_000,
	Minutes:      60 * 1_000_000_000,
	Hours:        60 * 60 * 1_000_000_000,
}

func (u DurationUnit) String() string {
	if u >= UnknownUnit {
		return "?"
	}
	return unitCodes[u]
}

// ParseDurationUnit maps a unit code to its DurationUnit. Codes are case
// sensitive: "Mo" is months, "min" is minutes.
func ParseDurationUnit(code string) (DurationUnit, error) {
	for i, c := range unitCodes {
		if c == code {
			return DurationUnit(i), nil
		}
	}
	return UnknownUnit, fmt.Errorf("unknown duration unit %q", code)
}

// Calendar reports whether the unit has no fixed length and must be applied
// with calendar arithmetic.
func (u DurationUnit) Calendar() bool {
	return u >= Days && u < UnknownUnit
}

// Duration is a value and unit pair.
type Duration struct {
	Value float64
	Unit  DurationUnit
}

func (d Duration) String() string {
	return fmt.Sprintf("%g %s", d.Value, d.Unit)
}

// AddTo returns t shifted by sign*d. Fixed units are added as exact
// nanosecond counts. Calendar units use time.AddDate in loc, so a month
// after January 31st follows Go's normalization rules and a day is one
// calendar day even across a daylight saving change. Calendar values are
// rounded to the nearest whole unit.
func (d Duration) AddTo(t time.Time, sign int, loc *time.Location) time.Time {
	if !d.Unit.Calendar() {
		return t.Add(time.Duration(math.Round(float64(sign) * d.Value * nanosPerUnit[d.Unit])))
	}
	n := sign * int(math.Round(d.Value))
	t = t.In(loc)
	switch d.Unit {
	case Days:
		return t.AddDate(0, 0, n)
	case Weeks:
		return t.AddDate(0, 0, 7*n)
	case Months:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(n, 0, 0)
	}
}

// Midday returns 12:00 on t's calendar date in loc.
func Midday(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 12, 0, 0, 0, loc)
}
