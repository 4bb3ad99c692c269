package chart

import (
	"math"
	"slices"
	"time"

	"golang.org/x/exp/constraints"
)

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func floor[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Floor(float64(a)))
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

const day = 24 * time.Hour

// days converts a duration into fractional days.
func days(d time.Duration) float64 {
	return float64(d) / float64(day)
}

func fromDays(d float64) time.Duration {
	return time.Duration(math.Round(d * float64(day)))
}

// LinearScale maps a numeric domain onto a pixel range. The range runs
// bottom-up, so Min maps to the full height and Max to zero.
type LinearScale struct {
	Min, Max float64
}

// Normalize returns v's position within the domain as a fraction.
func (s LinearScale) Normalize(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// Y maps v onto a vertical pixel coordinate within height.
func (s LinearScale) Y(v float64, height int) float32 {
	return float32(height) * float32(1-s.Normalize(v))
}

// X maps v onto a horizontal pixel coordinate within width.
func (s LinearScale) X(v float64, width int) float32 {
	return float32(width) * float32(s.Normalize(v))
}

// Ticks returns roughly n evenly spaced round values within the domain.
func (s LinearScale) Ticks(n int) []float64 {
	if n < 1 || s.Max <= s.Min {
		return nil
	}
	step := niceStep((s.Max - s.Min) / float64(n))
	var out []float64
	for v := ceil(s.Min/step) * step; v <= s.Max+step*1e-9; v += step {
		out = append(out, v)
	}
	return out
}

func niceStep(raw float64) float64 {
	mag := math.Pow(10, floor(math.Log10(raw)))
	switch f := raw / mag; {
	case f <= 1:
		return mag
	case f <= 2:
		return 2 * mag
	case f <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

// TimeScale maps a visible time window onto a pixel range.
type TimeScale struct {
	Start, End time.Time
}

// X maps t onto a horizontal pixel coordinate within width.
func (s TimeScale) X(t time.Time, width int) float32 {
	span := s.End.Sub(s.Start)
	if span <= 0 {
		return 0
	}
	return float32(width) * float32(float64(t.Sub(s.Start))/float64(span))
}

// Time inverts X.
func (s TimeScale) Time(x float32, width int) time.Time {
	if width <= 0 {
		return s.Start
	}
	span := s.End.Sub(s.Start)
	return s.Start.Add(time.Duration(float64(span) * float64(x) / float64(width)))
}

// Granularity is the unit of time axis ticks.
type Granularity int

const (
	Minute Granularity = iota
	Hour
	Day
	Month
	Year
)

func (g Granularity) String() string {
	switch g {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return "unknown"
	}
}

// AllGranularities lists every tick granularity from finest to coarsest.
var AllGranularities = []Granularity{Minute, Hour, Day, Month, Year}

type tickConfig struct {
	unit   Granularity
	step   int
	layout string
}

var tickConfigs = []tickConfig{
	{Minute, 15, "15:04"},
	{Hour, 1, "15:04"},
	{Hour, 3, "15:04"},
	{Hour, 12, "Jan 2 15:04"},
	{Day, 1, "Jan 2"},
	{Day, 7, "Jan 2"},
	{Month, 1, "Jan 2006"},
	{Month, 3, "Jan 2006"},
	{Year, 1, "2006"},
}

func truncate(t time.Time, g Granularity, loc *time.Location) time.Time {
	t = t.In(loc)
	switch g {
	case Minute:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	case Hour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
	}
}

func advance(t time.Time, g Granularity, n int) time.Time {
	switch g {
	case Minute:
		return t.Add(time.Duration(n) * time.Minute)
	case Hour:
		return t.Add(time.Duration(n) * time.Hour)
	case Day:
		return t.AddDate(0, 0, n)
	case Month:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(n, 0, 0)
	}
}

// Tick is one labelled time axis position.
type Tick struct {
	At    time.Time
	Label string
}

// Ticks picks the finest allowed tick configuration that yields at most
// maxTicks ticks within the window.
func (s TimeScale) Ticks(maxTicks int, allowed []Granularity, loc *time.Location) []Tick {
	if maxTicks < 1 || !s.End.After(s.Start) {
		return nil
	}
	for _, cfg := range tickConfigs {
		if !slices.Contains(allowed, cfg.unit) {
			continue
		}
		approx := s.End.Sub(s.Start)
		unitLen := advance(time.Time{}, cfg.unit, cfg.step).Sub(time.Time{})
		if int(approx/unitLen) > maxTicks {
			continue
		}
		var ticks []Tick
		for t := truncate(s.Start, cfg.unit, loc); !t.After(s.End); t = advance(t, cfg.unit, cfg.step) {
			if t.Before(s.Start) {
				continue
			}
			ticks = append(ticks, Tick{At: t, Label: t.Format(cfg.layout)})
		}
		return ticks
	}
	return nil
}
