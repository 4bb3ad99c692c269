package chart

import (
	"fmt"
	"time"

	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// Viewport is the visible x domain. Its width in days always stays within
// [MinDays, MaxDays].
type Viewport struct {
	Start, End time.Time
	MinDays    float64
	MaxDays    float64
}

// NewViewport builds the initial domain over the data extent. A data
// extent wider than span.Max is shrunk to [first, first+Max]; one narrower
// than span.Min is widened from first.
func NewViewport(first, last time.Time, span settings.DaySpan) (Viewport, error) {
	if span.Min > span.Max {
		return Viewport{}, &settings.ConfigurationError{
			Option: "chart.daysShownOnTimeline",
			Reason: fmt.Sprintf("min %g exceeds max %g", span.Min, span.Max),
		}
	}
	v := Viewport{Start: first, End: last, MinDays: span.Min, MaxDays: span.Max}
	v.End = v.Start.Add(fromDays(v.clampDays(v.Days())))
	return v, nil
}

// Days returns the visible width in days.
func (v Viewport) Days() float64 {
	return days(v.End.Sub(v.Start))
}

func (v Viewport) clampDays(d float64) float64 {
	return clamp(d, v.MinDays, v.MaxDays)
}

// Scale returns the time scale of the visible window.
func (v Viewport) Scale() TimeScale {
	return TimeScale{Start: v.Start, End: v.End}
}

// SetDays keeps the start and sets the width to d days, clamped.
func (v *Viewport) SetDays(d float64) {
	v.End = v.Start.Add(fromDays(v.clampDays(d)))
}

// ZoomPercent changes the width to width*(100-step)/100, keeping the
// start. Positive steps zoom in.
func (v *Viewport) ZoomPercent(step float64) {
	v.SetDays(v.Days() * (100 - step) / 100)
}

// Shift moves the window by percent of its width.
func (v *Viewport) Shift(percent float64) {
	d := time.Duration(float64(v.End.Sub(v.Start)) * percent / 100)
	v.Start = v.Start.Add(d)
	v.End = v.End.Add(d)
}

// Pan moves the window by d without changing its width.
func (v *Viewport) Pan(d time.Duration) {
	v.Start = v.Start.Add(d)
	v.End = v.End.Add(d)
}

// ZoomAround scales the width by factor keeping the time at anchor fixed
// on screen. The resulting width is clamped.
func (v *Viewport) ZoomAround(anchor time.Time, factor float64) {
	width := v.End.Sub(v.Start)
	if width <= 0 || factor <= 0 {
		return
	}
	frac := float64(anchor.Sub(v.Start)) / float64(width)
	newDays := v.clampDays(v.Days() * factor)
	newWidth := fromDays(newDays)
	v.Start = anchor.Add(-time.Duration(frac * float64(newWidth)))
	v.End = v.Start.Add(newWidth)
}
