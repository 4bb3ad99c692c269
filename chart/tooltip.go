package chart

import (
	"strconv"

	"git.sr.ht/~whereswaldon/omhviz/backend"
	"git.sr.ht/~whereswaldon/omhviz/omh"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// Tooltip is the rendered content for one point.
type Tooltip struct {
	Value    string
	Above    bool
	Time     string
	Provider string
}

const (
	systolicMeasure  = "systolic_blood_pressure"
	diastolicMeasure = "diastolic_blood_pressure"
)

// TooltipFor formats p with its measure's tooltip formatter and the
// configured time layout.
func TooltipFor(p backend.PlotPoint, s settings.Settings) Tooltip {
	ms := s.Measure(p.Measure)
	return Tooltip{
		Value:    formatValue(p, ms.Tooltip, s),
		Above:    ms.AboveThreshold(p.Y),
		Time:     p.X.In(s.Location()).Format(s.UserInterface.Tooltips.TimeFormat),
		Provider: p.Provider,
	}
}

func formatValue(p backend.PlotPoint, f settings.TooltipFormat, s settings.Settings) string {
	switch f {
	case settings.Integer:
		return strconv.FormatFloat(p.Y, 'f', 0, 64)
	case settings.BloodPressure:
		o := omh.NewObservation(map[string]any{"body": p.Body})
		sys, err1 := o.Value(s.Measure(systolicMeasure).ValueKeyPath)
		dia, err2 := o.Value(s.Measure(diastolicMeasure).ValueKeyPath)
		if err1 == nil && err2 == nil {
			return strconv.FormatFloat(sys, 'f', 0, 64) + "/" + strconv.FormatFloat(dia, 'f', 0, 64)
		}
		// Only one half of the pair was recorded.
		return strconv.FormatFloat(p.Y, 'f', 0, 64)
	default:
		return strconv.FormatFloat(p.Y, 'f', 1, 64)
	}
}
