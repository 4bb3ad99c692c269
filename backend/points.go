package backend

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"git.sr.ht/~whereswaldon/omhviz/omh"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// PlotPoint is one plotted value of one measure.
type PlotPoint struct {
	// X is the plotted time. Interval observations are quantized to midday
	// of their start date.
	X        time.Time
	Y        float64
	Provider string
	Measure  string
	// Body is the body of the originating observation.
	Body map[string]any
	// Observation is the index of the originating observation in the
	// input snapshot. Points with the same index share a tooltip group.
	Observation int
	// GroupName concatenates "_"+name for every listed measure present in
	// the observation, in measure list order.
	GroupName string
	// HasTooltip marks the point that anchors its group's tooltip.
	HasTooltip bool
	// AccumulatedBodies holds every merged body, including this point's
	// own, once consolidation has merged anything into it.
	AccumulatedBodies []map[string]any
}

// DataShapeError reports an observation whose time frame cannot be
// resolved. The observation is skipped.
type DataShapeError struct {
	Observation int
	Err         error
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("observation %d: bad time frame: %v", e.Observation, e.Err)
}

func (e *DataShapeError) Unwrap() error { return e.Err }

// UnresolvedPathError reports a measure whose value key path does not
// resolve on an observation. Only that observation/measure pair is skipped.
type UnresolvedPathError struct {
	Observation int
	Measure     string
	KeyPath     string
	Err         error
}

func (e *UnresolvedPathError) Error() string {
	return fmt.Sprintf("observation %d: measure %s: %q: %v", e.Observation, e.Measure, e.KeyPath, e.Err)
}

func (e *UnresolvedPathError) Unwrap() error { return e.Err }

// MeasureData holds the normalized points of every requested measure.
type MeasureData struct {
	// Measures is the parsed measure list, in caller order.
	Measures []string
	Points   map[string][]PlotPoint
	// Warnings records every skipped observation or observation/measure
	// pair, as *DataShapeError or *UnresolvedPathError.
	Warnings []error
}

// ParseMeasureList splits a comma-separated measure list. Whitespace around
// names is ignored, as are empty entries and repeats.
func ParseMeasureList(list string) []string {
	var out []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// GroupName builds the group name of an observation against the measure
// list. It depends only on which measures are present, never on the order
// of fields in the body.
func GroupName(o omh.Observation, measures []string) string {
	var b strings.Builder
	for _, m := range measures {
		if o.Has(m) {
			b.WriteByte('_')
			b.WriteString(m)
		}
	}
	return b.String()
}

// Normalize turns observations into plot points for each listed measure.
// Points keep observation order. Nothing is sorted or merged here.
func Normalize(observations []omh.Observation, measures []string, s settings.Settings) *MeasureData {
	d := &MeasureData{
		Measures: measures,
		Points:   make(map[string][]PlotPoint, len(measures)),
	}
	loc := s.Location()
	for _, m := range measures {
		d.Points[m] = nil
	}
	for i, o := range observations {
		var (
			group    string
			x        time.Time
			resolved bool
			anchored bool
		)
		for _, m := range measures {
			if !o.Has(m) {
				continue
			}
			if !resolved {
				var err error
				x, err = plotTime(o, loc)
				if err != nil {
					d.Warnings = append(d.Warnings, &DataShapeError{Observation: i, Err: err})
					break
				}
				group = GroupName(o, measures)
				resolved = true
			}
			keyPath := s.Measure(m).ValueKeyPath
			y, err := o.Value(keyPath)
			if err != nil {
				d.Warnings = append(d.Warnings, &UnresolvedPathError{Observation: i, Measure: m, KeyPath: keyPath, Err: err})
				continue
			}
			d.Points[m] = append(d.Points[m], PlotPoint{
				X:           x,
				Y:           y,
				Provider:    o.Header.SourceName,
				Measure:     m,
				Body:        o.Body,
				Observation: i,
				GroupName:   group,
				HasTooltip:  !anchored,
			})
			anchored = true
		}
	}
	return d
}

// plotTime returns the x coordinate of an observation. Instants are used
// as they are. Intervals plot at midday of their start date.
func plotTime(o omh.Observation, loc *time.Location) (time.Time, error) {
	tf, err := o.TimeFrame()
	if err != nil {
		return time.Time{}, err
	}
	start, _, err := tf.Bounds(loc)
	if err != nil {
		return time.Time{}, err
	}
	if tf.Interval == nil {
		return start, nil
	}
	return omh.Midday(start, loc), nil
}

// Consolidate merges points that share an exact timestamp by summing their
// values. The input is not modified. The earliest-inserted point at each
// timestamp keeps its provider and body; the bodies of every merged point
// are collected in AccumulatedBodies. Consolidating already consolidated
// points changes nothing.
func Consolidate(points []PlotPoint) []PlotPoint {
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b PlotPoint) int {
		return a.X.Compare(b.X)
	})
	out := sorted[:0]
	for _, p := range sorted {
		if n := len(out); n > 0 && out[n-1].X.Equal(p.X) {
			last := &out[n-1]
			last.Y += p.Y
			last.AccumulatedBodies = append(slices.Clip(last.bodies()), p.bodies()...)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (p PlotPoint) bodies() []map[string]any {
	if p.AccumulatedBodies != nil {
		return p.AccumulatedBodies
	}
	return []map[string]any{p.Body}
}

// Build normalizes observations and consolidates every measure whose
// settings ask for it.
func Build(observations []omh.Observation, measureList string, s settings.Settings) (*MeasureData, error) {
	measures := ParseMeasureList(measureList)
	if len(measures) == 0 {
		return nil, errors.New("measure list is empty")
	}
	if err := s.ValidateMeasures(measures); err != nil {
		return nil, err
	}
	d := Normalize(observations, measures, s)
	for _, m := range measures {
		if s.Measure(m).ConsolidateSameTimestamp {
			d.Points[m] = Consolidate(d.Points[m])
		}
	}
	return d, nil
}

// Extent returns the earliest and latest x across all measures.
func (d *MeasureData) Extent() (first, last time.Time, ok bool) {
	for _, points := range d.Points {
		for _, p := range points {
			if !ok {
				first, last, ok = p.X, p.X, true
				continue
			}
			if p.X.Before(first) {
				first = p.X
			}
			if p.X.After(last) {
				last = p.X
			}
		}
	}
	return first, last, ok
}
