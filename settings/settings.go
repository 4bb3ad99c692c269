// Package settings defines the chart configuration schema, its built-in
// defaults and the merge of user options over them.
package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

type ChartType string

const (
	Line         ChartType = "line"
	ClusteredBar ChartType = "clustered_bar"
)

// TooltipFormat selects how a point's value is rendered in its tooltip.
type TooltipFormat string

const (
	// Decimal renders the value with one decimal place.
	Decimal TooltipFormat = "decimal"
	// Integer renders the value with no decimal places.
	Integer TooltipFormat = "integer"
	// BloodPressure renders the systolic and diastolic values of the
	// observation body as "sys/dia".
	BloodPressure TooltipFormat = "blood_pressure"
)

// Settings is a fully resolved configuration. Obtain one from Resolve.
type Settings struct {
	UserInterface UserInterface
	Measures      map[string]Measure
	// Timezone names the location used for calendar arithmetic and for
	// quantizing interval observations to midday. Empty means UTC.
	Timezone string
	loc      *time.Location
}

type Toggle struct {
	Enabled bool
}

type Tooltips struct {
	Enabled bool
	// TimeFormat is a Go reference-time layout.
	TimeFormat string
}

type PanZoom struct {
	Enabled bool
	// ShowHint displays a usage hint until the chart is first clicked.
	ShowHint bool
}

type UserInterface struct {
	Toolbar         Toggle
	TimespanButtons Toggle
	ZoomButtons     Toggle
	Navigation      Toggle
	Tooltips        Tooltips
	PanZoom         PanZoom
}

type Range struct {
	Min, Max float64
}

// Threshold is an upper bound. Values strictly above Max are flagged.
type Threshold struct {
	Max float64
}

// DaySpan bounds the width of the visible time window, in days.
type DaySpan struct {
	Min, Max float64
}

type Chart struct {
	Type                           ChartType
	PointSize                      float32
	LineColor                      Color
	PointFillColor                 Color
	PointStrokeColor               Color
	AboveThresholdPointFillColor   Color
	AboveThresholdPointStrokeColor Color
	BarColor                       Color
	DaysShownOnTimeline            DaySpan
}

// Measure configures how one measure is read and drawn.
type Measure struct {
	// ValueKeyPath is a dot-delimited path from the observation root to
	// the numeric value, such as "body.heart_rate.value".
	ValueKeyPath string
	Range        Range
	Units        string
	SeriesName   string
	Thresholds   *Threshold
	// ConsolidateSameTimestamp sums points that share an exact timestamp.
	// Use it for additive measures such as step counts.
	ConsolidateSameTimestamp bool
	Tooltip                  TooltipFormat
	Chart                    Chart
}

// AboveThreshold reports whether v is strictly greater than the measure's
// threshold. Measures without a threshold are never above it.
func (m Measure) AboveThreshold(v float64) bool {
	return m.Thresholds != nil && v > m.Thresholds.Max
}

// Measure returns the settings for the named measure, falling back to the
// generic defaults for measures that have no entry.
func (s Settings) Measure(name string) Measure {
	if m, ok := s.Measures[name]; ok {
		return m
	}
	return GenericMeasure()
}

// Location returns the resolved timezone.
func (s Settings) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

// Resolve merges opts over Defaults and validates the result.
func Resolve(opts Options) (Settings, error) {
	s := Merge(Defaults(), opts)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return Settings{}, &ConfigurationError{Option: "timezone", Reason: err.Error()}
	}
	s.loc = loc
	return s, nil
}

// Validate checks every measure and user interface option. All problems
// are reported together.
func (s Settings) Validate() error {
	var errs []error
	if s.UserInterface.Tooltips.Enabled && s.UserInterface.Tooltips.TimeFormat == "" {
		errs = append(errs, &ConfigurationError{Option: "userInterface.tooltips.timeFormat", Reason: "must not be empty"})
	}
	names := make([]string, 0, len(s.Measures))
	for name := range s.Measures {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		errs = append(errs, s.Measures[name].validate("measures."+name))
	}
	return errors.Join(errs...)
}

// ValidateMeasures checks that every named measure resolves to usable
// settings, including measures that only have generic defaults.
func (s Settings) ValidateMeasures(names []string) error {
	var errs []error
	for _, name := range names {
		errs = append(errs, s.Measure(name).validate("measures."+name))
	}
	return errors.Join(errs...)
}

func (m Measure) validate(prefix string) error {
	var errs []error
	bad := func(option, format string, args ...any) {
		errs = append(errs, &ConfigurationError{Option: prefix + "." + option, Reason: fmt.Sprintf(format, args...)})
	}
	if m.ValueKeyPath == "" {
		bad("valueKeyPath", "must be set")
	}
	if !(m.Range.Min < m.Range.Max) {
		bad("range", "min %g must be below max %g", m.Range.Min, m.Range.Max)
	}
	switch m.Tooltip {
	case Decimal, Integer, BloodPressure:
	default:
		bad("tooltip", "unknown formatter %q", m.Tooltip)
	}
	switch m.Chart.Type {
	case Line, ClusteredBar:
	default:
		bad("chart.type", "unknown chart type %q", m.Chart.Type)
	}
	if m.Chart.PointSize <= 0 {
		bad("chart.pointSize", "must be positive")
	}
	span := m.Chart.DaysShownOnTimeline
	if span.Min <= 0 || span.Max <= 0 {
		bad("chart.daysShownOnTimeline", "bounds must be positive")
	} else if span.Min > span.Max {
		bad("chart.daysShownOnTimeline", "min %g exceeds max %g", span.Min, span.Max)
	}
	for _, c := range []struct {
		option string
		color  Color
	}{
		{"lineColor", m.Chart.LineColor},
		{"pointFillColor", m.Chart.PointFillColor},
		{"pointStrokeColor", m.Chart.PointStrokeColor},
		{"aboveThresholdPointFillColor", m.Chart.AboveThresholdPointFillColor},
		{"aboveThresholdPointStrokeColor", m.Chart.AboveThresholdPointStrokeColor},
		{"barColor", m.Chart.BarColor},
	} {
		if _, err := c.color.NRGBA(); err != nil {
			bad("chart."+c.option, "%v", err)
		}
	}
	return errors.Join(errs...)
}

// Load reads user options from a YAML (or JSON) file. Unknown keys are
// rejected.
func Load(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return Options{}, fmt.Errorf("opening settings: %w", err)
	}
	defer f.Close()
	var opts Options
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, &ConfigurationError{Option: path, Reason: err.Error()}
	}
	return opts, nil
}
