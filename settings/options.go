package settings

import "maps"

// Options is a partial configuration supplied by the user. Every field is
// optional. A set field replaces the default at its own depth and unset
// fields keep the default.
type Options struct {
	UserInterface *UserInterfaceOptions      `yaml:"userInterface" json:"userInterface"`
	Measures      map[string]*MeasureOptions `yaml:"measures" json:"measures"`
	Timezone      *string                    `yaml:"timezone" json:"timezone"`
}

type ToggleOptions struct {
	Enabled *bool `yaml:"enabled" json:"enabled"`
}

type TooltipsOptions struct {
	Enabled    *bool   `yaml:"enabled" json:"enabled"`
	TimeFormat *string `yaml:"timeFormat" json:"timeFormat"`
}

type PanZoomOptions struct {
	Enabled  *bool `yaml:"enabled" json:"enabled"`
	ShowHint *bool `yaml:"showHint" json:"showHint"`
}

type UserInterfaceOptions struct {
	Toolbar         *ToggleOptions   `yaml:"toolbar" json:"toolbar"`
	TimespanButtons *ToggleOptions   `yaml:"timespanButtons" json:"timespanButtons"`
	ZoomButtons     *ToggleOptions   `yaml:"zoomButtons" json:"zoomButtons"`
	Navigation      *ToggleOptions   `yaml:"navigation" json:"navigation"`
	Tooltips        *TooltipsOptions `yaml:"tooltips" json:"tooltips"`
	PanZoom         *PanZoomOptions  `yaml:"panZoom" json:"panZoom"`
}

type RangeOptions struct {
	Min *float64 `yaml:"min" json:"min"`
	Max *float64 `yaml:"max" json:"max"`
}

type ChartOptions struct {
	Type                           *ChartType    `yaml:"type" json:"type"`
	PointSize                      *float32      `yaml:"pointSize" json:"pointSize"`
	LineColor                      *Color        `yaml:"lineColor" json:"lineColor"`
	PointFillColor                 *Color        `yaml:"pointFillColor" json:"pointFillColor"`
	PointStrokeColor               *Color        `yaml:"pointStrokeColor" json:"pointStrokeColor"`
	AboveThresholdPointFillColor   *Color        `yaml:"aboveThresholdPointFillColor" json:"aboveThresholdPointFillColor"`
	AboveThresholdPointStrokeColor *Color        `yaml:"aboveThresholdPointStrokeColor" json:"aboveThresholdPointStrokeColor"`
	BarColor                       *Color        `yaml:"barColor" json:"barColor"`
	DaysShownOnTimeline            *RangeOptions `yaml:"daysShownOnTimeline" json:"daysShownOnTimeline"`
}

type MeasureOptions struct {
	ValueKeyPath             *string        `yaml:"valueKeyPath" json:"valueKeyPath"`
	Range                    *RangeOptions  `yaml:"range" json:"range"`
	Units                    *string        `yaml:"units" json:"units"`
	SeriesName               *string        `yaml:"seriesName" json:"seriesName"`
	Thresholds               *RangeOptions  `yaml:"thresholds" json:"thresholds"`
	ConsolidateSameTimestamp *bool          `yaml:"consolidateSameTimestamp" json:"consolidateSameTimestamp"`
	Tooltip                  *TooltipFormat `yaml:"tooltip" json:"tooltip"`
	Chart                    *ChartOptions  `yaml:"chart" json:"chart"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Merge returns base with opts layered over it. base is not modified.
// Measures named in opts but absent from base start from GenericMeasure.
func Merge(base Settings, opts Options) Settings {
	out := base
	out.Measures = maps.Clone(base.Measures)
	if out.Measures == nil {
		out.Measures = make(map[string]Measure)
	}
	set(&out.Timezone, opts.Timezone)
	out.UserInterface = mergeUserInterface(base.UserInterface, opts.UserInterface)
	for name, mo := range opts.Measures {
		m, ok := out.Measures[name]
		if !ok {
			m = GenericMeasure()
		}
		out.Measures[name] = MergeMeasure(m, mo)
	}
	return out
}

func mergeToggle(t Toggle, o *ToggleOptions) Toggle {
	if o != nil {
		set(&t.Enabled, o.Enabled)
	}
	return t
}

func mergeUserInterface(ui UserInterface, o *UserInterfaceOptions) UserInterface {
	if o == nil {
		return ui
	}
	ui.Toolbar = mergeToggle(ui.Toolbar, o.Toolbar)
	ui.TimespanButtons = mergeToggle(ui.TimespanButtons, o.TimespanButtons)
	ui.ZoomButtons = mergeToggle(ui.ZoomButtons, o.ZoomButtons)
	ui.Navigation = mergeToggle(ui.Navigation, o.Navigation)
	if o.Tooltips != nil {
		set(&ui.Tooltips.Enabled, o.Tooltips.Enabled)
		set(&ui.Tooltips.TimeFormat, o.Tooltips.TimeFormat)
	}
	if o.PanZoom != nil {
		set(&ui.PanZoom.Enabled, o.PanZoom.Enabled)
		set(&ui.PanZoom.ShowHint, o.PanZoom.ShowHint)
	}
	return ui
}

// MergeMeasure layers o over m.
func MergeMeasure(m Measure, o *MeasureOptions) Measure {
	if o == nil {
		return m
	}
	set(&m.ValueKeyPath, o.ValueKeyPath)
	if o.Range != nil {
		set(&m.Range.Min, o.Range.Min)
		set(&m.Range.Max, o.Range.Max)
	}
	set(&m.Units, o.Units)
	set(&m.SeriesName, o.SeriesName)
	if o.Thresholds != nil && o.Thresholds.Max != nil {
		m.Thresholds = &Threshold{Max: *o.Thresholds.Max}
	}
	set(&m.ConsolidateSameTimestamp, o.ConsolidateSameTimestamp)
	set(&m.Tooltip, o.Tooltip)
	if c := o.Chart; c != nil {
		set(&m.Chart.Type, c.Type)
		set(&m.Chart.PointSize, c.PointSize)
		set(&m.Chart.LineColor, c.LineColor)
		set(&m.Chart.PointFillColor, c.PointFillColor)
		set(&m.Chart.PointStrokeColor, c.PointStrokeColor)
		set(&m.Chart.AboveThresholdPointFillColor, c.AboveThresholdPointFillColor)
		set(&m.Chart.AboveThresholdPointStrokeColor, c.AboveThresholdPointStrokeColor)
		set(&m.Chart.BarColor, c.BarColor)
		if d := c.DaysShownOnTimeline; d != nil {
			set(&m.Chart.DaysShownOnTimeline.Min, d.Min)
			set(&m.Chart.DaysShownOnTimeline.Max, d.Max)
		}
	}
	return m
}
