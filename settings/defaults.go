package settings

// DefaultTimeFormat renders times like "3/2/15, 8:30am".
const DefaultTimeFormat = "1/2/06, 3:04pm"

func ptr[T any](v T) *T { return &v }

// GenericMeasure returns the defaults every measure starts from.
func GenericMeasure() Measure {
	return Measure{
		Range:      Range{Min: 0, Max: 100},
		Units:      "Units",
		SeriesName: "Series",
		Tooltip:    Decimal,
		Chart: Chart{
			Type:                           Line,
			PointSize:                      9,
			LineColor:                      "#dedede",
			PointFillColor:                 "#4a90e2",
			PointStrokeColor:               "#0066d6",
			AboveThresholdPointFillColor:   "#e8ac4e",
			AboveThresholdPointStrokeColor: "#745628",
			BarColor:                       "#4a90e2",
			DaysShownOnTimeline:            DaySpan{Min: 1, Max: 1000},
		},
	}
}

// builtinMeasures are the measure-specific defaults, layered over
// GenericMeasure.
func builtinMeasures() map[string]*MeasureOptions {
	barTimeline := &RangeOptions{Min: ptr(7.0), Max: ptr(90.0)}
	return map[string]*MeasureOptions{
		"body_weight": {
			ValueKeyPath: ptr("body.body_weight.value"),
			Range:        &RangeOptions{Min: ptr(0.0), Max: ptr(100.0)},
			Units:        ptr("kg"),
			Thresholds:   &RangeOptions{Max: ptr(57.0)},
		},
		"heart_rate": {
			ValueKeyPath: ptr("body.heart_rate.value"),
			Range:        &RangeOptions{Min: ptr(30.0), Max: ptr(150.0)},
			Units:        ptr("bpm"),
			Tooltip:      ptr(Integer),
		},
		"step_count": {
			ValueKeyPath:             ptr("body.step_count"),
			Range:                    &RangeOptions{Min: ptr(0.0), Max: ptr(1500.0)},
			Units:                    ptr("Steps"),
			SeriesName:               ptr("Steps"),
			ConsolidateSameTimestamp: ptr(true),
			Chart: &ChartOptions{
				Type:                ptr(ClusteredBar),
				BarColor:            ptr(Color("#eeeeee")),
				DaysShownOnTimeline: barTimeline,
			},
		},
		"minutes_moderate_activity": {
			ValueKeyPath:             ptr("body.minutes_moderate_activity.value"),
			Range:                    &RangeOptions{Min: ptr(0.0), Max: ptr(300.0)},
			Units:                    ptr("Minutes"),
			SeriesName:               ptr("Minutes of moderate activity"),
			ConsolidateSameTimestamp: ptr(true),
			Chart: &ChartOptions{
				Type:                ptr(ClusteredBar),
				DaysShownOnTimeline: barTimeline,
			},
		},
		"systolic_blood_pressure": {
			ValueKeyPath: ptr("body.systolic_blood_pressure.value"),
			Range:        &RangeOptions{Min: ptr(30.0), Max: ptr(200.0)},
			Units:        ptr("mmHg"),
			Thresholds:   &RangeOptions{Max: ptr(120.0)},
			Tooltip:      ptr(BloodPressure),
		},
		"diastolic_blood_pressure": {
			ValueKeyPath: ptr("body.diastolic_blood_pressure.value"),
			Range:        &RangeOptions{Min: ptr(30.0), Max: ptr(200.0)},
			Units:        ptr("mmHg"),
			Thresholds:   &RangeOptions{Max: ptr(80.0)},
			Tooltip:      ptr(BloodPressure),
		},
	}
}

// Defaults returns the built-in configuration.
func Defaults() Settings {
	on := Toggle{Enabled: true}
	s := Settings{
		UserInterface: UserInterface{
			Toolbar:         on,
			TimespanButtons: on,
			ZoomButtons:     on,
			Navigation:      on,
			Tooltips:        Tooltips{Enabled: true, TimeFormat: DefaultTimeFormat},
			PanZoom:         PanZoom{Enabled: true, ShowHint: true},
		},
		Measures: make(map[string]Measure),
	}
	for name, o := range builtinMeasures() {
		s.Measures[name] = MergeMeasure(GenericMeasure(), o)
	}
	return s
}
