package chart

import (
	"image/color"
	"slices"

	"git.sr.ht/~whereswaldon/omhviz/backend"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// PanZoomHint is shown over the plot until it is first clicked.
const PanZoomHint = "( Drag chart to pan, pinch or scroll to zoom )"

const (
	pointOpacity     = 0.5
	lineStrokeWidth  = 1
	pointStrokeWidth = 1
)

var thresholdColor = settings.Color("#dedede").MustNRGBA()

// Side is the edge of the plot an axis is drawn on.
type Side int

const (
	Left Side = iota
	Right
)

// Axis is a labelled y axis.
type Axis struct {
	Measure string
	Label   string
	Scale   LinearScale
	Side    Side
}

// LinePlot connects one line measure's points.
type LinePlot struct {
	Measure string
	Color   color.NRGBA
	Points  []backend.PlotPoint
}

// ScatterPoint is one marker in the shared point layer.
type ScatterPoint struct {
	backend.PlotPoint
	Fill, Stroke color.NRGBA
	Size         float32
	Above        bool
}

// BarDataset is one measure's bars within a clustered bar plot. Datasets
// of other measures are registered empty so every plot has the same
// cluster slots.
type BarDataset struct {
	Measure string
	Color   color.NRGBA
	Points  []backend.PlotPoint
}

// BarPlot draws the bars of one measure against its own y axis.
type BarPlot struct {
	Measure string
	// Axis indexes Model.Axes.
	Axis     int
	Datasets []BarDataset
}

// ThresholdLine is a horizontal reference line on the primary y scale.
// Its x coordinates live on Model.ThresholdScale.
type ThresholdLine struct {
	Measure string
	Value   float64
	X0, X1  float64
}

type LegendEntry struct {
	Name  string
	Color color.NRGBA
}

// Model is the assembled, renderer-independent description of a chart.
type Model struct {
	Measures []string
	Primary  settings.Measure
	// Extent is the full data extent.
	Extent         TimeScale
	Axes           []Axis
	Lines          []LinePlot
	Scatter        []ScatterPoint
	Bars           []BarPlot
	Thresholds     []ThresholdLine
	ThresholdScale LinearScale
	Legend         []LegendEntry
	// Hint is empty when the pan/zoom hint is disabled.
	Hint string
	// Granularities restricts time axis ticks.
	Granularities []Granularity
}

// PrimaryAxis returns the left-hand axis of the first listed measure.
func (m *Model) PrimaryAxis() Axis {
	return m.Axes[0]
}

// HasBars reports whether any clustered bar measure is present.
func (m *Model) HasBars() bool {
	return len(m.Bars) > 0
}

// Assemble lays out scales, axes and plots for normalized data.
func Assemble(d *backend.MeasureData, s settings.Settings) *Model {
	primary := s.Measure(d.Measures[0])
	m := &Model{
		Measures:       d.Measures,
		Primary:        primary,
		ThresholdScale: LinearScale{Min: 0, Max: 1},
		Granularities:  AllGranularities,
		Axes: []Axis{{
			Measure: d.Measures[0],
			Label:   primary.Units,
			Scale:   LinearScale{Min: primary.Range.Min, Max: primary.Range.Max},
			Side:    Left,
		}},
	}
	if first, last, ok := d.Extent(); ok {
		m.Extent = TimeScale{Start: first, End: last}
	}

	var barMeasures []string
	for _, name := range d.Measures {
		if s.Measure(name).Chart.Type == settings.ClusteredBar {
			barMeasures = append(barMeasures, name)
		}
	}

	for _, name := range d.Measures {
		ms := s.Measure(name)
		points := d.Points[name]
		if ms.Chart.Type == settings.ClusteredBar {
			axis := 0
			if len(m.Bars) > 0 {
				m.Axes = append(m.Axes, Axis{
					Measure: name,
					Label:   ms.Units,
					Scale:   LinearScale{Min: ms.Range.Min, Max: ms.Range.Max},
					Side:    Right,
				})
				axis = len(m.Axes) - 1
			}
			plot := BarPlot{Measure: name, Axis: axis}
			for _, other := range barMeasures {
				ds := BarDataset{Measure: other, Color: s.Measure(other).Chart.BarColor.MustNRGBA()}
				if other == name {
					ds.Points = points
				}
				plot.Datasets = append(plot.Datasets, ds)
			}
			m.Bars = append(m.Bars, plot)
			continue
		}
		line := slices.Clone(points)
		slices.SortStableFunc(line, func(a, b backend.PlotPoint) int {
			return a.X.Compare(b.X)
		})
		m.Lines = append(m.Lines, LinePlot{
			Measure: name,
			Color:   ms.Chart.LineColor.MustNRGBA(),
			Points:  line,
		})
		for _, p := range points {
			above := ms.AboveThreshold(p.Y)
			sp := ScatterPoint{
				PlotPoint: p,
				Fill:      ms.Chart.PointFillColor.MustNRGBA(),
				Stroke:    ms.Chart.PointStrokeColor.MustNRGBA(),
				Size:      ms.Chart.PointSize,
				Above:     above,
			}
			if above {
				sp.Fill = ms.Chart.AboveThresholdPointFillColor.MustNRGBA()
				sp.Stroke = ms.Chart.AboveThresholdPointStrokeColor.MustNRGBA()
			}
			m.Scatter = append(m.Scatter, sp)
		}
	}

	if len(m.Bars) > 0 {
		m.Granularities = []Granularity{Day, Month, Year}
		for _, name := range barMeasures {
			ms := s.Measure(name)
			if ms.SeriesName != "" && ms.Chart.BarColor != "" {
				m.Legend = append(m.Legend, LegendEntry{Name: ms.SeriesName, Color: ms.Chart.BarColor.MustNRGBA()})
			}
		}
	}

	for _, name := range d.Measures {
		if t := s.Measure(name).Thresholds; t != nil {
			m.Thresholds = append(m.Thresholds, ThresholdLine{Measure: name, Value: t.Max, X0: 0, X1: 1})
		}
	}

	if ui := s.UserInterface.PanZoom; ui.Enabled && ui.ShowHint {
		m.Hint = PanZoomHint
	}
	return m
}
