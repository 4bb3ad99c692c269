package chart

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget/material"
	"gioui.org/x/component"

	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// KeyRow summarizes one measure for the key table.
type KeyRow struct {
	Measure        string
	Name           string
	Color          color.NRGBA
	Count          int
	Min, Max       float64
	AboveThreshold int
}

// KeyRows summarizes every listed measure in list order.
func (c *Chart) KeyRows() ([]KeyRow, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	rows := make([]KeyRow, 0, len(c.data.Measures))
	for _, name := range c.data.Measures {
		ms := c.settings.Measure(name)
		row := KeyRow{
			Measure: name,
			Name:    ms.SeriesName,
			Color:   ms.Chart.PointFillColor.MustNRGBA(),
			Min:     math.NaN(),
			Max:     math.NaN(),
		}
		if ms.Chart.Type == settings.ClusteredBar {
			row.Color = ms.Chart.BarColor.MustNRGBA()
		}
		for i, p := range c.data.Points[name] {
			row.Count++
			if i == 0 || p.Y < row.Min {
				row.Min = p.Y
			}
			if i == 0 || p.Y > row.Max {
				row.Max = p.Y
			}
			if ms.AboveThreshold(p.Y) {
				row.AboveThreshold++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// LayoutKey draws the key table below the chart.
func (c *Chart) LayoutKey(gtx C, th *material.Theme) D {
	rows, err := c.KeyRows()
	if err != nil {
		return D{}
	}
	table := component.Table(th, &c.keyTable)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	table.VScrollbarStyle.Indicator.MinorWidth = 0
	table.VScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	statColWidth := gtx.Dp(80)
	const (
		colorCol = iota
		seriesNameCol
		measureCol
		countCol
		minCol
		maxCol
		aboveCol
		numCols
	)
	nameColWidth := max((gtx.Constraints.Max.X-colorColWidth-4*statColWidth-gtx.Dp(table.VScrollbarStyle.Width()))/2, 0)
	rowHeight := gtx.Sp(20)
	headings := [numCols]string{"Color", "Series", "Measure", "Points", "Min", "Max", "Above threshold"}
	gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, rowHeight*(len(rows)+1)+gtx.Dp(4))
	return table.Layout(gtx, len(rows), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			var size int
			switch index {
			case colorCol:
				size = colorColWidth
			case seriesNameCol, measureCol:
				size = nameColWidth
			default:
				size = statColWidth
			}
			return min(size, constraint)
		},
		func(gtx C, index int) D {
			l := material.Body1(th, headings[index])
			if index >= countCol {
				l.Alignment = text.End
			}
			l.Color = th.ContrastFg
			l.MaxLines = 1
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			r := rows[row]
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				var l material.LabelStyle
				switch col {
				case colorCol:
					return layout.Center.Layout(gtx, func(gtx C) D {
						sz := image.Pt(gtx.Dp(10), gtx.Dp(10))
						paint.FillShape(gtx.Ops, r.Color, clip.Rect{Max: sz}.Op())
						return D{Size: sz}
					})
				case seriesNameCol:
					l = material.Body2(th, r.Name)
				case measureCol:
					l = material.Body2(th, r.Measure)
				case countCol:
					l = material.Body2(th, strconv.Itoa(r.Count))
				case minCol:
					l = material.Body2(th, formatStat(r.Min))
				case maxCol:
					l = material.Body2(th, formatStat(r.Max))
				case aboveCol:
					l = material.Body2(th, strconv.Itoa(r.AboveThreshold))
				}
				if col >= countCol {
					l.Alignment = text.End
				}
				l.MaxLines = 1
				return l.Layout(gtx)
			})
			if row&1 != 0 {
				paint.FillShape(gtx.Ops, withAlpha(r.Color, 0.2), clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}
