package chart

import (
	"image"
	"image/color"
	"strconv"
	"time"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var (
	gridColor    = color.NRGBA{A: 30}
	tooltipBg    = color.NRGBA{R: 255, G: 255, B: 255, A: 230}
	aboveTextCol = color.NRGBA{R: 0xc0, G: 0x39, B: 0x2b, A: 0xff}
)

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

func withAlpha(c color.NRGBA, opacity float32) color.NRGBA {
	c.A = uint8(float32(c.A) * opacity)
	return c
}

// Layout draws the toolbar above the plot and its axes. A destroyed chart
// draws nothing.
func (c *Chart) Layout(gtx C, th *material.Theme) D {
	if c.destroyed {
		return D{Size: gtx.Constraints.Min}
	}
	c.update(gtx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return c.layoutToolbar(gtx, th)
		}),
		layout.Flexed(1, func(gtx C) D {
			return c.layoutPlotArea(gtx, th)
		}),
	)
}

func (c *Chart) update(gtx C) {
	for i, b := range c.toolbar.Buttons {
		for b.click.Clicked(gtx) {
			c.clickButton(i)
		}
	}
	if c.hintClick.Clicked(gtx) {
		c.hintVisible = false
	}
}

func (c *Chart) layoutToolbar(gtx C, th *material.Theme) D {
	if len(c.toolbar.Buttons) == 0 {
		return D{}
	}
	children := make([]layout.FlexChild, 0, len(c.toolbar.Buttons)*2)
	for i, b := range c.toolbar.Buttons {
		i, b := i, b
		children = append(children, layout.Rigid(func(gtx C) D {
			if b.Icon != nil {
				btn := material.IconButton(th, &b.click, b.Icon, b.Label)
				btn.Size = 16
				btn.Inset = layout.UniformInset(4)
				return btn.Layout(gtx)
			}
			btn := material.Button(th, &b.click, b.Label)
			btn.Inset = layout.Inset{Top: 4, Bottom: 4, Left: 8, Right: 8}
			if i != c.toolbar.Active {
				btn.Background = withAlpha(th.ContrastBg, 0.4)
			}
			return btn.Layout(gtx)
		}))
		children = append(children, layout.Rigid(layout.Spacer{Width: 4}.Layout))
	}
	return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
	})
}

// layoutPlotArea reserves space for the y axes on either side and the time
// axis below, then draws the plot in what remains.
func (c *Chart) layoutPlotArea(gtx C, th *material.Theme) D {
	size := gtx.Constraints.Max
	gtx.Constraints.Min = image.Point{}
	probe := material.Caption(th, "00000")
	probeDims, _ := rec(gtx, probe.Layout)
	axisWidth := probeDims.Size.X + gtx.Dp(8)
	labelHeight := probeDims.Size.Y

	var rightAxes int
	for _, a := range c.model.Axes {
		if a.Side == Right {
			rightAxes++
		}
	}
	plotRect := image.Rectangle{
		Min: image.Pt(axisWidth, labelHeight),
		Max: image.Pt(size.X-rightAxes*axisWidth, size.Y-labelHeight),
	}
	if plotRect.Dx() <= 0 || plotRect.Dy() <= 0 {
		return D{Size: size}
	}

	// The plot is laid out first so that gestures update the viewport
	// before the axes are labelled.
	pgtx := gtx
	pgtx.Constraints = layout.Exact(plotRect.Size())
	plotDims, plotCall := rec(pgtx, c.layoutPlot(th))

	right := 0
	for _, a := range c.model.Axes {
		x := 0
		align := text.End
		if a.Side == Right {
			x = plotRect.Max.X + right*axisWidth
			align = text.Start
			right++
		}
		stack := op.Offset(image.Pt(x, 0)).Push(gtx.Ops)
		c.layoutYAxis(gtx, th, a, align, axisWidth, plotRect.Min.Y, plotRect.Dy(), labelHeight)
		stack.Pop()
	}

	stack := op.Offset(plotRect.Min).Push(gtx.Ops)
	plotCall.Add(gtx.Ops)
	stack.Pop()

	stack = op.Offset(image.Pt(plotRect.Min.X, plotRect.Max.Y)).Push(gtx.Ops)
	c.layoutTimeAxis(gtx, th, plotDims.Size.X, probeDims.Size.X)
	stack.Pop()

	return D{Size: size}
}

func (c *Chart) layoutYAxis(gtx C, th *material.Theme, a Axis, align text.Alignment, width, top, height, labelHeight int) {
	gtx.Constraints = layout.Exact(image.Pt(width-gtx.Dp(4), labelHeight))
	units := material.Caption(th, a.Label)
	units.Alignment = align
	units.MaxLines = 1
	units.Layout(gtx)
	for _, v := range a.Scale.Ticks(max(height/(labelHeight*2), 2)) {
		y := top + int(a.Scale.Y(v, height)) - labelHeight/2
		l := material.Caption(th, strconv.FormatFloat(v, 'f', -1, 64))
		l.Alignment = align
		l.MaxLines = 1
		stack := op.Offset(image.Pt(0, y)).Push(gtx.Ops)
		l.Layout(gtx)
		stack.Pop()
	}
}

func (c *Chart) layoutTimeAxis(gtx C, th *material.Theme, width, labelWidth int) {
	gtx.Constraints.Min = image.Point{}
	scale := c.viewport.Scale()
	for _, tick := range scale.Ticks(max(width/(labelWidth*2), 1), c.model.Granularities, c.settings.Location()) {
		l := material.Caption(th, tick.Label)
		l.MaxLines = 1
		dims, call := rec(gtx, l.Layout)
		x := int(scale.X(tick.At, width)) - dims.Size.X/2
		if x < 0 || x+dims.Size.X > width {
			continue
		}
		stack := op.Offset(image.Pt(x, 0)).Push(gtx.Ops)
		call.Add(gtx.Ops)
		stack.Pop()
	}
}

// handleInput turns pointer, drag and wheel input into viewport and hover
// changes.
func (c *Chart) handleInput(gtx C) {
	width, height := gtx.Constraints.Max.X, gtx.Constraints.Max.Y
	if !c.settings.UserInterface.PanZoom.Enabled {
		c.handlePointer(gtx, width, false)
		return
	}
	dist := c.zoom.Update(gtx.Metric, gtx.Source, gtx.Now, gesture.Vertical, image.Rect(0, -1e6, 0, 1e6))
	if dist != 0 {
		proportion := 1 + float64(dist)/float64(height)
		c.viewport.ZoomAround(c.viewport.Scale().Time(c.pointer.X, width), proportion)
		c.gestured()
	}
	dist = c.pan.Update(gtx.Metric, gtx.Source, gtx.Now, gesture.Horizontal, image.Rect(-1e6, 0, 1e6, 0))
	if dist != 0 {
		c.viewport.Pan(c.pxToDuration(float32(dist), width))
		c.gestured()
	}
	c.handlePointer(gtx, width, true)
}

func (c *Chart) pxToDuration(px float32, width int) time.Duration {
	span := c.viewport.End.Sub(c.viewport.Start)
	return time.Duration(float64(span) * float64(px) / float64(width))
}

func (c *Chart) handlePointer(gtx C, width int, drag bool) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: c,
			Kinds:  pointer.Enter | pointer.Leave | pointer.Move | pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel,
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch e.Kind {
		case pointer.Enter:
			c.isHovered = true
			c.pointer = e.Position
		case pointer.Leave, pointer.Cancel:
			c.isHovered = false
			c.dragging = false
			if c.hover != nil {
				c.hover.Leave()
			}
		case pointer.Press:
			c.dragging = drag
			c.pointer = e.Position
		case pointer.Release:
			c.dragging = false
		case pointer.Drag:
			if c.dragging {
				c.viewport.Pan(-c.pxToDuration(e.Position.X-c.pointer.X, width))
				c.gestured()
			}
			c.pointer = e.Position
		case pointer.Move:
			c.isHovered = true
			c.pointer = e.Position
		}
	}
}

// pointPos returns the position of scatter point i within a plot of the
// given size.
func (c *Chart) pointPos(i int, size image.Point) f32.Point {
	p := c.model.Scatter[i]
	return f32.Pt(
		c.viewport.Scale().X(p.X, size.X),
		c.model.PrimaryAxis().Scale.Y(p.Y, size.Y),
	)
}

func (c *Chart) layoutPlot(th *material.Theme) layout.Widget {
	return func(gtx C) D {
		c.handleInput(gtx)
		size := gtx.Constraints.Max
		defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
		c.pan.Add(gtx.Ops)
		c.zoom.Add(gtx.Ops)
		event.Op(gtx.Ops, c)

		c.layoutGrid(gtx, size)
		c.layoutThresholds(gtx, size)
		c.layoutBars(gtx, size)
		c.layoutLines(gtx, size)
		c.layoutScatter(gtx, size)
		c.layoutLegend(gtx, th)
		if c.hintVisible {
			c.layoutHint(gtx, th)
		}
		c.layoutTooltip(gtx, th, size)
		return D{Size: size}
	}
}

func (c *Chart) layoutGrid(gtx C, size image.Point) {
	scale := c.model.PrimaryAxis().Scale
	for _, v := range scale.Ticks(max(size.Y/gtx.Dp(40), 2)) {
		y := int(scale.Y(v, size.Y))
		paint.FillShape(gtx.Ops, gridColor, clip.Rect{Min: image.Pt(0, y), Max: image.Pt(size.X, y+1)}.Op())
	}
}

func (c *Chart) layoutThresholds(gtx C, size image.Point) {
	yScale := c.model.PrimaryAxis().Scale
	for _, t := range c.model.Thresholds {
		y := yScale.Y(t.Value, size.Y)
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(f32.Pt(c.model.ThresholdScale.X(t.X0, size.X), y))
		p.LineTo(f32.Pt(c.model.ThresholdScale.X(t.X1, size.X), y))
		paint.FillShape(gtx.Ops, thresholdColor, clip.Stroke{
			Path:  p.End(),
			Width: float32(gtx.Dp(lineStrokeWidth)),
		}.Op())
	}
}

func (c *Chart) layoutBars(gtx C, size image.Point) {
	if !c.model.HasBars() {
		return
	}
	scale := c.viewport.Scale()
	dayWidth := scale.X(scale.Start.Add(day), size.X)
	clusterWidth := dayWidth * 0.8
	for _, plot := range c.model.Bars {
		yScale := c.model.Axes[plot.Axis].Scale
		slotWidth := clusterWidth / float32(len(plot.Datasets))
		for slot, ds := range plot.Datasets {
			for _, p := range ds.Points {
				x := scale.X(p.X, size.X) - clusterWidth/2 + float32(slot)*slotWidth
				if x+slotWidth < 0 || x > float32(size.X) {
					continue
				}
				top := yScale.Y(p.Y, size.Y)
				base := yScale.Y(max(yScale.Min, 0), size.Y)
				r := image.Rect(int(x), int(min(top, base)), int(ceil(x+slotWidth)), int(max(top, base)))
				paint.FillShape(gtx.Ops, ds.Color, clip.Rect(r).Op())
			}
		}
	}
}

func (c *Chart) layoutLines(gtx C, size image.Point) {
	scale := c.viewport.Scale()
	yScale := c.model.PrimaryAxis().Scale
	for _, l := range c.model.Lines {
		if len(l.Points) < 2 {
			continue
		}
		var p clip.Path
		p.Begin(gtx.Ops)
		for i, pt := range l.Points {
			pos := f32.Pt(scale.X(pt.X, size.X), yScale.Y(pt.Y, size.Y))
			if i == 0 {
				p.MoveTo(pos)
			} else {
				p.LineTo(pos)
			}
		}
		paint.FillShape(gtx.Ops, l.Color, clip.Stroke{
			Path:  p.End(),
			Width: float32(gtx.Dp(lineStrokeWidth)),
		}.Op())
	}
}

func (c *Chart) layoutScatter(gtx C, size image.Point) {
	for i, p := range c.model.Scatter {
		pos := c.pointPos(i, size)
		if pos.X < -p.Size || pos.X > float32(size.X)+p.Size {
			continue
		}
		opacity := float32(pointOpacity)
		if c.hover != nil {
			opacity = c.hover.Opacity(i)
		}
		r := gtx.Metric.PxPerDp * p.Size / 2
		bounds := image.Rect(int(pos.X-r), int(pos.Y-r), int(ceil(pos.X+r)), int(ceil(pos.Y+r)))
		paint.FillShape(gtx.Ops, withAlpha(p.Fill, opacity), clip.Ellipse(bounds).Op(gtx.Ops))
		paint.FillShape(gtx.Ops, withAlpha(p.Stroke, opacity), clip.Stroke{
			Path:  clip.Ellipse(bounds).Path(gtx.Ops),
			Width: float32(gtx.Dp(pointStrokeWidth)),
		}.Op())
	}
}

func (c *Chart) layoutLegend(gtx C, th *material.Theme) {
	if len(c.model.Legend) == 0 {
		return
	}
	gtx.Constraints.Min = image.Point{}
	children := make([]layout.FlexChild, 0, len(c.model.Legend))
	for _, e := range c.model.Legend {
		e := e
		children = append(children, layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					sz := image.Pt(gtx.Dp(8), gtx.Dp(8))
					paint.FillShape(gtx.Ops, e.Color, clip.Rect{Max: sz}.Op())
					return D{Size: sz}
				}),
				layout.Rigid(layout.Spacer{Width: 4}.Layout),
				layout.Rigid(material.Caption(th, e.Name).Layout),
			)
		}))
	}
	dims, call := rec(gtx, func(gtx C) D {
		return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
			return layout.Flex{Axis: layout.Vertical, Alignment: layout.End}.Layout(gtx, children...)
		})
	})
	defer op.Offset(image.Pt(gtx.Constraints.Max.X-dims.Size.X, 0)).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}

func (c *Chart) layoutHint(gtx C, th *material.Theme) {
	gtx.Constraints.Min = image.Point{}
	l := material.Caption(th, c.model.Hint)
	l.Color = withAlpha(th.Fg, 0.6)
	dims, call := rec(gtx, func(gtx C) D {
		return c.hintClick.Layout(gtx, func(gtx C) D {
			return layout.UniformInset(10).Layout(gtx, l.Layout)
		})
	})
	defer op.Offset(gtx.Constraints.Max.Sub(dims.Size)).Push(gtx.Ops).Pop()
	call.Add(gtx.Ops)
}

func (c *Chart) layoutTooltip(gtx C, th *material.Theme, size image.Point) {
	if c.hover == nil || !c.isHovered {
		return
	}
	candidates := make([]int, 0, len(c.model.Scatter))
	for i := range c.model.Scatter {
		if x := c.pointPos(i, size).X; x >= 0 && x <= float32(size.X) {
			candidates = append(candidates, i)
		}
	}
	pos := func(i int) f32.Point { return c.pointPos(i, size) }
	if !c.dragging {
		if i := Nearest(candidates, pos, c.pointer); i >= 0 {
			c.hover.Move(i)
		}
	}

	gtx.Constraints.Min = image.Point{}
	hovered, ok := c.hover.Hovered()
	if !ok {
		return
	}
	// Measure with the hovered point's content; the tooltip height does
	// not depend on which group member is shown.
	tipDims, _ := rec(gtx, c.tooltipWidget(th, hovered))
	target, ok := c.hover.TooltipTarget(pos, float32(size.X), float32(tipDims.Size.Y))
	if !ok {
		return
	}
	tipDims, tipCall := rec(gtx, c.tooltipWidget(th, target))
	at := pos(target)
	offset := image.Pt(
		clamp(int(at.X)-tipDims.Size.X/2, 0, max(size.X-tipDims.Size.X, 0)),
		max(int(at.Y)-tipDims.Size.Y-gtx.Dp(unit.Dp(c.model.Scatter[target].Size)), 0),
	)
	defer op.Offset(offset).Push(gtx.Ops).Pop()
	tipCall.Add(gtx.Ops)
}

func (c *Chart) tooltipWidget(th *material.Theme, i int) layout.Widget {
	tip := TooltipFor(c.model.Scatter[i].PlotPoint, c.settings)
	return func(gtx C) D {
		return layout.Background{}.Layout(gtx,
			func(gtx C) D {
				paint.FillShape(gtx.Ops, tooltipBg, clip.UniformRRect(image.Rectangle{Max: gtx.Constraints.Min}, gtx.Dp(4)).Op(gtx.Ops))
				return D{Size: gtx.Constraints.Min}
			},
			func(gtx C) D {
				return layout.UniformInset(6).Layout(gtx, func(gtx C) D {
					value := material.Body1(th, tip.Value)
					value.Font.Weight = font.Bold
					if tip.Above {
						value.Color = aboveTextCol
					}
					return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx,
						layout.Rigid(value.Layout),
						layout.Rigid(material.Caption(th, tip.Time).Layout),
						layout.Rigid(material.Caption(th, tip.Provider).Layout),
					)
				})
			},
		)
	}
}
