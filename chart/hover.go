package chart

import (
	"fmt"

	"gioui.org/f32"
	"github.com/felixgeelhaar/statekit"
)

const (
	Idle           statekit.StateID = "idle"
	HoveringAnchor statekit.StateID = "hoveringAnchor"
	HoveringMember statekit.StateID = "hoveringMember"
)

const (
	eventAnchor statekit.EventType = "HOVER_ANCHOR"
	eventMember statekit.EventType = "HOVER_MEMBER"
	eventLeave  statekit.EventType = "LEAVE"
)

// hoverContext is the mutable hover state of one chart.
type hoverContext struct {
	points []ScatterPoint
	// groups maps an observation index to the scatter indices of its
	// points.
	groups map[int][]int
	// anchors maps an observation index to the scatter index of the
	// point carrying the group's tooltip.
	anchors     map[int]int
	hovered     int
	highlighted map[int]bool
}

func (c *hoverContext) setGroupHighlight(i int, on bool) {
	for _, j := range c.groups[c.points[i].Observation] {
		if on {
			c.highlighted[j] = true
		} else {
			delete(c.highlighted, j)
		}
	}
}

// highlight moves the hover to the point in the event payload. The old
// group is reset and the new one highlighted only when the underlying
// observation changes.
func highlight(ctx **hoverContext, ev statekit.Event) {
	c := *ctx
	i, ok := ev.Payload.(int)
	if !ok {
		return
	}
	if c.hovered >= 0 && c.points[c.hovered].Observation == c.points[i].Observation {
		c.hovered = i
		return
	}
	if c.hovered >= 0 {
		c.setGroupHighlight(c.hovered, false)
	}
	c.hovered = i
	c.setGroupHighlight(i, true)
}

func reset(ctx **hoverContext, _ statekit.Event) {
	c := *ctx
	if c.hovered >= 0 {
		c.setGroupHighlight(c.hovered, false)
	}
	c.hovered = -1
}

func newHoverMachine() (*statekit.MachineConfig[*hoverContext], error) {
	return statekit.NewMachine[*hoverContext]("hover").
		WithInitial(Idle).
		WithContext(&hoverContext{}).
		WithAction("highlight", highlight).
		WithAction("reset", reset).
		State(Idle).
		On(eventAnchor).Target(HoveringAnchor).Do("highlight").
		On(eventMember).Target(HoveringMember).Do("highlight").
		On(eventLeave).Target(Idle).Do("reset").
		Done().
		State(HoveringAnchor).
		On(eventAnchor).Target(HoveringAnchor).Do("highlight").
		On(eventMember).Target(HoveringMember).Do("highlight").
		On(eventLeave).Target(Idle).Do("reset").
		Done().
		State(HoveringMember).
		On(eventAnchor).Target(HoveringAnchor).Do("highlight").
		On(eventMember).Target(HoveringMember).Do("highlight").
		On(eventLeave).Target(Idle).Do("reset").
		Done().
		Build()
}

// Hover tracks the hovered point of a scatter layer and the highlight of
// its group. Points of one observation form a group.
type Hover struct {
	ctx    *hoverContext
	interp *statekit.Interpreter[*hoverContext]
}

// NewHover starts a hover state machine over points.
func NewHover(points []ScatterPoint) (*Hover, error) {
	machine, err := newHoverMachine()
	if err != nil {
		return nil, fmt.Errorf("building hover machine: %w", err)
	}
	ctx := &hoverContext{
		points:      points,
		groups:      make(map[int][]int),
		anchors:     make(map[int]int),
		hovered:     -1,
		highlighted: make(map[int]bool),
	}
	for i, p := range points {
		ctx.groups[p.Observation] = append(ctx.groups[p.Observation], i)
		if p.HasTooltip {
			ctx.anchors[p.Observation] = i
		}
	}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **hoverContext) {
		*c = ctx
	})
	interp.Start()
	return &Hover{ctx: ctx, interp: interp}, nil
}

// Move hovers point i, the point nearest to the pointer.
func (h *Hover) Move(i int) {
	if i < 0 || i >= len(h.ctx.points) {
		return
	}
	typ := eventMember
	if h.ctx.points[i].HasTooltip {
		typ = eventAnchor
	}
	h.interp.Send(statekit.Event{Type: typ, Payload: i})
}

// Leave ends hovering and resets the highlighted group.
func (h *Hover) Leave() {
	h.interp.Send(statekit.Event{Type: eventLeave})
}

func (h *Hover) State() statekit.StateID {
	return statekit.StateID(h.interp.State().Value)
}

// Hovered returns the index of the hovered point.
func (h *Hover) Hovered() (int, bool) {
	return h.ctx.hovered, h.ctx.hovered >= 0
}

func (h *Hover) Highlighted(i int) bool {
	return h.ctx.highlighted[i]
}

// Opacity returns the drawing opacity of point i.
func (h *Hover) Opacity(i int) float32 {
	if h.Highlighted(i) {
		return 1
	}
	return pointOpacity
}

// TooltipTarget picks the point the tooltip attaches to. pos returns the
// on-screen position of a point relative to the plot's top-left corner.
// A non-anchor point defers to its group's anchor unless the tooltip would
// then leave the top edge. No tooltip is shown for points outside the
// plot's horizontal bounds.
func (h *Hover) TooltipTarget(pos func(i int) f32.Point, width, tipHeight float32) (int, bool) {
	i, ok := h.Hovered()
	if !ok {
		return -1, false
	}
	target := i
	if !h.ctx.points[i].HasTooltip {
		if a, ok := h.ctx.anchors[h.ctx.points[i].Observation]; ok && pos(a).Y > tipHeight {
			target = a
		}
	}
	if x := pos(target).X; x <= 0 || x >= width {
		return -1, false
	}
	return target, true
}

// Stop halts the state machine.
func (h *Hover) Stop() {
	h.interp.Stop()
}

// Nearest returns the index of the point in candidates closest to p, or
// -1 when candidates is empty.
func Nearest(candidates []int, pos func(i int) f32.Point, p f32.Point) int {
	best, bestDist := -1, float32(0)
	for _, i := range candidates {
		d := pos(i).Sub(p)
		dist := d.X*d.X + d.Y*d.Y
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
