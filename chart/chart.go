// Package chart assembles normalized observation data into an
// interactive Gio chart with pan and zoom, a toolbar and hover tooltips.
package chart

import (
	"errors"
	"fmt"
	"time"

	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/widget"
	"gioui.org/x/component"
	"github.com/felixgeelhaar/bolt/v3"

	"git.sr.ht/~whereswaldon/omhviz/backend"
	"git.sr.ht/~whereswaldon/omhviz/logging"
	"git.sr.ht/~whereswaldon/omhviz/omh"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// ErrDestroyed is returned by every operation on a destroyed chart.
var ErrDestroyed = errors.New("chart destroyed")

// Chart is one immutable rendering of an observation snapshot. A new
// snapshot needs a new Chart; release the old one with Destroy.
type Chart struct {
	log      *bolt.Logger
	settings settings.Settings
	data     *backend.MeasureData
	model    *Model
	viewport Viewport
	toolbar  *Toolbar
	// hover is nil when tooltips are disabled or nothing is drawn as
	// points.
	hover       *Hover
	hintVisible bool

	destroyed bool
	subs      []func()
	listeners map[int]func(Viewport)
	nextID    int

	zoom      gesture.Scroll
	pan       gesture.Scroll
	hintClick widget.Clickable
	keyTable  component.GridState
	pointer   f32.Point
	dragging  bool
	isHovered bool
	plotSize  f32.Point
}

// New normalizes observations for the comma-separated measure list and
// assembles a chart. Configuration problems fail here; observations that
// cannot be plotted are logged and skipped.
func New(observations []omh.Observation, measureList string, s settings.Settings, log *bolt.Logger) (*Chart, error) {
	if log == nil {
		log = logging.Discard()
	}
	start := time.Now()
	data, err := backend.Build(observations, measureList, s)
	if err != nil {
		return nil, err
	}
	for _, w := range data.Warnings {
		e := log.Warn()
		var shape *backend.DataShapeError
		var path *backend.UnresolvedPathError
		switch {
		case errors.As(w, &path):
			e = logging.With(e, logging.Observation(path.Observation), logging.Measure(path.Measure))
		case errors.As(w, &shape):
			e = logging.With(e, logging.Observation(shape.Observation))
		}
		logging.With(e, logging.Error(w)).Msg("skipped observation data")
	}

	c := &Chart{
		log:       log,
		settings:  s,
		data:      data,
		model:     Assemble(data, s),
		listeners: make(map[int]func(Viewport)),
	}
	first, last := c.model.Extent.Start, c.model.Extent.End
	if first.IsZero() {
		first = omh.Midday(time.Now(), s.Location())
		last = first
	}
	c.viewport, err = NewViewport(first, last, c.model.Primary.Chart.DaysShownOnTimeline)
	if err != nil {
		return nil, fmt.Errorf("measure %s: %w", data.Measures[0], err)
	}

	c.toolbar = NewToolbar(s.UserInterface, c.model.Primary.Chart.DaysShownOnTimeline)
	c.own(func() { c.toolbar = nil })

	c.hintVisible = c.model.Hint != ""

	if s.UserInterface.Tooltips.Enabled && len(c.model.Scatter) > 0 {
		c.hover, err = NewHover(c.model.Scatter)
		if err != nil {
			return nil, err
		}
		h := c.hover
		c.own(func() {
			h.Stop()
			c.hover = nil
		})
	}
	c.own(func() {
		clear(c.listeners)
		c.model = nil
		c.data = nil
	})

	logging.With(log.Debug(),
		logging.Count("measures", len(data.Measures)),
		logging.Count("points", len(c.model.Scatter)),
		logging.Count("warnings", len(data.Warnings)),
		logging.Duration(time.Since(start)),
	).Msg("built chart")
	return c, nil
}

// own registers a release function run exactly once by Destroy.
func (c *Chart) own(release func()) {
	c.subs = append(c.subs, release)
}

// Destroy releases every subscription made during construction and the
// assembled plot. Calling it again does nothing.
func (c *Chart) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	for i := len(c.subs) - 1; i >= 0; i-- {
		c.subs[i]()
	}
	c.subs = nil
}

func (c *Chart) Destroyed() bool {
	return c.destroyed
}

// Model returns the assembled plot.
func (c *Chart) Model() (*Model, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	return c.model, nil
}

// Data returns the normalized measure data the chart was built from.
func (c *Chart) Data() (*backend.MeasureData, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	return c.data, nil
}

// Toolbar returns the chart's toolbar.
func (c *Chart) Toolbar() (*Toolbar, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	return c.toolbar, nil
}

// Viewport returns the visible x domain.
func (c *Chart) Viewport() (Viewport, error) {
	if c.destroyed {
		return Viewport{}, ErrDestroyed
	}
	return c.viewport, nil
}

// OnViewportChange registers fn to run whenever the visible domain
// changes. The returned function unregisters it.
func (c *Chart) OnViewportChange(fn func(Viewport)) (func(), error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }, nil
}

func (c *Chart) viewportChanged() {
	for _, fn := range c.listeners {
		fn(c.viewport)
	}
}

// Click performs the toolbar button with label.
func (c *Chart) Click(label string) error {
	if c.destroyed {
		return ErrDestroyed
	}
	i := c.toolbar.Find(label)
	if i < 0 {
		return fmt.Errorf("no toolbar button %q", label)
	}
	c.clickButton(i)
	return nil
}

func (c *Chart) clickButton(i int) {
	c.toolbar.Apply(i, &c.viewport)
	c.viewportChanged()
}

// Pan moves the visible window by d. It dismisses the hint and clears the
// active timespan button.
func (c *Chart) Pan(d time.Duration) error {
	if c.destroyed {
		return ErrDestroyed
	}
	c.viewport.Pan(d)
	c.gestured()
	return nil
}

// Zoom scales the visible width by factor around anchor, clamped to the
// primary measure's day span.
func (c *Chart) Zoom(anchor time.Time, factor float64) error {
	if c.destroyed {
		return ErrDestroyed
	}
	c.viewport.ZoomAround(anchor, factor)
	c.gestured()
	return nil
}

func (c *Chart) gestured() {
	c.hintVisible = false
	c.toolbar.ClearActive()
	c.viewportChanged()
}

// HintVisible reports whether the pan/zoom hint is still shown.
func (c *Chart) HintVisible() (bool, error) {
	if c.destroyed {
		return false, ErrDestroyed
	}
	return c.hintVisible, nil
}

// DismissHint hides the pan/zoom hint for the life of the chart.
func (c *Chart) DismissHint() error {
	if c.destroyed {
		return ErrDestroyed
	}
	c.hintVisible = false
	return nil
}

// Hover returns the hover state, or nil when the chart has no tooltips.
func (c *Chart) Hover() (*Hover, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	return c.hover, nil
}

// HoverPoint hovers the scatter point with index i.
func (c *Chart) HoverPoint(i int) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.hover != nil {
		c.hover.Move(i)
	}
	return nil
}

// PointerLeave hides the tooltip and resets the highlighted group.
func (c *Chart) PointerLeave() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.hover != nil {
		c.hover.Leave()
	}
	return nil
}

// Tooltip returns the content for scatter point i.
func (c *Chart) Tooltip(i int) (Tooltip, error) {
	if c.destroyed {
		return Tooltip{}, ErrDestroyed
	}
	if i < 0 || i >= len(c.model.Scatter) {
		return Tooltip{}, fmt.Errorf("no point %d", i)
	}
	return TooltipFor(c.model.Scatter[i].PlotPoint, c.settings), nil
}
