package chart

import (
	"gioui.org/widget"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/omhviz/settings"
)

// ButtonKind identifies what a toolbar button does to the viewport.
type ButtonKind int

const (
	Timespan ButtonKind = iota
	Zoom
	Previous
	Next
)

// Button is one toolbar action.
type Button struct {
	Kind  ButtonKind
	Label string
	// Days is the width a Timespan button sets.
	Days float64
	// Step is the percentage a Zoom button applies.
	Step float64
	Icon *widget.Icon

	click widget.Clickable
}

type timespan struct {
	label string
	days  float64
}

var timespans = []timespan{
	{"1wk", 7},
	{"1m", 30},
	{"3m", 90},
	{"6m", 180},
}

func mustIcon(data []byte) *widget.Icon {
	icon, _ := widget.NewIcon(data)
	return icon
}

var (
	prevIcon    = mustIcon(icons.NavigationChevronLeft)
	nextIcon    = mustIcon(icons.NavigationChevronRight)
	zoomInIcon  = mustIcon(icons.ContentAdd)
	zoomOutIcon = mustIcon(icons.ContentRemove)
)

// Toolbar holds the buttons enabled by the user interface settings. The
// zero value has no buttons.
type Toolbar struct {
	Buttons []*Button
	// Active is the index of the last clicked timespan button, or -1.
	Active int
}

// NewToolbar builds the toolbar for the primary measure's visible day
// span. Timespan buttons outside the span are left out.
func NewToolbar(ui settings.UserInterface, span settings.DaySpan) *Toolbar {
	t := &Toolbar{Active: -1}
	if !ui.Toolbar.Enabled {
		return t
	}
	if ui.Navigation.Enabled {
		t.Buttons = append(t.Buttons, &Button{Kind: Previous, Label: "prev", Icon: prevIcon})
	}
	if ui.TimespanButtons.Enabled {
		for _, ts := range timespans {
			if ts.days < span.Min || ts.days > span.Max {
				continue
			}
			t.Buttons = append(t.Buttons, &Button{Kind: Timespan, Label: ts.label, Days: ts.days})
		}
	}
	if ui.ZoomButtons.Enabled {
		t.Buttons = append(t.Buttons,
			&Button{Kind: Zoom, Label: "−", Step: -20, Icon: zoomOutIcon},
			&Button{Kind: Zoom, Label: "+", Step: 20, Icon: zoomInIcon},
		)
	}
	if ui.Navigation.Enabled {
		t.Buttons = append(t.Buttons, &Button{Kind: Next, Label: "next", Icon: nextIcon})
	}
	return t
}

// Labels returns the button labels in display order.
func (t *Toolbar) Labels() []string {
	out := make([]string, len(t.Buttons))
	for i, b := range t.Buttons {
		out[i] = b.Label
	}
	return out
}

// Find returns the index of the button with label, or -1.
func (t *Toolbar) Find(label string) int {
	for i, b := range t.Buttons {
		if b.Label == label {
			return i
		}
	}
	return -1
}

// Apply performs button i on v and updates the active timespan button.
func (t *Toolbar) Apply(i int, v *Viewport) {
	b := t.Buttons[i]
	switch b.Kind {
	case Timespan:
		v.SetDays(b.Days)
		t.Active = i
	case Zoom:
		v.ZoomPercent(b.Step)
		t.Active = -1
	case Previous:
		v.Shift(-100)
	case Next:
		v.Shift(100)
	}
}

// ClearActive forgets the active timespan button. Gestures call it.
func (t *Toolbar) ClearActive() {
	t.Active = -1
}
