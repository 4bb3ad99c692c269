package main

import (
	"image"
	"image/color"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/felixgeelhaar/bolt/v3"

	"git.sr.ht/~whereswaldon/omhviz/backend"
	"git.sr.ht/~whereswaldon/omhviz/chart"
	"git.sr.ht/~whereswaldon/omhviz/logging"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var errorColor = color.NRGBA{R: 150, A: 255}

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws   backend.WindowState
	expl *explorer.Explorer
	log  *bolt.Logger

	th             *material.Theme
	sessionStream  *stream.Stream[backend.Session]
	session        backend.Session
	chartSessionID string
	chart          *chart.Chart
	chartErr       string
	explorerBtn    widget.Clickable
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, log *bolt.Logger) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	return &UI{
		ws:            ws,
		th:            th,
		expl:          expl,
		log:           log,
		sessionStream: stream.New(ws.Controller, ws.Bundle.Datasource.Sessions),
	}
}

// Close destroys the current chart.
func (ui *UI) Close() {
	if ui.chart != nil {
		ui.chart.Destroy()
		ui.chart = nil
	}
}

// rebuild replaces the chart with one built from the current session.
func (ui *UI) rebuild() {
	ui.chartSessionID = ui.session.ID
	ui.Close()
	ui.chartErr = ""
	if ui.session.Err != nil {
		ui.chartErr = ui.session.Err.Error()
		return
	}
	s, err := settings.Resolve(ui.session.Options)
	if err != nil {
		ui.chartErr = err.Error()
		logging.With(ui.log.Error(), logging.Session(ui.session.ID), logging.Error(err)).Msg("invalid settings")
		return
	}
	c, err := chart.New(ui.session.Observations, ui.ws.Bundle.Measures, s, ui.log)
	if err != nil {
		ui.chartErr = err.Error()
		logging.With(ui.log.Error(), logging.Session(ui.session.ID), logging.Error(err)).Msg("could not build chart")
		return
	}
	ui.chart = c
}

// Update the state of the UI from new sessions and button clicks.
func (ui *UI) Update(gtx C) {
	ui.sessionStream.ReadInto(gtx, &ui.session, backend.Session{})
	if ui.session.ID != ui.chartSessionID {
		ui.rebuild()
	}
	if ui.explorerBtn.Clicked(gtx) {
		go func() {
			if err := ui.ws.Bundle.Datasource.LoadFromFile(ui.expl); err != nil {
				logging.With(ui.log.Warn(), logging.Error(err)).Msg("no file opened")
			}
		}()
	}
}

func (ui *UI) layoutHeader(gtx C) D {
	return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
			layout.Flexed(1, func(gtx C) D {
				if ui.chartErr != "" {
					l := material.Body1(ui.th, ui.chartErr)
					l.Color = errorColor
					return l.Layout(gtx)
				}
				return material.Body2(ui.th, ui.session.Source).Layout(gtx)
			}),
			layout.Rigid(material.Button(ui.th, &ui.explorerBtn, "Open Observations").Layout),
		)
	})
}

func (ui *UI) layoutMainArea(gtx C) D {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(ui.layoutHeader),
		layout.Flexed(1, func(gtx C) D {
			if ui.chart == nil {
				return D{Size: gtx.Constraints.Max}
			}
			return ui.chart.Layout(gtx, ui.th)
		}),
		layout.Rigid(func(gtx C) D {
			if ui.chart == nil {
				return D{}
			}
			return ui.chart.LayoutKey(gtx, ui.th)
		}),
	)
}

func (ui *UI) layoutStartScreen(gtx C) D {
	return layout.Flex{
		Axis:      layout.Vertical,
		Alignment: layout.Middle,
		Spacing:   layout.SpaceAround,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Body1(ui.th, "No observations yet.").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Button(ui.th, &ui.explorerBtn, "Open Observations").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			l := material.Body2(ui.th, ui.chartErr)
			l.Color = errorColor
			return l.Layout(gtx)
		}),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	if ui.session.ID != "" {
		return ui.layoutMainArea(gtx)
	}
	return ui.layoutStartScreen(gtx)
}
