package backend

import (
	"context"

	"gioui.org/app"
	"git.sr.ht/~gioverse/skel/stream"
)

// WindowState bundles the per-window handles the UI needs to subscribe to
// datasource output.
type WindowState struct {
	Bundle
	Controller *stream.Controller
}

func NewWindowState(ctx context.Context, bundle Bundle, win *app.Window) WindowState {
	return WindowState{
		Bundle:     bundle,
		Controller: stream.NewController(ctx, win.Invalidate),
	}
}

// Bundle holds the application-wide backend values.
type Bundle struct {
	Datasource *Datasource
	// Measures is the comma-separated measure list charted for every
	// session.
	Measures string
}

func NewBundle(ds *Datasource, measures string) Bundle {
	return Bundle{
		Datasource: ds,
		Measures:   measures,
	}
}
