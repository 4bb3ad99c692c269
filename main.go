package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"
	"github.com/felixgeelhaar/bolt/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"git.sr.ht/~whereswaldon/omhviz/backend"
	"git.sr.ht/~whereswaldon/omhviz/logging"
)

const defaultMeasures = "body_weight"

var rootCmd = &cobra.Command{
	Use:   "omhviz [file]",
	Short: "Chart Open mHealth observations.",
	Long: `omhviz draws an interactive chart of Open mHealth observations read from a
JSON array or newline-delimited JSON file. Use "-" or a pipe to read from
standard input. Without input, a file can be opened from the window.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	cobra.OnInitialize(initConfig)
	flags := rootCmd.Flags()
	flags.String("config", "", "config file (default is .omhviz.yaml in . or $HOME)")
	flags.StringP("measures", "m", defaultMeasures, "comma-separated measures to chart")
	flags.StringP("settings", "s", "", "chart settings file (YAML or JSON)")
	flags.String("log-level", "info", "log level: trace, debug, info, warn or error")
	flags.String("log-format", "console", "log format: console or json")
	flags.BoolP("watch", "w", false, "reload the chart when the input or settings file changes")
	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "binding flags: %v\n", err)
		os.Exit(1)
	}
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".omhviz")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}
	viper.SetEnvPrefix("OMHVIZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
	}
}

// inputPath picks the observation source: an explicit argument, standard
// input when it is piped, or nothing.
func inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		return "-"
	}
	return ""
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Config{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
		Output: os.Stderr,
	})
	input := inputPath(args)
	ds, err := backend.NewDatasource(log, input, viper.GetString("settings"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	if input != "" {
		go func() {
			if err := ds.Run(ctx, viper.GetBool("watch")); err != nil {
				logging.With(log.Error(), logging.Error(err)).Msg("datasource stopped")
			}
		}()
	}
	bundle := backend.NewBundle(ds, viper.GetString("measures"))
	go func() {
		w := app.NewWindow(app.Title("omhviz"), app.Size(unit.Dp(1000), unit.Dp(700)))
		err := loop(ctx, w, bundle, log)
		cancel()
		_ = ds.Close()
		if err != nil {
			logging.With(log.Error(), logging.Error(err)).Msg("window closed")
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func loop(ctx context.Context, w *app.Window, bundle backend.Bundle, log *bolt.Logger) error {
	expl := explorer.NewExplorer(w)
	ws := backend.NewWindowState(ctx, bundle, w)
	ui := NewUI(ws, expl, log)
	defer ui.Close()
	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
