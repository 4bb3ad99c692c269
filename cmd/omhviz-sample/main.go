// Command omhviz-sample writes synthetic Open mHealth observations as
// newline-delimited JSON, for trying out omhviz.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/omhviz/backend"
	"git.sr.ht/~whereswaldon/omhviz/logging"
	"git.sr.ht/~whereswaldon/omhviz/omh"
)

type generator struct {
	rng      *rand.Rand
	start    time.Time
	days     int
	interval omh.DurationUnit
	out      *json.Encoder
	written  int
}

func (g *generator) emit(source string, body map[string]any) error {
	g.written++
	return g.out.Encode(map[string]any{
		"header": map[string]any{
			"id":                     uuid.NewString(),
			"creation_date_time":     time.Now().UTC().Format(time.RFC3339),
			"acquisition_provenance": map[string]any{"source_name": source},
		},
		"body": body,
	})
}

func at(t time.Time) map[string]any {
	return map[string]any{"date_time": t.Format(time.RFC3339)}
}

func (g *generator) over(start time.Time) map[string]any {
	value := 1.0
	if g.interval == omh.Hours {
		value = 8
	}
	return map[string]any{"time_interval": map[string]any{
		"start_date_time": start.Format(time.RFC3339),
		"duration":        map[string]any{"value": value, "unit": g.interval.String()},
	}}
}

func (g *generator) jitter(base time.Time, spread time.Duration) time.Time {
	return base.Add(time.Duration(g.rng.Int63n(int64(spread))))
}

func (g *generator) measure(name string, day time.Time) error {
	switch name {
	case "body_weight":
		return g.emit("Withings", map[string]any{
			"body_weight":          map[string]any{"value": 54 + g.rng.Float64()*8, "unit": "kg"},
			"effective_time_frame": at(g.jitter(day.Add(7*time.Hour), time.Hour)),
		})
	case "heart_rate":
		for i := 0; i < 3; i++ {
			err := g.emit("Polar", map[string]any{
				"heart_rate":           map[string]any{"value": float64(55 + g.rng.Intn(45)), "unit": "beats/min"},
				"effective_time_frame": at(g.jitter(day.Add(time.Duration(8+4*i)*time.Hour), time.Hour)),
			})
			if err != nil {
				return err
			}
		}
	case "systolic_blood_pressure", "diastolic_blood_pressure":
		// Both halves of a reading always travel together.
		if name == "diastolic_blood_pressure" {
			return nil
		}
		return g.emit("Omron", map[string]any{
			"systolic_blood_pressure":  map[string]any{"value": float64(105 + g.rng.Intn(30)), "unit": "mmHg"},
			"diastolic_blood_pressure": map[string]any{"value": float64(65 + g.rng.Intn(25)), "unit": "mmHg"},
			"effective_time_frame":     at(g.jitter(day.Add(9*time.Hour), 2*time.Hour)),
		})
	case "step_count":
		// Two trackers report the same interval, which omhviz sums.
		for _, source := range []string{"Fitbit", "Moves"} {
			err := g.emit(source, map[string]any{
				"step_count":           float64(200 + g.rng.Intn(800)),
				"effective_time_frame": g.over(day.Add(6 * time.Hour)),
			})
			if err != nil {
				return err
			}
		}
	case "minutes_moderate_activity":
		return g.emit("Moves", map[string]any{
			"minutes_moderate_activity": map[string]any{"value": float64(g.rng.Intn(120)), "unit": "min"},
			"effective_time_frame":      g.over(day.Add(6 * time.Hour)),
		})
	default:
		return fmt.Errorf("no generator for measure %q", name)
	}
	return nil
}

func (g *generator) run(measures []string) error {
	for d := 0; d < g.days; d++ {
		day := g.start.AddDate(0, 0, d)
		for _, m := range measures {
			if err := g.measure(m, day); err != nil {
				return err
			}
		}
	}
	return nil
}

func newCommand(stdout io.Writer) *cobra.Command {
	var (
		days     int
		seed     int64
		measures string
		interval string
		start    string
		level    string
	)
	cmd := &cobra.Command{
		Use:           "omhviz-sample",
		Short:         "Write synthetic Open mHealth observations as NDJSON.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			unit, err := omh.ParseDurationUnit(interval)
			if err != nil {
				return err
			}
			if unit != omh.Days && unit != omh.Hours {
				return fmt.Errorf("interval unit must be d or h, not %q", interval)
			}
			first, err := time.Parse(time.DateOnly, start)
			if err != nil {
				return fmt.Errorf("parsing start date: %w", err)
			}
			list := backend.ParseMeasureList(measures)
			g := &generator{
				rng:      rand.New(rand.NewSource(seed)),
				start:    first,
				days:     days,
				interval: unit,
				out:      json.NewEncoder(stdout),
			}
			if err := g.run(list); err != nil {
				return err
			}
			cfg := logging.DefaultConfig()
			cfg.Level = level
			cfg.Output = cmd.ErrOrStderr()
			log := logging.New(cfg)
			logging.With(log.Info(), logging.Count("observations", g.written)).Msg("wrote sample observations")
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&days, "days", 90, "number of days to generate")
	flags.Int64Var(&seed, "seed", 1, "random seed")
	flags.StringVar(&measures, "measures", "body_weight,heart_rate,systolic_blood_pressure,diastolic_blood_pressure,step_count,minutes_moderate_activity", "comma-separated measures to generate")
	flags.StringVar(&interval, "interval", "d", "duration unit of interval observations (d or h)")
	flags.StringVar(&start, "start", "2015-03-01", "first day to generate")
	flags.StringVar(&level, "log-level", "warn", "log level: trace, debug, info, warn or error")
	return cmd
}

func main() {
	if err := newCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
