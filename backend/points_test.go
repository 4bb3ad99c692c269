package backend

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/omhviz/omh"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

func defaults(t *testing.T) settings.Settings {
	t.Helper()
	s, err := settings.Resolve(settings.Options{})
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, docs ...string) []omh.Observation {
	t.Helper()
	obs, err := omh.Decode(strings.NewReader("[" + strings.Join(docs, ",") + "]"))
	require.NoError(t, err)
	return obs
}

func bp(sys, dia float64, at string, systolicFirst bool) string {
	s := fmt.Sprintf(`"systolic_blood_pressure": {"value": %g, "unit": "mmHg"}`, sys)
	d := fmt.Sprintf(`"diastolic_blood_pressure": {"value": %g, "unit": "mmHg"}`, dia)
	first, second := s, d
	if !systolicFirst {
		first, second = d, s
	}
	return fmt.Sprintf(`{"header": {"acquisition_provenance": {"source_name": "Omron"}},
		"body": {%s, %s, "effective_time_frame": {"date_time": %q}}}`, first, second, at)
}

func steps(n float64, start string) string {
	return fmt.Sprintf(`{"header": {"acquisition_provenance": {"source_name": "Fitbit"}},
		"body": {"step_count": %g, "effective_time_frame": {"time_interval": {
			"start_date_time": %q, "duration": {"value": 1, "unit": "d"}}}}}`, n, start)
}

func TestParseMeasureList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseMeasureList(" a , b,,c , a"))
	assert.Empty(t, ParseMeasureList(" , "))
}

func TestGroupNameFollowsMeasureList(t *testing.T) {
	s := defaults(t)
	measures := ParseMeasureList("systolic_blood_pressure, diastolic_blood_pressure")
	obs := decode(t,
		bp(120, 80, "2015-03-02T08:00:00Z", true),
		bp(130, 85, "2015-03-03T08:00:00Z", false),
	)
	d := Normalize(obs, measures, s)
	require.Empty(t, d.Warnings)
	for _, m := range measures {
		require.Len(t, d.Points[m], 2)
		for _, p := range d.Points[m] {
			assert.Equal(t, "_systolic_blood_pressure_diastolic_blood_pressure", p.GroupName)
		}
	}
	// The first measure processed for an observation anchors the tooltip.
	assert.True(t, d.Points["systolic_blood_pressure"][0].HasTooltip)
	assert.False(t, d.Points["diastolic_blood_pressure"][0].HasTooltip)
	assert.Equal(t, 85.0, d.Points["diastolic_blood_pressure"][1].Y)
	assert.Equal(t, "Omron", d.Points["diastolic_blood_pressure"][1].Provider)
}

func TestGroupNameIncludesUnchartedListedMeasures(t *testing.T) {
	s := defaults(t)
	obs := decode(t, bp(120, 80, "2015-03-02T08:00:00Z", true))
	d := Normalize(obs, ParseMeasureList("diastolic_blood_pressure,heart_rate,systolic_blood_pressure"), s)
	require.Len(t, d.Points["diastolic_blood_pressure"], 1)
	assert.Equal(t, "_diastolic_blood_pressure_systolic_blood_pressure", d.Points["diastolic_blood_pressure"][0].GroupName)
	assert.Empty(t, d.Points["heart_rate"])
}

func TestGroupNamesIgnoreInputOrder(t *testing.T) {
	s := defaults(t)
	measures := ParseMeasureList("diastolic_blood_pressure,systolic_blood_pressure,step_count")
	var docs []string
	for i := 0; i < 20; i++ {
		day := fmt.Sprintf("2015-03-%02dT08:00:00Z", i+1)
		docs = append(docs, bp(float64(110+i), float64(70+i), day, i%2 == 0), steps(float64(i*100), day))
	}
	names := func(docs []string) map[string]string {
		out := map[string]string{}
		d := Normalize(decode(t, docs...), measures, s)
		for m, points := range d.Points {
			for _, p := range points {
				out[fmt.Sprintf("%s@%d", m, p.X.Unix())] = p.GroupName
			}
		}
		return out
	}
	want := names(docs)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		rng.Shuffle(len(docs), func(a, b int) { docs[a], docs[b] = docs[b], docs[a] })
		assert.Equal(t, want, names(docs))
	}
}

func TestIntervalPlotsAtMiddayOfStart(t *testing.T) {
	s := defaults(t)
	obs := decode(t, steps(100, "2015-03-02T21:15:00Z"))
	d := Normalize(obs, []string{"step_count"}, s)
	require.Len(t, d.Points["step_count"], 1)
	assert.Equal(t, time.Date(2015, 3, 2, 12, 0, 0, 0, time.UTC), d.Points["step_count"][0].X)

	tf, err := obs[0].TimeFrame()
	require.NoError(t, err)
	_, end, err := tf.Bounds(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 3, 3, 21, 15, 0, 0, time.UTC), end)
}

func TestSevenDayInterval(t *testing.T) {
	s := defaults(t)
	obs := decode(t, `{"body": {"step_count": 5, "effective_time_frame": {"time_interval": {
		"start_date_time": "2015-03-02T06:00:00Z", "duration": {"value": 7, "unit": "d"}}}}}`)
	tf, err := obs[0].TimeFrame()
	require.NoError(t, err)
	start, end, err := tf.Bounds(s.Location())
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 7), end)
	d := Normalize(obs, []string{"step_count"}, s)
	assert.Equal(t, time.Date(2015, 3, 2, 12, 0, 0, 0, time.UTC), d.Points["step_count"][0].X)
}

func TestInstantIsNotQuantized(t *testing.T) {
	s := defaults(t)
	d := Normalize(decode(t, bp(120, 80, "2015-03-02T08:31:00Z", true)), []string{"systolic_blood_pressure"}, s)
	assert.Equal(t, time.Date(2015, 3, 2, 8, 31, 0, 0, time.UTC), d.Points["systolic_blood_pressure"][0].X.UTC())
}

func TestWarnings(t *testing.T) {
	s := defaults(t)
	obs := decode(t,
		`{"body": {"heart_rate": {"value": 60}}}`,
		`{"body": {"heart_rate": {"unit": "bpm"}, "effective_time_frame": {"date_time": "2015-03-02T08:00:00Z"}}}`,
		`{"body": {"heart_rate": {"value": 61}, "effective_time_frame": {"time_interval": {"start_date_time": "2015-03-02T08:00:00Z"}}}}`,
		`{"body": {"heart_rate": {"value": 62}, "effective_time_frame": {"date_time": "2015-03-02T09:00:00Z"}}}`,
	)
	d := Normalize(obs, []string{"heart_rate"}, s)
	require.Len(t, d.Points["heart_rate"], 1)
	assert.Equal(t, 62.0, d.Points["heart_rate"][0].Y)
	assert.True(t, d.Points["heart_rate"][0].HasTooltip)
	require.Len(t, d.Warnings, 3)

	var shape *DataShapeError
	require.True(t, errors.As(d.Warnings[0], &shape))
	assert.Equal(t, 0, shape.Observation)
	assert.ErrorIs(t, d.Warnings[0], omh.ErrNoTimeFrame)

	var path *UnresolvedPathError
	require.True(t, errors.As(d.Warnings[1], &path))
	assert.Equal(t, "heart_rate", path.Measure)
	assert.ErrorIs(t, d.Warnings[1], omh.ErrNotFound)

	assert.ErrorIs(t, d.Warnings[2], omh.ErrIncompleteInterval)
}

func TestConsolidateSumsSameTimestamp(t *testing.T) {
	s := defaults(t)
	obs := decode(t,
		steps(300, "2015-03-02T08:00:00Z"),
		steps(450, "2015-03-02T08:00:00Z"),
	)
	d, err := Build(obs, "step_count", s)
	require.NoError(t, err)
	points := d.Points["step_count"]
	require.Len(t, points, 1)
	assert.Equal(t, 750.0, points[0].Y)
	assert.Len(t, points[0].AccumulatedBodies, 2)
	assert.Equal(t, 0, points[0].Observation)
}

func TestConsolidateProperties(t *testing.T) {
	base := time.Date(2015, 3, 1, 12, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(7))
	var points []PlotPoint
	sums := map[int64]float64{}
	for i := 0; i < 200; i++ {
		x := base.AddDate(0, 0, rng.Intn(15))
		y := float64(rng.Intn(1000))
		points = append(points, PlotPoint{X: x, Y: y, Observation: i, Body: map[string]any{"i": i}})
		sums[x.UnixNano()] += y
	}
	once := Consolidate(points)
	assert.Len(t, once, len(sums))
	for i, p := range once {
		assert.Equal(t, sums[p.X.UnixNano()], p.Y)
		if i > 0 {
			assert.True(t, once[i-1].X.Before(p.X))
		}
	}
	twice := Consolidate(once)
	assert.Equal(t, once, twice)

	// The input is untouched.
	assert.Len(t, points, 200)
}

func TestConsolidateKeepsEarliestInserted(t *testing.T) {
	x := time.Date(2015, 3, 1, 12, 0, 0, 0, time.UTC)
	out := Consolidate([]PlotPoint{
		{X: x.AddDate(0, 0, 1), Y: 1, Provider: "late"},
		{X: x, Y: 2, Provider: "first"},
		{X: x, Y: 3, Provider: "second"},
		{X: x, Y: 4, Provider: "third"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Provider)
	assert.Equal(t, 9.0, out[0].Y)
	assert.Len(t, out[0].AccumulatedBodies, 3)
}

func TestBuildRejectsUnknownMeasure(t *testing.T) {
	_, err := Build(nil, "heart_rate,blood_glucose", defaults(t))
	var cfg *settings.ConfigurationError
	assert.True(t, errors.As(err, &cfg))

	_, err = Build(nil, " ", defaults(t))
	assert.Error(t, err)
}

func TestExtent(t *testing.T) {
	s := defaults(t)
	d, err := Build(decode(t,
		steps(1, "2015-03-05T08:00:00Z"),
		bp(120, 80, "2015-03-01T08:00:00Z", true),
	), "step_count,systolic_blood_pressure", s)
	require.NoError(t, err)
	first, last, ok := d.Extent()
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, 3, 1, 8, 0, 0, 0, time.UTC), first.UTC())
	assert.Equal(t, time.Date(2015, 3, 5, 12, 0, 0, 0, time.UTC), last)

	_, _, ok = (&MeasureData{}).Extent()
	assert.False(t, ok)
}
