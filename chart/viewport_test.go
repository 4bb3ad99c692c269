package chart

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/omhviz/settings"
)

var origin = time.Date(2015, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewViewportShrinksToMax(t *testing.T) {
	v, err := NewViewport(origin, origin.AddDate(0, 0, 200), settings.DaySpan{Min: 7, Max: 90})
	require.NoError(t, err)
	assert.Equal(t, origin, v.Start)
	assert.Equal(t, origin.AddDate(0, 0, 90), v.End)

	v, err = NewViewport(origin, origin, settings.DaySpan{Min: 7, Max: 90})
	require.NoError(t, err)
	assert.InDelta(t, 7, v.Days(), 1e-9)

	v, err = NewViewport(origin, origin.AddDate(0, 0, 30), settings.DaySpan{Min: 7, Max: 90})
	require.NoError(t, err)
	assert.Equal(t, origin.AddDate(0, 0, 30), v.End)
}

func TestNewViewportRejectsInvertedSpan(t *testing.T) {
	_, err := NewViewport(origin, origin, settings.DaySpan{Min: 30, Max: 7})
	var cfg *settings.ConfigurationError
	assert.True(t, errors.As(err, &cfg))
}

func TestSetDaysKeepsStart(t *testing.T) {
	v, err := NewViewport(origin, origin.AddDate(0, 0, 30), settings.DaySpan{Min: 7, Max: 90})
	require.NoError(t, err)
	v.SetDays(180)
	assert.Equal(t, origin, v.Start)
	assert.InDelta(t, 90, v.Days(), 1e-9)
	v.SetDays(1)
	assert.InDelta(t, 7, v.Days(), 1e-9)
	v.SetDays(30)
	assert.InDelta(t, 30, v.Days(), 1e-9)
}

func TestZoomPercent(t *testing.T) {
	v, err := NewViewport(origin, origin.AddDate(0, 0, 50), settings.DaySpan{Min: 1, Max: 1000})
	require.NoError(t, err)
	v.ZoomPercent(20)
	assert.InDelta(t, 40, v.Days(), 1e-9)
	v.ZoomPercent(-20)
	assert.InDelta(t, 48, v.Days(), 1e-9)
	assert.Equal(t, origin, v.Start)
}

func TestPrevNextRoundTrip(t *testing.T) {
	v, err := NewViewport(origin, origin.AddDate(0, 0, 30), settings.DaySpan{Min: 7, Max: 90})
	require.NoError(t, err)
	want := v
	v.Shift(-100)
	assert.Equal(t, origin.AddDate(0, 0, -30), v.Start)
	assert.Equal(t, origin, v.End)
	v.Shift(100)
	assert.Equal(t, want, v)
}

func TestClampProperty(t *testing.T) {
	span := settings.DaySpan{Min: 7, Max: 90}
	v, err := NewViewport(origin, origin.AddDate(0, 0, 400), span)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			v.SetDays(rng.Float64() * 400)
		case 1:
			v.ZoomPercent(float64(rng.Intn(200) - 100))
		case 2:
			anchor := v.Start.Add(time.Duration(rng.Int63n(int64(v.End.Sub(v.Start)) + 1)))
			v.ZoomAround(anchor, rng.Float64()*4)
		case 3:
			v.Shift(float64(rng.Intn(3)-1) * 100)
		}
		d := v.Days()
		require.GreaterOrEqual(t, d, span.Min-1e-6)
		require.LessOrEqual(t, d, span.Max+1e-6)
	}
}

func TestZoomAroundKeepsAnchor(t *testing.T) {
	v, err := NewViewport(origin, origin.AddDate(0, 0, 40), settings.DaySpan{Min: 1, Max: 1000})
	require.NoError(t, err)
	anchor := origin.AddDate(0, 0, 10)
	before := v.Scale().X(anchor, 1000)
	v.ZoomAround(anchor, 0.5)
	assert.InDelta(t, 20, v.Days(), 1e-6)
	assert.InDelta(t, before, v.Scale().X(anchor, 1000), 0.01)
}

func TestTimeTicksRespectGranularity(t *testing.T) {
	s := TimeScale{Start: origin, End: origin.Add(36 * time.Hour)}
	ticks := s.Ticks(20, AllGranularities, time.UTC)
	require.NotEmpty(t, ticks)
	assert.NotEqual(t, 0, ticks[0].At.Hour()+ticks[1].At.Hour())

	ticks = s.Ticks(20, []Granularity{Day, Month, Year}, time.UTC)
	require.NotEmpty(t, ticks)
	for _, tick := range ticks {
		assert.Equal(t, 0, tick.At.Hour())
		assert.Equal(t, 0, tick.At.Minute())
	}
}

func TestLinearScale(t *testing.T) {
	s := LinearScale{Min: 30, Max: 150}
	assert.InDelta(t, 100, s.Y(30, 100), 1e-6)
	assert.InDelta(t, 0, s.Y(150, 100), 1e-6)
	assert.Equal(t, []float64{40, 60, 80, 100, 120, 140}, s.Ticks(6))
}
