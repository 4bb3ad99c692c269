package omh

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bloodPressure = `{
  "header": {"id": "a", "acquisition_provenance": {"source_name": "Omron"}},
  "body": {
    "diastolic_blood_pressure": {"value": 80, "unit": "mmHg"},
    "systolic_blood_pressure": {"value": 121, "unit": "mmHg"},
    "effective_time_frame": {"date_time": "2015-03-02T08:30:00Z"}
  }
}`

func decodeOne(t *testing.T, doc string) Observation {
	t.Helper()
	obs, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	return obs[0]
}

func TestDecodeArrayAndStream(t *testing.T) {
	arr, err := Decode(strings.NewReader("[" + bloodPressure + "," + bloodPressure + "]"))
	require.NoError(t, err)
	assert.Len(t, arr, 2)

	stream, err := Decode(strings.NewReader(bloodPressure + "\n" + bloodPressure + "\n"))
	require.NoError(t, err)
	assert.Len(t, stream, 2)
	assert.Equal(t, "Omron", stream[1].Header.SourceName)

	empty, err := Decode(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestResolve(t *testing.T) {
	o := decodeOne(t, bloodPressure)
	v, err := o.Value("body.systolic_blood_pressure.value")
	require.NoError(t, err)
	assert.Equal(t, 121.0, v)

	_, err = o.Value("body.heart_rate.value")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = o.Value("body.systolic_blood_pressure.value.extra")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = o.Value("body.systolic_blood_pressure")
	assert.ErrorIs(t, err, ErrNotNumeric)

	src, err := o.Resolve("header.acquisition_provenance.source_name")
	require.NoError(t, err)
	assert.Equal(t, "Omron", src)

	_, err = o.Resolve("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimeFrameInstant(t *testing.T) {
	o := decodeOne(t, bloodPressure)
	tf, err := o.TimeFrame()
	require.NoError(t, err)
	start, end, err := tf.Bounds(time.UTC)
	require.NoError(t, err)
	want := time.Date(2015, 3, 2, 8, 30, 0, 0, time.UTC)
	assert.True(t, start.Equal(want))
	assert.True(t, end.Equal(want))
}

func TestTimeFrameInstantFormats(t *testing.T) {
	for _, tc := range []struct {
		dateTime string
		want     time.Time
	}{
		{"2015-10-21T16:29:00-07:00", time.Date(2015, 10, 21, 23, 29, 0, 0, time.UTC)},
		{"2015-10-21T16:29:00-0700", time.Date(2015, 10, 21, 23, 29, 0, 0, time.UTC)},
		{"2015-10-21T16:29:00.000", time.Date(2015, 10, 21, 16, 29, 0, 0, time.UTC)},
		{"2015-10-21T16:29:00.250Z", time.Date(2015, 10, 21, 16, 29, 0, 250_000_000, time.UTC)},
		{"2015-10-21T16:29", time.Date(2015, 10, 21, 16, 29, 0, 0, time.UTC)},
	} {
		t.Run(tc.dateTime, func(t *testing.T) {
			o := decodeOne(t, `{"body": {"body_weight": {"value": 60, "unit": "kg"}, "effective_time_frame": {"date_time": "`+tc.dateTime+`"}}}`)
			tf, err := o.TimeFrame()
			require.NoError(t, err)
			require.NotNil(t, tf.DateTime)
			assert.True(t, tc.want.Equal(*tf.DateTime), "got %v", *tf.DateTime)
		})
	}

	o := decodeOne(t, `{"body": {"effective_time_frame": {"date_time": "yesterday"}}}`)
	_, err := o.TimeFrame()
	assert.Error(t, err)
}

func TestTimeFrameInterval(t *testing.T) {
	for _, tc := range []struct {
		name       string
		interval   string
		start, end time.Time
		err        error
	}{
		{
			name:     "start plus days",
			interval: `{"start_date_time": "2015-03-02T00:00:00Z", "duration": {"value": 7, "unit": "d"}}`,
			start:    time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "end minus minutes",
			interval: `{"end_date_time": "2015-03-02T01:00:00Z", "duration": {"value": 90, "unit": "min"}}`,
			start:    time.Date(2015, 3, 1, 23, 30, 0, 0, time.UTC),
			end:      time.Date(2015, 3, 2, 1, 0, 0, 0, time.UTC),
		},
		{
			name:     "month is calendar length",
			interval: `{"start_date_time": "2016-02-01T00:00:00Z", "duration": {"value": 1, "unit": "Mo"}}`,
			start:    time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "both endpoints",
			interval: `{"start_date_time": "2015-03-02T00:00:00Z", "end_date_time": "2015-03-03T00:00:00Z"}`,
			start:    time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2015, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "basic offset and no seconds",
			interval: `{"start_date_time": "2015-03-02T02:00-0200", "end_date_time": "2015-03-03T00:00:00.000"}`,
			start:    time.Date(2015, 3, 2, 4, 0, 0, 0, time.UTC),
			end:      time.Date(2015, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "missing duration",
			interval: `{"start_date_time": "2015-03-02T00:00:00Z"}`,
			err:      ErrIncompleteInterval,
		},
		{
			name:     "unknown unit",
			interval: `{"start_date_time": "2015-03-02T00:00:00Z", "duration": {"value": 1, "unit": "fortnight"}}`,
			err:      ErrIncompleteInterval,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := decodeOne(t, `{"body": {"step_count": 10, "effective_time_frame": {"time_interval": `+tc.interval+`}}}`)
			tf, err := o.TimeFrame()
			require.NoError(t, err)
			start, end, err := tf.Bounds(time.UTC)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.start.Equal(start), "start %v", start)
			assert.True(t, tc.end.Equal(end), "end %v", end)
		})
	}
}

func TestMissingTimeFrame(t *testing.T) {
	o := decodeOne(t, `{"body": {"step_count": 10}}`)
	_, err := o.TimeFrame()
	assert.ErrorIs(t, err, ErrNoTimeFrame)
}

func TestDurationUnits(t *testing.T) {
	for _, code := range []string{"ps", "ns", "us", "ms", "sec", "min", "h", "d", "wk", "Mo", "yr"} {
		u, err := ParseDurationUnit(code)
		require.NoError(t, err, code)
		assert.Equal(t, code, u.String())
	}
	_, err := ParseDurationUnit("mo")
	assert.Error(t, err)
	assert.False(t, Hours.Calendar())
	assert.True(t, Days.Calendar())

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(1500*time.Microsecond), Duration{Value: 1.5, Unit: Milliseconds}.AddTo(base, 1, time.UTC))
	assert.Equal(t, base.AddDate(-1, 0, 0), Duration{Value: 1, Unit: Years}.AddTo(base, -1, time.UTC))
}

func TestMidday(t *testing.T) {
	late := time.Date(2015, 3, 2, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2015, 3, 2, 12, 0, 0, 0, time.UTC), Midday(late, time.UTC))

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 02:00 UTC is the previous evening in New York.
	early := time.Date(2015, 3, 2, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2015, 3, 1, 12, 0, 0, 0, ny), Midday(early, ny))
}
