package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/omhviz/backend"
	"git.sr.ht/~whereswaldon/omhviz/settings"
)

func generate(t *testing.T, args ...string) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return &out
}

func TestSampleCharts(t *testing.T) {
	out := generate(t, "--days", "5")
	obs, err := backend.ReadSnapshot(out, nil)
	require.NoError(t, err)
	// Per day: weight, three heart rates, one pressure pair, two step
	// counts and one activity.
	assert.Len(t, obs, 5*8)

	s, err := settings.Resolve(settings.Options{})
	require.NoError(t, err)
	d, err := backend.Build(obs, "body_weight,heart_rate,systolic_blood_pressure,diastolic_blood_pressure,step_count,minutes_moderate_activity", s)
	require.NoError(t, err)
	assert.Empty(t, d.Warnings)
	assert.Len(t, d.Points["body_weight"], 5)
	assert.Len(t, d.Points["heart_rate"], 15)
	assert.Len(t, d.Points["systolic_blood_pressure"], 5)
	assert.Len(t, d.Points["diastolic_blood_pressure"], 5)
	// Both step trackers report the same interval and are summed.
	assert.Len(t, d.Points["step_count"], 5)
	for _, p := range d.Points["step_count"] {
		assert.Len(t, p.AccumulatedBodies, 2)
	}
}

func TestSampleIsSeeded(t *testing.T) {
	a := generate(t, "--days", "3", "--measures", "body_weight", "--seed", "7")
	b := generate(t, "--days", "3", "--measures", "body_weight", "--seed", "7")
	obsA, err := backend.ReadSnapshot(a, nil)
	require.NoError(t, err)
	obsB, err := backend.ReadSnapshot(b, nil)
	require.NoError(t, err)
	require.Len(t, obsA, 3)
	for i := range obsA {
		va, err := obsA[i].Value("body.body_weight.value")
		require.NoError(t, err)
		vb, err := obsB[i].Value("body.body_weight.value")
		require.NoError(t, err)
		assert.Equal(t, va, vb)
	}
}

func TestSampleRejectsBadInput(t *testing.T) {
	for _, args := range [][]string{
		{"--measures", "blood_glucose"},
		{"--interval", "wk"},
		{"--start", "March"},
	} {
		cmd := newCommand(&bytes.Buffer{})
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), args)
	}
}
