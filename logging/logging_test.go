package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})
	With(log.Warn(), Measure("heart_rate"), Observation(3), Error(errors.New("boom"))).Msg("skipped")
	out := buf.String()
	assert.Contains(t, out, `"measure":"heart_rate"`)
	assert.Contains(t, out, `"observation":3`)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "skipped")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})
	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, parseLevel("INFO"), parseLevel("nonsense"))
}
