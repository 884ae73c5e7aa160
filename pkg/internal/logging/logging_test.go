package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{7, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, levelFor(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestGetLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(1, &buf)
	defer zerolog.SetGlobalLevel(zerolog.WarnLevel)

	logger := GetLogger("apply")
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "apply")
}

func TestSetupLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(0, &buf)

	logger := GetLogger("x")
	logger.Info().Msg("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}
