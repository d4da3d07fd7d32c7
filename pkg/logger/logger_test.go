package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithConfigLevels(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewWithConfig("debug", false, false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewWithConfig("info", false, false).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, NewWithConfig("warn", false, false).GetLevel())
	assert.Equal(t, zerolog.ErrorLevel, NewWithConfig("error", false, false).GetLevel())

	// неизвестный уровень откатывается на info
	assert.Equal(t, zerolog.InfoLevel, NewWithConfig("verbose", false, false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewWithConfig("", true, true).GetLevel())
}

func TestNewDefaultsToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, New().GetLevel())
}
