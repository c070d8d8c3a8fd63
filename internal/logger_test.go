package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ForwardsToSugar(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core).Sugar())

	l.Infof("saved %d entries", 3)
	l.Warn("skipping entry")
	l.Errorf("write failed: %v", "disk full")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "saved 3 entries", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "write failed: disk full", entries[2].Message)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("production", "warn")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("development", "loud")
	assert.Error(t, err)
}
