package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"Warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestWithAndNamedCarryContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := wrap(zap.New(core)).Named("refresh").With(String("run_id", "r-1"))

	log.Info("refresh completed", Int("added", 3))
	log.Debugf("skipped %d", 2)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "refresh", entries[0].LoggerName)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "r-1", ctx["run_id"])
		assert.EqualValues(t, 3, ctx["added"])
		assert.Equal(t, "skipped 2", entries[1].Message)
	}
}

func TestNopDiscards(t *testing.T) {
	log := NewNop()
	log.Error("ignored", Error(assert.AnError))
	assert.NoError(t, log.Sync())
}
