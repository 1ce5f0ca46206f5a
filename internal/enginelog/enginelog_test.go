package enginelog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hyperifyio/nnrt/internal/enginelog"
)

func TestNew_SetsRequestedMinimumLevel(t *testing.T) {
	tests := []struct {
		level enginelog.Level
		want  zapcore.Level
	}{
		{enginelog.Error, zapcore.ErrorLevel},
		{enginelog.Warn, zapcore.WarnLevel},
		{enginelog.Info, zapcore.InfoLevel},
		{enginelog.Debug, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		logger, err := enginelog.New(tt.level)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tt.want))
	}
}

func TestNew_UnknownLevel_DefaultsToInfo(t *testing.T) {
	logger, err := enginelog.New(enginelog.Level(99))
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNop_DiscardsEverything(t *testing.T) {
	logger := enginelog.Nop()
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
