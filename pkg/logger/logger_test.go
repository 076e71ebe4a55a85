package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitialize_WritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	l := Initialize("chat_test", dir)

	l.With(zap.String("context", "c1")).Info("hello file", zap.Int("n", 1))
	l.Debug("hidden debug")
	l.Sync()

	name := filepath.Join(dir, "chat_test_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.Contains(t, string(data), `"context":"c1"`)
	assert.Contains(t, string(data), `"service":"chat_test"`)
	assert.NotContains(t, string(data), "hidden debug")
}

func TestSetNewNop(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	SetNewNop()
	assert.NotPanics(t, func() {
		Log.Info("dropped")
		Log.With(zap.String("k", "v")).Warn("dropped")
		Log.Sync()
	})
}
