package logx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := Default()
	SetDefaultLogger(FromZap(zap.New(core)))
	t.Cleanup(func() { SetDefaultLogger(prev) })
	return logs
}

func TestWithFields_AttachesFieldsAndError(t *testing.T) {
	logs := observed(t)

	WithFields(Fields{"user_id": "u-1"}).WithError(errors.New("boom")).Warn("login failed")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "login failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "boom", fields["error"])
}

func TestEntry_WithFieldsDoesNotMutateParent(t *testing.T) {
	logs := observed(t)

	base := WithField("component", "session")
	base.WithField("extra", 1).Info("child")
	base.Info("parent")

	require.Equal(t, 2, logs.Len())
	_, leaked := logs.All()[1].ContextMap()["extra"]
	assert.False(t, leaked)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestSetLevel(t *testing.T) {
	l := NewLogger(DefaultConfig())
	l.SetLevel(LevelError)
	assert.Equal(t, LevelError, l.Level())
}
