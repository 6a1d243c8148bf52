package log

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	l, err := New("debug")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New("warn")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zap.InfoLevel))
	require.True(t, l.Core().Enabled(zap.WarnLevel))

	l, err = New("nonsense")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.InfoLevel))
}

func TestEmail_DoesNotLeakAddress(t *testing.T) {
	f := Email("Alice@Example.com")
	require.Equal(t, "user", f.Key)
	require.NotContains(t, f.String, "alice")
	require.Equal(t, f.String, Email(" alice@example.com ").String)
}
