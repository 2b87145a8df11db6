package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFiltersByLevel(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l, err := New("info", &buf)
	require.NoError(err)

	l.Debug("hidden")
	l.Info("shown")
	require.NoError(l.Sync())

	require.NotContains(buf.String(), "hidden")
	require.Contains(buf.String(), "shown")
	require.Contains(buf.String(), "INFO")
}

func TestNewDefaultLevel(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l, err := New("", &buf)
	require.NoError(err)

	l.Info("quiet")
	l.Warn("loud")

	require.NotContains(buf.String(), "quiet")
	require.Contains(buf.String(), "loud")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", &bytes.Buffer{})
	require.Error(t, err)
}
