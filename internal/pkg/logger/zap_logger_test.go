package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_GetLogsNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "socket.log")
	l := NewIsolatedLogger(path)

	l.Info("WS", "client registered", map[string]interface{}{"n": 1})
	l.Error("WS", "write failed", nil)
	l.Info("WS", "client removed", nil)
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "client removed", all[0].Message)
	assert.Equal(t, "WS", all[0].Module)

	errs, err := l.GetLogs("ERROR", 10, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)

	got, err := l.GetLogById(errs[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "write failed", got.Message)

	page, err := l.GetLogs("", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("X", "ignored", nil)
	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
