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

func TestEventLog_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	el, err := NewEventLog(dir, "info")
	require.NoError(t, err)

	el.LogResolveEvent("Resolution completed", zap.String("url", "https://example.com/v"), zap.String("path", "/tmp/a.mp4"))
	el.LogAppError("Resolution failed", zap.String("kind", "network"))
	el.Resolve().Debug("below level")
	require.NoError(t, el.Close())

	reader := NewLogReader(dir)

	resolve, err := reader.ReadTodayLogs(CategoryResolve, 0)
	require.NoError(t, err)
	require.Len(t, resolve, 1)
	assert.Equal(t, "Resolution completed", resolve[0].Message)
	assert.Equal(t, "info", resolve[0].Level)
	assert.NotEmpty(t, resolve[0].Timestamp)
	assert.Equal(t, "https://example.com/v", resolve[0].Fields["url"])

	errs, err := reader.ReadTodayLogs(CategoryError, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "network", errs[0].Fields["kind"])
}

func TestEventLog_RequiresDir(t *testing.T) {
	_, err := NewEventLog("", "info")
	assert.Error(t, err)
}

func TestDailyFile_SwitchesFileOnDateChange(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2026, 1, 10, 23, 59, 0, 0, time.Local)
	w := &dailyFile{dir: dir, category: CategoryResolve, now: func() time.Time { return day }}

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	first, err := os.ReadFile(filepath.Join(dir, "resolve-20260110.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))
	second, err := os.ReadFile(filepath.Join(dir, "resolve-20260111.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("ytdlp")
	require.NoError(t, err)
	assert.Equal(t, CategoryYTDLP, c)

	_, err = ParseCategory("queue")
	assert.Error(t, err)
}
