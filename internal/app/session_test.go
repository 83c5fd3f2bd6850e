package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"github.com/yourusername/dwhelper-go/internal/infrastructure"
	"github.com/yourusername/dwhelper-go/pkg/logger"
)

// fakeEngine returns scripted outcomes per URL
type fakeEngine struct {
	outcomes map[string]domain.Outcome
	onCall   func(ctx context.Context, url string)
	calls    []string
}

func (f *fakeEngine) ResolveAndDownload(ctx context.Context, rawURL, folder string) domain.Outcome {
	f.calls = append(f.calls, rawURL)
	if f.onCall != nil {
		f.onCall(ctx, rawURL)
	}
	if outcome, ok := f.outcomes[rawURL]; ok {
		return outcome
	}
	return domain.Failed(domain.KindNoApplicableMethod, domain.ReasonNoApplicableMethod)
}

func newTestSession(t *testing.T, engine Engine) (*Session, *infrastructure.SQLiteResolutionRepository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := infrastructure.NewSQLiteResolutionRepository(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logsDir := filepath.Join(dir, "logs")
	events, err := logger.NewEventLog(logsDir, "info")
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })

	notifier := infrastructure.NewNotificationService(&domain.NotificationConfig{Enabled: false}, nil)
	return NewSession(engine, repo, notifier, events, nil), repo, logsDir
}

func TestSession_ProcessRecordsSuccess(t *testing.T) {
	engine := &fakeEngine{outcomes: map[string]domain.Outcome{
		"https://example.com/ok": domain.Succeeded("/downloads/ok.mp4"),
	}}
	session, repo, logsDir := newTestSession(t, engine)

	res := session.Process(context.Background(), "https://example.com/ok", "/downloads")

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, "/downloads/ok.mp4", res.FilePath)
	assert.True(t, res.Outcome().Success)

	stored, err := repo.FindByID(res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	entries, err := logger.NewLogReader(logsDir).ReadTodayLogs(logger.CategoryResolve, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Resolution started", entries[0].Message)
	assert.Equal(t, "Resolution completed", entries[1].Message)
}

func TestSession_ProcessRecordsFailure(t *testing.T) {
	session, repo, logsDir := newTestSession(t, &fakeEngine{})

	res := session.Process(context.Background(), "https://example.com/none", "/downloads")

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, domain.KindNoApplicableMethod, res.FailureKind)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.ByKind[domain.KindNoApplicableMethod])

	errs, err := logger.NewLogReader(logsDir).ReadTodayLogs(logger.CategoryError, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "no_applicable_method", errs[0].Fields["kind"])
}

func TestSession_ProcessAllStopsBetweenURLs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := &fakeEngine{outcomes: map[string]domain.Outcome{
		"https://example.com/1": domain.Succeeded("/d/1.mp4"),
		"https://example.com/2": domain.Succeeded("/d/2.mp4"),
	}}
	engine.onCall = func(callCtx context.Context, url string) {
		// Interrupt arrives while the first URL is in flight
		cancel()
		assert.NoError(t, callCtx.Err(), "in-flight work must not be cancelled")
	}
	session, _, _ := newTestSession(t, engine)

	results := session.ProcessAll(ctx, []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"}, "/d")

	require.Len(t, results, 3)
	assert.Equal(t, domain.StatusCompleted, results[0].Status)
	assert.Equal(t, domain.KindCancelled, results[1].FailureKind)
	assert.Equal(t, domain.KindCancelled, results[2].FailureKind)
	assert.Equal(t, []string{"https://example.com/1"}, engine.calls)
}

func TestSession_ProcessAllInOrder(t *testing.T) {
	engine := &fakeEngine{}
	session, _, _ := newTestSession(t, engine)

	urls := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	results := session.ProcessAll(context.Background(), urls, "/d")

	assert.Len(t, results, 3)
	assert.Equal(t, urls, engine.calls)
}

func TestSession_History(t *testing.T) {
	engine := &fakeEngine{outcomes: map[string]domain.Outcome{
		"https://example.com/ok": domain.Succeeded("/d/ok.mp4"),
	}}
	session, _, _ := newTestSession(t, engine)
	session.Process(context.Background(), "https://example.com/ok", "/d")
	failed := session.Process(context.Background(), "https://example.com/bad", "/d")

	all, err := session.History("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyFailed, err := session.History(domain.StatusFailed)
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, failed.ID, onlyFailed[0].ID)

	_, err = session.History("bogus")
	assert.Error(t, err)

	got, err := session.Get(failed.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/bad", got.URL)

	stats, err := session.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
}

func TestSession_WithoutHistory(t *testing.T) {
	engine := &fakeEngine{outcomes: map[string]domain.Outcome{
		"https://example.com/ok": domain.Succeeded("/d/ok.mp4"),
	}}
	session := NewSession(engine, nil, nil, nil, nil)

	res := session.Process(context.Background(), "https://example.com/ok", "/d")
	assert.Equal(t, domain.StatusCompleted, res.Status)

	assert.False(t, session.HistoryEnabled())
	_, err := session.History("")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = session.Stats()
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}
