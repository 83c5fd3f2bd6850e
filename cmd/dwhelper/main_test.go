package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/dwhelper-go/internal/app"
	"github.com/yourusername/dwhelper-go/internal/domain"
)

type echoEngine struct {
	calls []string
}

func (e *echoEngine) ResolveAndDownload(ctx context.Context, rawURL, folder string) domain.Outcome {
	e.calls = append(e.calls, rawURL)
	if strings.Contains(rawURL, "bad") {
		return domain.Failed(domain.KindNoApplicableMethod, domain.ReasonNoApplicableMethod)
	}
	return domain.Succeeded(filepath.Join(folder, "video.mp4"))
}

func TestPrintOutcome(t *testing.T) {
	var out bytes.Buffer

	ok := domain.NewResolution("https://example.com/ok", "/tmp")
	ok.Finish(domain.Succeeded("/tmp/ok.mp4"))
	assert.True(t, printOutcome(&out, ok))
	assert.Contains(t, out.String(), "Result: SUCCESS")
	assert.Contains(t, out.String(), "Saved:  /tmp/ok.mp4")

	out.Reset()
	bad := domain.NewResolution("https://example.com/bad", "/tmp")
	bad.Finish(domain.Failed(domain.KindNetwork, "connection refused"))
	assert.False(t, printOutcome(&out, bad))
	assert.Contains(t, out.String(), "Result: FAILED (network)")
	assert.Contains(t, out.String(), "Reason: connection refused")
}

func TestPromptLoop(t *testing.T) {
	engine := &echoEngine{}
	session := app.NewSession(engine, nil, nil, nil, nil)

	in := strings.NewReader("https://example.com/a\n\n  https://example.com/bad  \nq\nhttps://example.com/never\n")
	var out bytes.Buffer

	failed := promptLoop(context.Background(), session, in, &out, t.TempDir())

	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"https://example.com/a"}, engine.calls, "blank line ends the loop")

	engine.calls = nil
	in = strings.NewReader("https://example.com/a\nhttps://example.com/bad\nexit\n")
	failed = promptLoop(context.Background(), session, in, &out, t.TempDir())
	assert.Equal(t, 1, failed)
	assert.Len(t, engine.calls, 2)
}

func TestPromptLoop_StopsWhenCancelled(t *testing.T) {
	engine := &echoEngine{}
	session := app.NewSession(engine, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	failed := promptLoop(ctx, session, strings.NewReader("https://example.com/a\n"), &out, t.TempDir())

	assert.Equal(t, 0, failed)
	assert.Empty(t, engine.calls)
	assert.Contains(t, out.String(), "Interrupted.")
}

func TestPromptLoop_InterruptWhileWaitingForInput(t *testing.T) {
	engine := &echoEngine{}
	session := app.NewSession(engine, nil, nil, nil, nil)

	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	result := make(chan int, 1)
	go func() {
		result <- promptLoop(ctx, session, in, &out, t.TempDir())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case failed := <-result:
		assert.Equal(t, 0, failed)
		assert.Contains(t, out.String(), "Interrupted.")
	case <-time.After(2 * time.Second):
		t.Fatal("prompt loop did not return after interrupt")
	}
	assert.Empty(t, engine.calls)
}

func TestCreateDirectories(t *testing.T) {
	root := t.TempDir()
	config := domain.DefaultConfig()
	config.Download.DestinationDir = filepath.Join(root, "videos")
	config.Download.LogsDir = filepath.Join(root, "logs")
	config.History.DatabasePath = filepath.Join(root, "db", "history.db")

	require.NoError(t, createDirectories(config))
	assert.DirExists(t, config.Download.DestinationDir)
	assert.DirExists(t, config.Download.LogsDir)
	assert.DirExists(t, filepath.Join(root, "db"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "https:/...", truncate("https://example.com/long", 10))
}
