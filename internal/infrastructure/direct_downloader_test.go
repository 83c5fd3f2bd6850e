package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/dwhelper-go/internal/domain"
)

func testDownloadConfig() *domain.DownloadConfig {
	return &domain.DownloadConfig{
		DirectTimeout:  5 * time.Second,
		DirectMinBytes: 314572,
		ChunkSize:      64 * 1024,
	}
}

func serveBytes(n int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(make([]byte, n))
	}))
}

func linkedRecord(link string) *domain.VideoRecord {
	record := domain.NewVideoRecord("https://www.tiktok.com/@a/video/1")
	record.Title = "tiktok_1"
	record.Username = "someone"
	record.MarkResolvedWithLink("tiktok_ssstik", link)
	return record
}

func TestHTTPDirectDownloader_Success(t *testing.T) {
	server := serveBytes(400 * 1024)
	defer server.Close()

	folder := t.TempDir()
	d := NewHTTPDirectDownloader(server.Client(), testDownloadConfig(), nil)

	outcome := d.Download(context.Background(), linkedRecord(server.URL+"/v.mp4"), folder)

	require.True(t, outcome.Success, outcome.Reason)
	assert.Equal(t, filepath.Join(folder, "someone_tiktok_1.mp4"), outcome.Path)
	assert.Equal(t, int64(400*1024), fileSize(outcome.Path))
}

func TestHTTPDirectDownloader_TooSmallIsRemoved(t *testing.T) {
	server := serveBytes(1024)
	defer server.Close()

	folder := t.TempDir()
	d := NewHTTPDirectDownloader(server.Client(), testDownloadConfig(), nil)

	outcome := d.Download(context.Background(), linkedRecord(server.URL+"/v.mp4"), folder)

	assert.False(t, outcome.Success)
	assert.Equal(t, domain.KindSizeValidation, outcome.Kind)
	assert.Contains(t, outcome.Reason, "file too small")
	entries, _ := os.ReadDir(folder)
	assert.Empty(t, entries)
}

func TestHTTPDirectDownloader_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	folder := t.TempDir()
	d := NewHTTPDirectDownloader(server.Client(), testDownloadConfig(), nil)

	outcome := d.Download(context.Background(), linkedRecord(server.URL+"/v.mp4"), folder)

	assert.False(t, outcome.Success)
	assert.Equal(t, domain.KindNetwork, outcome.Kind)
	assert.Contains(t, outcome.Reason, "direct download failed")
	entries, _ := os.ReadDir(folder)
	assert.Empty(t, entries)
}

func TestHTTPDirectDownloader_NoLink(t *testing.T) {
	d := NewHTTPDirectDownloader(http.DefaultClient, testDownloadConfig(), nil)

	outcome := d.Download(context.Background(), domain.NewVideoRecord("https://example.com"), t.TempDir())

	assert.Equal(t, domain.KindInvalidInput, outcome.Kind)
	assert.Equal(t, "no direct link", outcome.Reason)
}

func TestHTTPDirectDownloader_KeepsExistingFile(t *testing.T) {
	server := serveBytes(400 * 1024)
	defer server.Close()

	folder := t.TempDir()
	existing := filepath.Join(folder, "someone_tiktok_1.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	d := NewHTTPDirectDownloader(server.Client(), testDownloadConfig(), nil)
	outcome := d.Download(context.Background(), linkedRecord(server.URL+"/v.mp4"), folder)

	require.True(t, outcome.Success, outcome.Reason)
	assert.Equal(t, filepath.Join(folder, "someone_tiktok_1_1.mp4"), outcome.Path)
	content, _ := os.ReadFile(existing)
	assert.Equal(t, "old", string(content))
}

func TestHTTPDirectDownloader_SlowTransferOutlastsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		for i := 0; i < 8; i++ {
			w.Write(make([]byte, 64*1024))
			w.(http.Flusher).Flush()
			time.Sleep(50 * time.Millisecond)
		}
	}))
	defer server.Close()

	config := testDownloadConfig()
	config.DirectTimeout = 200 * time.Millisecond
	config.DirectMinBytes = 1
	d := NewHTTPDirectDownloader(server.Client(), config, nil)

	outcome := d.Download(context.Background(), linkedRecord(server.URL+"/v.mp4"), t.TempDir())

	require.True(t, outcome.Success, outcome.Reason)
	assert.Equal(t, int64(8*64*1024), fileSize(outcome.Path))
}

func TestHTTPDirectDownloader_StalledTransferTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(make([]byte, 1024))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	folder := t.TempDir()
	config := testDownloadConfig()
	config.DirectTimeout = 100 * time.Millisecond
	config.DirectMinBytes = 1
	d := NewHTTPDirectDownloader(server.Client(), config, nil)

	outcome := d.Download(context.Background(), linkedRecord(server.URL+"/v.mp4"), folder)

	assert.False(t, outcome.Success)
	assert.Equal(t, domain.KindNetwork, outcome.Kind)
	assert.Contains(t, outcome.Reason, "no data received")
	entries, _ := os.ReadDir(folder)
	assert.Empty(t, entries)
}

func TestHTTPDirectDownloader_FolderErrorIsFilesystem(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	d := NewHTTPDirectDownloader(http.DefaultClient, testDownloadConfig(), nil)
	outcome := d.Download(context.Background(), linkedRecord("https://example.com/v.mp4"), filepath.Join(blocker, "videos"))

	assert.False(t, outcome.Success)
	assert.Equal(t, domain.KindFilesystem, outcome.Kind)
}
