package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

// HTTPDirectDownloader streams a record's direct link to disk
type HTTPDirectDownloader struct {
	client *http.Client
	config *domain.DownloadConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewHTTPDirectDownloader creates a new direct downloader on the shared client
func NewHTTPDirectDownloader(client *http.Client, config *domain.DownloadConfig, logger *zap.Logger) *HTTPDirectDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDirectDownloader{
		client: client,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Download streams record.DownloadURL into folder and validates the result.
// It does not retry; retries belong to the transport.
func (d *HTTPDirectDownloader) Download(ctx context.Context, record *domain.VideoRecord, folder string) domain.Outcome {
	if record == nil || record.DownloadURL == "" {
		return domain.Failed(domain.KindInvalidInput, "no direct link")
	}

	if err := ensureDir(folder); err != nil {
		return domain.Failed(domain.KindFilesystem, "direct download failed: %v", err)
	}
	target := uniquePath(folder, record.SuggestedFilename(d.now()))

	d.logger.Info("Direct download",
		zap.String("url", record.DownloadURL),
		zap.String("path", target))

	written, err := d.stream(ctx, record.DownloadURL, target)
	if err != nil {
		kind := domain.KindNetwork
		if errors.Is(err, errCreateFile) {
			kind = domain.KindFilesystem
		}
		return domain.Failed(kind, "direct download failed: %v", err)
	}

	if written < d.config.DirectMinBytes {
		os.Remove(target)
		return domain.Failed(domain.KindSizeValidation, "file too small (%.2f MB)", megabytes(written))
	}

	return domain.Succeeded(target)
}

var (
	errIdleTimeout = errors.New("no data received")
	errCreateFile  = errors.New("failed to create file")
)

// stream copies link into target. The timeout bounds the wait for response
// headers and every gap between body reads, not the whole transfer.
func (d *HTTPDirectDownloader) stream(ctx context.Context, link, target string) (int64, error) {
	timeout := boundedTimeout(d.config.DirectTimeout, 90*time.Second)
	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	idle := time.AfterFunc(timeout, func() { cancel(fmt.Errorf("%w for %s", errIdleTimeout, timeout)) })
	defer idle.Stop()

	written, err := d.fetch(reqCtx, link, target, &idleReader{timer: idle, timeout: timeout})
	if err != nil && errors.Is(context.Cause(reqCtx), errIdleTimeout) {
		return written, context.Cause(reqCtx)
	}
	return written, err
}

func (d *HTTPDirectDownloader) fetch(ctx context.Context, link, target string, body *idleReader) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errCreateFile, err)
	}

	chunk := d.config.ChunkSize
	if chunk <= 0 {
		chunk = 512 * 1024
	}
	body.timer.Reset(body.timeout)
	body.r = resp.Body
	written, copyErr := io.CopyBuffer(file, body, make([]byte, chunk))
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(target)
		return written, copyErr
	}
	return written, nil
}

// idleReader pushes the idle deadline back whenever data arrives
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (i *idleReader) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	if n > 0 {
		i.timer.Reset(i.timeout)
	}
	return n, err
}
