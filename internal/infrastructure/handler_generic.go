package infrastructure

import (
	"context"
	"os"
	"time"

	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

// GenericHandler delegates everything to the general-purpose extractor. It
// accepts every URL and acts as the last resort of the chain.
type GenericHandler struct {
	extractor domain.ExtractorService
	config    *domain.YTDLPConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenericHandler creates a new generic-extractor handler
func NewGenericHandler(extractor domain.ExtractorService, config *domain.YTDLPConfig, logger *zap.Logger) *GenericHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenericHandler{
		extractor: extractor,
		config:    config,
		logger:    logger.With(zap.String("handler", string(domain.HandlerGeneric))),
		now:       time.Now,
	}
}

// Kind returns the handler variant
func (h *GenericHandler) Kind() domain.HandlerKind {
	return domain.HandlerGeneric
}

// CanHandle always returns true
func (h *GenericHandler) CanHandle(rawURL string) bool {
	return true
}

// ExtractInfo probes the URL in metadata-only mode
func (h *GenericHandler) ExtractInfo(ctx context.Context, rawURL string) *domain.VideoRecord {
	record := domain.NewVideoRecord(rawURL)

	info, err := h.extractor.Probe(ctx, rawURL)
	if err != nil {
		h.logger.Debug("Probe failed", zap.String("url", rawURL), zap.Error(err))
		record.MarkFailed("yt-dlp extract error: " + err.Error())
		return record
	}

	if info.Title != "" {
		record.Title = info.Title
	} else {
		record.Title = "no_title"
	}
	if info.Uploader != "" {
		record.Username = info.Uploader
	}
	record.DurationSeconds = info.Duration
	record.PreviewURL = info.Thumbnail
	record.MarkResolved(info.Extractor)
	return record
}

// PerformDownload runs a full download with the configured format preference
func (h *GenericHandler) PerformDownload(ctx context.Context, record *domain.VideoRecord, folder string) domain.Outcome {
	return h.download(ctx, record, folder, h.config.Format)
}

// download is shared with platform handlers that delegate with their own format
func (h *GenericHandler) download(ctx context.Context, record *domain.VideoRecord, folder, format string) domain.Outcome {
	if err := ensureDir(folder); err != nil {
		return domain.Failed(domain.KindFilesystem, "%s", err.Error())
	}
	outPath := uniquePath(folder, record.SuggestedFilename(h.now()))

	opts := domain.FetchOptions{
		OutputPath:      outPath,
		Format:          format,
		Continue:        true,
		Retries:         h.config.Retries,
		FragmentRetries: h.config.FragmentRetries,
		NoPlaylist:      true,
	}

	h.logger.Info("Downloading via extractor",
		zap.String("url", record.OriginalURL),
		zap.String("path", outPath),
		zap.String("format", format))

	if err := h.extractor.Fetch(ctx, record.OriginalURL, opts); err != nil {
		return domain.Failed(domain.KindExtractor, "%s", err.Error())
	}

	size := fileSize(outPath)
	if size < 0 {
		return domain.Failed(domain.KindSizeValidation, "file missing or too small")
	}
	if size <= h.config.MinBytes {
		os.Remove(outPath)
		return domain.Failed(domain.KindSizeValidation, "file missing or too small (%d bytes)", size)
	}
	return domain.Succeeded(outPath)
}
