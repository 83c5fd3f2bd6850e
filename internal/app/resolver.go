package app

import (
	"context"
	"strings"

	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

// Resolver drives the handler chain for one URL at a time
type Resolver struct {
	chain    []domain.Handler
	fallback domain.Handler
	direct   domain.DirectDownloader
	logger   *zap.Logger
}

// NewResolver creates a new resolution engine. chain is tried in order; fallback
// is the general-purpose extractor invoked once more when the chain is exhausted
// and may be nil when no extractor is available.
func NewResolver(chain []domain.Handler, fallback domain.Handler, direct domain.DirectDownloader, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	handlers := make([]domain.Handler, len(chain))
	copy(handlers, chain)
	return &Resolver{
		chain:    handlers,
		fallback: fallback,
		direct:   direct,
		logger:   logger,
	}
}

// Chain returns the handler kinds in the order they are tried
func (r *Resolver) Chain() []domain.HandlerKind {
	kinds := make([]domain.HandlerKind, 0, len(r.chain))
	for _, h := range r.chain {
		kinds = append(kinds, h.Kind())
	}
	return kinds
}

// ResolveAndDownload resolves rawURL into a local file under folder
func (r *Resolver) ResolveAndDownload(ctx context.Context, rawURL, folder string) domain.Outcome {
	url, err := domain.ValidateURL(rawURL)
	if err != nil {
		return domain.Failed(domain.KindInvalidInput, "%s", err.Error())
	}
	if strings.TrimSpace(folder) == "" {
		return domain.Failed(domain.KindInvalidInput, "invalid input: destination folder is required")
	}

	r.logger.Info("Resolving", zap.String("url", url), zap.String("folder", folder))

	for _, handler := range r.chain {
		if !handler.CanHandle(url) {
			continue
		}

		log := r.logger.With(zap.String("handler", string(handler.Kind())))
		log.Debug("Trying handler", zap.String("url", url))

		record := handler.ExtractInfo(ctx, url)

		// First resolved-with-link handler wins, even if the transfer fails
		if record.Resolved && record.HasDirectLink() {
			log.Info("Direct link found, downloading",
				zap.String("source", record.SourceName),
				zap.String("link", record.DownloadURL))
			outcome := r.direct.Download(ctx, record, folder)
			r.logOutcome(log, outcome)
			return outcome
		}

		if !record.Resolved {
			log.Debug("Extraction failed", zap.String("reason", record.FailureReason))
		}

		outcome := handler.PerformDownload(ctx, record, folder)
		if outcome.Success {
			r.logOutcome(log, outcome)
			return outcome
		}
		log.Warn("Handler download failed",
			zap.String("kind", string(outcome.Kind)),
			zap.String("reason", outcome.Reason))
	}

	if r.fallback == nil {
		r.logger.Error("No applicable method", zap.String("url", url))
		return domain.Failed(domain.KindNoApplicableMethod, domain.ReasonNoApplicableMethod)
	}

	log := r.logger.With(zap.String("handler", string(r.fallback.Kind())))
	log.Info("Specialized handlers exhausted, last resort", zap.String("url", url))
	outcome := r.fallback.PerformDownload(ctx, domain.NewVideoRecord(url), folder)
	r.logOutcome(log, outcome)
	return outcome
}

func (r *Resolver) logOutcome(log *zap.Logger, outcome domain.Outcome) {
	if outcome.Success {
		log.Info("Download completed", zap.String("path", outcome.Path))
		return
	}
	log.Error("Download failed",
		zap.String("kind", string(outcome.Kind)),
		zap.String("reason", outcome.Reason))
}
