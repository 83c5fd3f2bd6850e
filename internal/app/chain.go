package app

import (
	"net/http"

	"github.com/yourusername/dwhelper-go/internal/domain"
	"github.com/yourusername/dwhelper-go/internal/infrastructure"
	"go.uber.org/zap"
)

// Extractor is the general-purpose extractor as the chain builder sees it
type Extractor interface {
	domain.ExtractorService
	Available() bool
}

// BuildHandlers assembles the fixed handler chain: platform handlers first, the
// generic extractor last. The generic handler is also returned as the fallback;
// both are left out when the extractor is disabled or not installed.
func BuildHandlers(config *domain.Config, client *http.Client, extractor Extractor, logger *zap.Logger) ([]domain.Handler, domain.Handler) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var generic *infrastructure.GenericHandler
	if config.YTDLP.Enabled && extractor != nil && extractor.Available() {
		generic = infrastructure.NewGenericHandler(extractor, &config.YTDLP, logger)
	} else {
		logger.Warn("General-purpose extractor unavailable, platform handlers only",
			zap.Bool("enabled", config.YTDLP.Enabled),
			zap.String("binary", config.YTDLP.Binary))
	}

	chain := []domain.Handler{
		infrastructure.NewTikTokHandler(client, &config.TikTok, generic, logger),
		infrastructure.NewInstagramHandler(client, &config.Instagram, generic, logger),
	}
	if generic == nil {
		return chain, nil
	}
	return append(chain, generic), generic
}

// NewResolverFromConfig wires the shared transport, the handler chain and the
// direct downloader
func NewResolverFromConfig(config *domain.Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := infrastructure.NewHTTPClient(&config.Transport, logger)
	extractor := infrastructure.NewYTDLPCLI(&config.YTDLP, config.Download.LogsDir, logger)
	chain, fallback := BuildHandlers(config, client, extractor, logger)
	direct := infrastructure.NewHTTPDirectDownloader(client, &config.Download, logger)
	return NewResolver(chain, fallback, direct, logger)
}
