package domain

import (
	"context"

	"github.com/samber/mo"
)

// ProbeResult is the metadata returned by the general-purpose extractor
type ProbeResult struct {
	Title     string
	Uploader  string
	Duration  mo.Option[float64]
	Thumbnail string
	Extractor string
}

// FetchOptions configures a full download through the general-purpose extractor
type FetchOptions struct {
	OutputPath      string
	Format          string
	Continue        bool
	Retries         int
	FragmentRetries int
	NoPlaylist      bool
}

// ExtractorService is the general-purpose extraction/download engine
type ExtractorService interface {
	// Probe returns metadata without downloading
	Probe(ctx context.Context, rawURL string) (*ProbeResult, error)

	// Fetch downloads the media to opts.OutputPath
	Fetch(ctx context.Context, rawURL string, opts FetchOptions) error
}
