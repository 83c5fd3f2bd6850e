package domain

import "context"

// HandlerKind is the closed set of handler variants. Chain order is decided
// when the chain is built, never through runtime registration.
type HandlerKind string

const (
	HandlerGeneric   HandlerKind = "generic"
	HandlerTikTok    HandlerKind = "tiktok"
	HandlerInstagram HandlerKind = "instagram"
)

// Handler is the capability every platform strategy exposes
type Handler interface {
	// Kind identifies the variant
	Kind() HandlerKind

	// CanHandle reports whether the URL matches the platform's URL shapes.
	// It must be pure and must not perform network I/O.
	CanHandle(rawURL string) bool

	// ExtractInfo attempts resolution. It never fails; errors end up in
	// the record's FailureReason.
	ExtractInfo(ctx context.Context, rawURL string) *VideoRecord

	// PerformDownload runs the handler's own download mechanism for a record
	// that has no usable direct link.
	PerformDownload(ctx context.Context, record *VideoRecord, folder string) Outcome
}

// DirectDownloader streams a resolved direct link to disk
type DirectDownloader interface {
	Download(ctx context.Context, record *VideoRecord, folder string) Outcome
}
