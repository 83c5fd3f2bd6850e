package domain

import (
	"fmt"

	"github.com/samber/mo"
)

const (
	// DefaultTitle is the placeholder title before a handler fills it in
	DefaultTitle = "video"
	// DefaultUsername is the placeholder username before a handler fills it in
	DefaultUsername = "unknown"
	// DefaultSourceName tags a record no handler has claimed yet
	DefaultSourceName = "unknown"
)

// VideoRecord is the result of one extraction attempt for a URL.
//
// A record is created by a handler at the start of ExtractInfo and mutated only
// by that handler during that call. Downstream stages read it and never build
// a new record from it.
type VideoRecord struct {
	OriginalURL     string             `json:"original_url"`
	Title           string             `json:"title"`
	Username        string             `json:"username"`
	DurationSeconds mo.Option[float64] `json:"duration_seconds"`
	PreviewURL      string             `json:"preview_url,omitempty"`
	DownloadURL     string             `json:"download_url,omitempty"`
	SourceName      string             `json:"source_name"`
	Resolved        bool               `json:"resolved"`
	FailureReason   string             `json:"failure_reason,omitempty"`
}

// NewVideoRecord creates an unresolved record with placeholder fields
func NewVideoRecord(originalURL string) *VideoRecord {
	return &VideoRecord{
		OriginalURL:     originalURL,
		Title:           DefaultTitle,
		Username:        DefaultUsername,
		DurationSeconds: mo.None[float64](),
		SourceName:      DefaultSourceName,
	}
}

// MarkResolved marks extraction as successful without a direct link
func (v *VideoRecord) MarkResolved(sourceName string) {
	v.Resolved = true
	v.FailureReason = ""
	v.DownloadURL = ""
	v.SourceName = sourceName
}

// MarkResolvedWithLink marks extraction as successful with a direct media link
func (v *VideoRecord) MarkResolvedWithLink(sourceName, downloadURL string) {
	v.MarkResolved(sourceName)
	v.DownloadURL = downloadURL
}

// MarkFailed marks extraction as failed. Any direct link is dropped.
func (v *VideoRecord) MarkFailed(reason string) {
	if reason == "" {
		reason = "extraction failed"
	}
	v.Resolved = false
	v.DownloadURL = ""
	v.FailureReason = reason
}

// HasDirectLink reports whether the record can go straight to the direct downloader
func (v *VideoRecord) HasDirectLink() bool {
	return v.Resolved && v.DownloadURL != ""
}

// Validate checks the record invariants after extraction has completed
func (v *VideoRecord) Validate() error {
	if v.Resolved && v.FailureReason != "" {
		return fmt.Errorf("record is resolved but carries failure reason %q", v.FailureReason)
	}
	if !v.Resolved && v.FailureReason == "" {
		return fmt.Errorf("record is neither resolved nor failed")
	}
	if v.DownloadURL != "" && !v.Resolved {
		return fmt.Errorf("record carries a download url without being resolved")
	}
	return nil
}
