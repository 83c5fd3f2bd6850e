package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResolutionStatus represents the current status of a resolution request
type ResolutionStatus string

const (
	StatusQueued     ResolutionStatus = "queued"
	StatusProcessing ResolutionStatus = "processing"
	StatusCompleted  ResolutionStatus = "completed"
	StatusFailed     ResolutionStatus = "failed"
)

// Resolution is the persisted history entry for one resolve-and-download request
type Resolution struct {
	ID           string           `json:"id" gorm:"primaryKey"`
	URL          string           `json:"url" gorm:"not null;index"`
	Folder       string           `json:"folder"`
	Status       ResolutionStatus `json:"status" gorm:"not null;index"`
	FilePath     string           `json:"file_path,omitempty"`
	FailureKind  FailureKind      `json:"failure_kind,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// NewResolution creates a queued resolution request
func NewResolution(rawURL, folder string) *Resolution {
	now := time.Now()
	return &Resolution{
		ID:        uuid.New().String(),
		URL:       rawURL,
		Folder:    folder,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkProcessing marks the resolution as processing
func (r *Resolution) MarkProcessing() {
	r.Status = StatusProcessing
	now := time.Now()
	r.StartedAt = &now
	r.UpdatedAt = now
}

// Finish records the engine outcome
func (r *Resolution) Finish(outcome Outcome) {
	now := time.Now()
	r.UpdatedAt = now
	r.CompletedAt = &now
	if outcome.Success {
		r.Status = StatusCompleted
		r.FilePath = outcome.Path
		r.FailureKind = KindNone
		r.ErrorMessage = ""
		return
	}
	r.Status = StatusFailed
	r.FailureKind = outcome.Kind
	r.ErrorMessage = outcome.Reason
}

// Outcome rebuilds the outcome of a finished resolution
func (r *Resolution) Outcome() Outcome {
	if r.Status == StatusCompleted {
		return Succeeded(r.FilePath)
	}
	return Outcome{Kind: r.FailureKind, Reason: r.ErrorMessage}
}

// IsTerminal checks if the resolution is finished
func (r *Resolution) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Duration returns how long processing took, zero if unfinished
func (r *Resolution) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}

// ValidateStatus checks if a status filter is valid
func ValidateStatus(status ResolutionStatus) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ValidateURL rejects input that cannot be resolved at all
func ValidateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", &InputError{Input: rawURL, Reason: "empty url"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &InputError{Input: rawURL, Reason: "malformed url: " + err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &InputError{Input: rawURL, Reason: "url must start with http:// or https://"}
	}
	if u.Host == "" {
		return "", &InputError{Input: rawURL, Reason: "url has no host"}
	}
	return trimmed, nil
}

// InputError reports a URL rejected before any handler was consulted
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}
