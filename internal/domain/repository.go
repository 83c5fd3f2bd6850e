package domain

// ResolutionRepository defines the interface for resolution history persistence
type ResolutionRepository interface {
	// Create creates a new resolution
	Create(resolution *Resolution) error

	// Update updates an existing resolution
	Update(resolution *Resolution) error

	// FindByID finds a resolution by ID
	FindByID(id string) (*Resolution, error)

	// FindAll finds resolutions with optional column filters, newest first
	FindAll(filters map[string]interface{}) ([]*Resolution, error)

	// FindLatestByURL returns the newest resolution for a URL, nil if none
	FindLatestByURL(url string) (*Resolution, error)

	// GetStats returns resolution statistics
	GetStats() (*ResolutionStats, error)
}

// ResolutionStats represents resolution statistics
type ResolutionStats struct {
	Total      int64                 `json:"total"`
	Queued     int64                 `json:"queued"`
	Processing int64                 `json:"processing"`
	Completed  int64                 `json:"completed"`
	Failed     int64                 `json:"failed"`
	ByKind     map[FailureKind]int64 `json:"by_kind,omitempty"`
}
