package infrastructure

import (
	"errors"
	"fmt"

	"github.com/yourusername/dwhelper-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// filterColumns are the columns FindAll accepts as filters
var filterColumns = map[string]bool{
	"status":       true,
	"url":          true,
	"failure_kind": true,
}

// SQLiteResolutionRepository implements ResolutionRepository using SQLite
type SQLiteResolutionRepository struct {
	db *gorm.DB
}

// NewSQLiteResolutionRepository creates a new SQLite repository
func NewSQLiteResolutionRepository(dbPath string) (*SQLiteResolutionRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Resolution{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteResolutionRepository{db: db}, nil
}

// Create creates a new resolution
func (r *SQLiteResolutionRepository) Create(resolution *domain.Resolution) error {
	return r.db.Create(resolution).Error
}

// Update updates an existing resolution
func (r *SQLiteResolutionRepository) Update(resolution *domain.Resolution) error {
	return r.db.Save(resolution).Error
}

// FindByID finds a resolution by ID
func (r *SQLiteResolutionRepository) FindByID(id string) (*domain.Resolution, error) {
	var resolution domain.Resolution
	if err := r.db.First(&resolution, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &resolution, nil
}

// FindAll finds resolutions with optional filters, newest first
func (r *SQLiteResolutionRepository) FindAll(filters map[string]interface{}) ([]*domain.Resolution, error) {
	var resolutions []*domain.Resolution
	query := r.db

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&resolutions).Error
	return resolutions, err
}

// FindLatestByURL returns the newest resolution for a URL, nil if none exists
func (r *SQLiteResolutionRepository) FindLatestByURL(url string) (*domain.Resolution, error) {
	var resolution domain.Resolution
	err := r.db.Where("url = ?", url).Order("created_at DESC").First(&resolution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resolution, nil
}

// GetStats returns resolution statistics
func (r *SQLiteResolutionRepository) GetStats() (*domain.ResolutionStats, error) {
	stats := &domain.ResolutionStats{ByKind: map[domain.FailureKind]int64{}}

	if err := r.db.Model(&domain.Resolution{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.ResolutionStatus
		Count  int64
	}{}
	if err := r.db.Model(&domain.Resolution{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusQueued:
			stats.Queued = sc.Count
		case domain.StatusProcessing:
			stats.Processing = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		}
	}

	kindCounts := []struct {
		FailureKind domain.FailureKind
		Count       int64
	}{}
	if err := r.db.Model(&domain.Resolution{}).
		Select("failure_kind, count(*) as count").
		Where("status = ?", domain.StatusFailed).
		Group("failure_kind").
		Scan(&kindCounts).Error; err != nil {
		return nil, err
	}
	for _, kc := range kindCounts {
		stats.ByKind[kc.FailureKind] = kc.Count
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteResolutionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
