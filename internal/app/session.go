package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/dwhelper-go/internal/domain"
	"github.com/yourusername/dwhelper-go/internal/infrastructure"
	"github.com/yourusername/dwhelper-go/pkg/logger"
	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned by history queries when no repository is configured
var ErrHistoryDisabled = errors.New("history is disabled")

// Engine resolves one URL into a local file
type Engine interface {
	ResolveAndDownload(ctx context.Context, rawURL, folder string) domain.Outcome
}

// Session processes URLs one at a time, recording each in the history
type Session struct {
	engine   Engine
	repo     domain.ResolutionRepository
	notifier *infrastructure.NotificationService
	events   *logger.EventLog
	logger   *zap.Logger
	sem      chan struct{} // limit=1, one URL to completion before the next
}

// NewSession creates a new session. repo, notifier and events are optional.
func NewSession(
	engine Engine,
	repo domain.ResolutionRepository,
	notifier *infrastructure.NotificationService,
	events *logger.EventLog,
	log *zap.Logger,
) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		engine:   engine,
		repo:     repo,
		notifier: notifier,
		events:   events,
		logger:   log,
		sem:      make(chan struct{}, 1),
	}
}

// Process resolves a single URL. Cancelling ctx only prevents a resolution that
// has not started yet; once started it runs to completion, bounded by the
// transport and handler timeouts.
func (s *Session) Process(ctx context.Context, rawURL, folder string) *domain.Resolution {
	resolution := domain.NewResolution(rawURL, folder)
	if ctx.Err() != nil {
		resolution.Finish(domain.Failed(domain.KindCancelled, "interrupted before start"))
		return resolution
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		resolution.Finish(domain.Failed(domain.KindCancelled, "interrupted before start"))
		return resolution
	}

	if err := s.save(resolution, true); err != nil {
		s.logger.Error("Failed to record resolution", zap.String("id", resolution.ID), zap.Error(err))
	}

	resolution.MarkProcessing()
	s.saveQuietly(resolution)
	s.logEvent("Resolution started", resolution)

	outcome := s.engine.ResolveAndDownload(context.WithoutCancel(ctx), rawURL, folder)

	resolution.Finish(outcome)
	s.saveQuietly(resolution)

	if outcome.Success {
		s.logEvent("Resolution completed", resolution)
	} else {
		s.logEvent("Resolution failed", resolution)
		if s.events != nil {
			s.events.LogAppError("Resolution failed",
				zap.String("id", resolution.ID),
				zap.String("url", rawURL),
				zap.String("kind", string(outcome.Kind)),
				zap.String("reason", outcome.Reason))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyOutcome(rawURL, outcome)
	}

	return resolution
}

// ProcessAll resolves urls strictly in order. An interrupt is honored between
// URLs: the current one finishes, the remaining ones are reported as cancelled.
func (s *Session) ProcessAll(ctx context.Context, urls []string, folder string) []*domain.Resolution {
	results := make([]*domain.Resolution, 0, len(urls))
	for i, rawURL := range urls {
		if ctx.Err() != nil {
			s.logger.Info("Interrupted, skipping remaining URLs", zap.Int("remaining", len(urls)-i))
			for _, skipped := range urls[i:] {
				r := domain.NewResolution(skipped, folder)
				r.Finish(domain.Failed(domain.KindCancelled, "interrupted before start"))
				results = append(results, r)
			}
			break
		}
		results = append(results, s.Process(ctx, rawURL, folder))
	}
	return results
}

// History returns recorded resolutions, newest first
func (s *Session) History(status domain.ResolutionStatus) ([]*domain.Resolution, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	filters := map[string]interface{}{}
	if status != "" {
		if !domain.ValidateStatus(status) {
			return nil, fmt.Errorf("invalid status: %s", status)
		}
		filters["status"] = status
	}
	return s.repo.FindAll(filters)
}

// HistoryEnabled reports whether resolutions are recorded
func (s *Session) HistoryEnabled() bool {
	return s.repo != nil
}

// Get returns one recorded resolution
func (s *Session) Get(id string) (*domain.Resolution, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.FindByID(id)
}

// Stats returns history statistics
func (s *Session) Stats() (*domain.ResolutionStats, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.GetStats()
}

func (s *Session) save(resolution *domain.Resolution, create bool) error {
	if s.repo == nil {
		return nil
	}
	if create {
		return s.repo.Create(resolution)
	}
	return s.repo.Update(resolution)
}

func (s *Session) saveQuietly(resolution *domain.Resolution) {
	if err := s.save(resolution, false); err != nil {
		s.logger.Error("Failed to update resolution", zap.String("id", resolution.ID), zap.Error(err))
	}
}

func (s *Session) logEvent(event string, resolution *domain.Resolution) {
	if s.events == nil {
		return
	}
	fields := []zap.Field{
		zap.String("id", resolution.ID),
		zap.String("url", resolution.URL),
		zap.String("status", string(resolution.Status)),
	}
	if resolution.FilePath != "" {
		fields = append(fields, zap.String("path", resolution.FilePath))
	}
	if resolution.FailureKind != domain.KindNone {
		fields = append(fields,
			zap.String("kind", string(resolution.FailureKind)),
			zap.String("reason", resolution.ErrorMessage))
	}
	if d := resolution.Duration(); d > 0 {
		fields = append(fields, zap.Duration("duration", d))
	}
	s.events.LogResolveEvent(event, fields...)
}
