package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/dwhelper-go/internal/app"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"github.com/yourusername/dwhelper-go/internal/infrastructure"
	"github.com/yourusername/dwhelper-go/pkg/logger"
)

// runtime holds everything a command needs to resolve URLs
type runtime struct {
	config   *domain.Config
	log      *zap.Logger
	events   *logger.EventLog
	repo     *infrastructure.SQLiteResolutionRepository
	resolver *app.Resolver
	session  *app.Session
}

func newRuntime(path string) (*runtime, error) {
	config, err := app.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := createDirectories(config); err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &runtime{config: config, log: log}

	events, err := logger.NewEventLog(config.Download.LogsDir, config.Logging.Level)
	if err != nil {
		log.Warn("Event log disabled", zap.Error(err))
	} else {
		rt.events = events
	}

	var repo domain.ResolutionRepository
	if config.History.Enabled {
		rt.repo, err = infrastructure.NewSQLiteResolutionRepository(config.History.DatabasePath)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
		repo = rt.repo
	}

	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	rt.resolver = app.NewResolverFromConfig(config, log)
	rt.session = app.NewSession(rt.resolver, repo, notifier, rt.events, log)

	log.Debug("Runtime ready",
		zap.Any("chain", rt.resolver.Chain()),
		zap.Bool("history", config.History.Enabled),
		zap.String("logs_dir", config.Download.LogsDir))

	return rt, nil
}

// destination picks the folder flag over the configured default
func (rt *runtime) destination(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return rt.config.Download.DestinationDir
}

func (rt *runtime) Close() {
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil {
			rt.log.Warn("Failed to close history", zap.Error(err))
		}
	}
	if rt.events != nil {
		rt.events.Close()
	}
	_ = rt.log.Sync()
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.DestinationDir,
		config.Download.LogsDir,
	}
	if config.History.Enabled {
		dirs = append(dirs, filepath.Dir(config.History.DatabasePath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
