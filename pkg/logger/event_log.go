package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryResolve LogCategory = "resolve" // Resolution lifecycle events (JSON)
	CategoryError   LogCategory = "error"   // Terminal failures and application errors (JSON)
	CategoryYTDLP   LogCategory = "ytdlp"   // Raw extractor output (plain text, written by the extractor)
)

// Categories lists every category that can be read back
var Categories = []LogCategory{CategoryResolve, CategoryError, CategoryYTDLP}

// ParseCategory validates a category name
func ParseCategory(name string) (LogCategory, error) {
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown log category: %s", name)
}

// EventLog writes categorized JSON event lines into one file per category per day.
// Raw extractor output is not written here; the extractor redirects it itself.
type EventLog struct {
	loggers map[LogCategory]*zap.Logger
	writers []*dailyFile
	logsDir string
}

// NewEventLog creates a new event log under logsDir
func NewEventLog(logsDir, level string) (*EventLog, error) {
	if logsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	el := &EventLog{
		loggers: make(map[LogCategory]*zap.Logger),
		logsDir: logsDir,
	}
	el.loggers[CategoryResolve] = el.newCategoryLogger(CategoryResolve, lvl)
	el.loggers[CategoryError] = el.newCategoryLogger(CategoryError, zapcore.ErrorLevel)
	return el, nil
}

// newCategoryLogger creates a JSON logger whose keys match LogEntry
func (el *EventLog) newCategoryLogger(category LogCategory, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	writer := &dailyFile{dir: el.logsDir, category: category, now: time.Now}
	el.writers = append(el.writers, writer)

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level)
	return zap.New(core)
}

// LogsDir returns the logs directory path
func (el *EventLog) LogsDir() string {
	return el.logsDir
}

// Resolve returns the resolution event logger
func (el *EventLog) Resolve() *zap.Logger {
	return el.loggers[CategoryResolve]
}

// Error returns the error logger
func (el *EventLog) Error() *zap.Logger {
	return el.loggers[CategoryError]
}

// LogResolveEvent logs a resolution lifecycle event
func (el *EventLog) LogResolveEvent(event string, fields ...zap.Field) {
	el.Resolve().Info(event, fields...)
}

// LogAppError logs a terminal failure
func (el *EventLog) LogAppError(msg string, fields ...zap.Field) {
	el.Error().Error(msg, fields...)
}

// Sync flushes all category loggers
func (el *EventLog) Sync() error {
	var lastErr error
	for _, l := range el.loggers {
		if err := l.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes all category files
func (el *EventLog) Close() error {
	lastErr := el.Sync()
	for _, w := range el.writers {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// logFileName is the per-day file name shared by the writer and the reader
func logFileName(category LogCategory, date time.Time) string {
	return fmt.Sprintf("%s-%s.log", category, date.Format("20060102"))
}

// dailyFile is a WriteSyncer that switches to a new file when the date changes
type dailyFile struct {
	dir      string
	category LogCategory
	now      func() time.Time

	mu   sync.Mutex
	date string
	file *os.File
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if date := now.Format("20060102"); date != d.date || d.file == nil {
		if d.file != nil {
			d.file.Close()
		}
		file, err := os.OpenFile(filepath.Join(d.dir, logFileName(d.category, now)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			d.file = nil
			return 0, err
		}
		d.file = file
		d.date = date
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
