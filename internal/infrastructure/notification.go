package infrastructure

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService shows a desktop notification when a resolution finishes
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(cmd *exec.Cmd) error
}

// NewNotificationService creates a notifier for the configured method
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run:    (*exec.Cmd).Run,
	}
}

// NotifyOutcome reports a finished resolution. Failures to notify are only logged.
func (n *NotificationService) NotifyOutcome(rawURL string, outcome domain.Outcome) {
	if !n.config.Enabled {
		return
	}
	title, body := outcomeMessage(rawURL, outcome)
	if err := n.Send(title, body); err != nil {
		n.logger.Warn("Notification not shown",
			zap.String("method", n.config.Method),
			zap.String("url", rawURL),
			zap.Error(err))
	}
}

// Send shows title and body with the configured method
func (n *NotificationService) Send(title, body string) error {
	if !n.config.Enabled {
		return nil
	}
	cmd, err := notificationCommand(n.config.Method, title, body)
	if err != nil {
		return err
	}
	if err := n.run(cmd); err != nil {
		return fmt.Errorf("failed to run %s: %w", n.config.Method, err)
	}
	n.logger.Debug("Notification shown", zap.String("title", title))
	return nil
}

func notificationCommand(method, title, body string) (*exec.Cmd, error) {
	switch method {
	case "osascript":
		script := fmt.Sprintf("display notification %s with title %s", appleScriptQuote(body), appleScriptQuote(title))
		return exec.Command("osascript", "-e", script), nil
	case "notify-send":
		return exec.Command("notify-send", "--app-name=dwhelper", title, body), nil
	}
	return nil, fmt.Errorf("unknown notification method: %s", method)
}

// outcomeMessage names the saved file on success, the failure kind otherwise
func outcomeMessage(rawURL string, outcome domain.Outcome) (string, string) {
	source := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		source = strings.TrimPrefix(u.Host, "www.")
	}
	if outcome.Success {
		return "Video saved", fmt.Sprintf("%s from %s", shorten(filepath.Base(outcome.Path), 48), source)
	}
	return "Video not saved", fmt.Sprintf("%s: %s (%s)", source, shorten(outcome.Reason, 60), outcome.Kind)
}

// shorten cuts s to maxRunes characters, marking the cut with an ellipsis
func shorten(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
