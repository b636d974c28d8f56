package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/domain"
)

// NotificationService pushes desktop notifications for queue events. It
// implements domain.QueueObserver so it can be subscribed directly to
// the queue manager.
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// OnQueueUpdate is a no-op; queue mutations alone are not worth a
// desktop popup
func (n *NotificationService) OnQueueUpdate(jobs []*domain.Job) {}

// OnProgress notifies on extraction start, completion and failure
func (n *NotificationService) OnProgress(event domain.ProgressEvent) {
	subject := event.Title
	if subject == "" {
		subject = event.JobID
	}
	subject = truncateString(subject, 40)

	switch event.Phase {
	case domain.PhaseStart:
		if event.Platform != "" {
			subject = fmt.Sprintf("%s (%s)", subject, event.Platform)
		}
		n.Send("Download Started", subject)
	case domain.PhaseCompleted:
		n.Send("Download Completed", subject)
	case domain.PhaseFailed:
		n.Send("Download Failed", subject)
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NotificationService) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeOSAScript(message), escapeOSAScript(title))
	cmd := exec.Command("osascript", "-e", script)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NotificationService) sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// escapeOSAScript escapes double quotes and backslashes for the
// AppleScript string literal
func escapeOSAScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// truncateString shortens a string to at most maxLen runes. Counting
// runes keeps multi-byte titles from being cut mid-character.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
