// Package alert delivers one-way free-text failure notifications.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/config"
)

// Notifier is a fire-and-forget sink for alert messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// SlackNotifier posts messages to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	channel    string
	username   string
	timeout    time.Duration
}

func NewSlackNotifier(webhookURL, channel, username string, timeout time.Duration) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, channel: channel, username: username, timeout: timeout}
}

func (s *SlackNotifier) Notify(ctx context.Context, message string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	msg := &slack.WebhookMessage{
		Text:     message,
		Channel:  s.channel,
		Username: s.username,
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

// LogNotifier writes alerts to the log. Used when no webhook is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, message string) error {
	l.log.Warn("alert", zap.String("message", message))
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig picks the notifier for the alert section: Slack plus log when a
// webhook is set, log only otherwise.
func FromConfig(cfg config.AlertConfig, log *zap.Logger) Notifier {
	logNotifier := NewLogNotifier(log)
	if cfg.SlackWebhookURL == "" {
		return logNotifier
	}
	return Multi{logNotifier, NewSlackNotifier(cfg.SlackWebhookURL, cfg.Channel, cfg.Username, cfg.Timeout)}
}
