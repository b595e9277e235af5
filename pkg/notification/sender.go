// Package notification tells employees about decisions on their timesheet entries. Delivery is best effort:
// the decision is already committed when a Sender runs.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/klokku/timesheet/internal/config"
	log "github.com/sirupsen/logrus"
)

type Message struct {
	RecipientName  string
	RecipientEmail string
	Subject        string
	Body           string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender only writes the message to the log.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.Infof("notification for %s <%s>: %s", msg.RecipientName, msg.RecipientEmail, msg.Subject)
	log.Debugf("notification body: %s", msg.Body)
	return nil
}

// NewSender picks the sender configured in notification.sender.
func NewSender(ctx context.Context, cfg config.Notification) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sender)) {
	case "", "log":
		return LogSender{}, nil
	case "email":
		return NewEmailSender(ctx, cfg.Email)
	case "slack":
		if cfg.Slack.Token == "" {
			return nil, fmt.Errorf("slack notifications need notification.slack.token")
		}
		return NewSlackSender(cfg.Slack), nil
	default:
		return nil, fmt.Errorf("unknown notification sender %q", cfg.Sender)
	}
}
