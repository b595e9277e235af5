package notification

import (
	"context"
	"fmt"

	"github.com/klokku/timesheet/internal/config"
	"github.com/slack-go/slack"
)

// SlackClient is the part of *slack.Client SlackSender uses.
type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type SlackSender struct {
	client  SlackClient
	channel string
}

func NewSlackSender(cfg config.Slack) *SlackSender {
	return NewSlackSenderWithClient(slack.New(cfg.Token), cfg.Channel)
}

func NewSlackSenderWithClient(client SlackClient, channel string) *SlackSender {
	return &SlackSender{client: client, channel: channel}
}

func (s *SlackSender) Send(ctx context.Context, msg Message) error {
	text := fmt.Sprintf("*%s*\n%s", msg.Subject, msg.Body)
	if msg.RecipientName != "" {
		text = fmt.Sprintf("%s: %s", msg.RecipientName, text)
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}
