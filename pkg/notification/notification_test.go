package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/internal/config"
	"github.com/klokku/timesheet/internal/event_bus"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []Message
	err      error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.messages = append(s.messages, msg)
	return s.err
}

type sesStub struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (s *sesStub) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	s.inputs = append(s.inputs, params)
	return &ses.SendEmailOutput{}, s.err
}

type slackStub struct {
	channels []string
	options  int
}

func (s *slackStub) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	s.channels = append(s.channels, channelID)
	s.options += len(options)
	return channelID, "1700000000.000100", nil
}

var decided = event_bus.EntryDecided{
	EntryId:       77,
	EmployeeId:    3,
	EmployeeName:  "Jane Doe",
	EmployeeEmail: "jane@example.com",
	ApproverName:  "Mark Approver",
	ProjectName:   "Apollo",
	TaskName:      "Design",
	WeekStart:     time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	TotalHours:    40,
	Decision:      "rejected",
	Comment:       "missing detail",
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage(decided, "https://timesheet.example.com/")

	assert.Equal(t, "jane@example.com", msg.RecipientEmail)
	assert.Equal(t, "Timesheet rejected: Apollo / Design, week of 2024-01-08", msg.Subject)
	assert.Contains(t, msg.Body, "Comment: missing detail")
	assert.Contains(t, msg.Body, "submit the week again")
	assert.Contains(t, msg.Body, "https://timesheet.example.com/timesheet?date=2024-01-08")
}

func TestNotifier(t *testing.T) {
	t.Run("should send a message per decision", func(t *testing.T) {
		// given
		bus := event_bus.NewEventBus()
		sender := &recordingSender{}
		unsubscribe := NewNotifier(sender, "https://timesheet.example.com/").Subscribe(bus)
		defer unsubscribe()

		// when
		err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.EntryDecidedType, decided))

		// then
		require.NoError(t, err)
		require.Len(t, sender.messages, 1)
		assert.Contains(t, sender.messages[0].Body, "https://timesheet.example.com/timesheet?date=2024-01-08")
	})

	t.Run("should report delivery failures as notification errors", func(t *testing.T) {
		bus := event_bus.NewEventBus()
		sender := &recordingSender{err: errors.New("smtp down")}
		unsubscribe := NewNotifier(sender, "").Subscribe(bus)
		defer unsubscribe()

		err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.EntryDecidedType, decided))

		assert.True(t, apperr.IsNotification(err))
	})
}

func TestEmailSender(t *testing.T) {
	t.Run("should send through SES", func(t *testing.T) {
		client := &sesStub{}
		sender := NewEmailSenderWithClient(client, "timesheet@example.com")

		err := sender.Send(context.Background(), BuildMessage(decided, ""))

		require.NoError(t, err)
		require.Len(t, client.inputs, 1)
		assert.Equal(t, "timesheet@example.com", *client.inputs[0].Source)
		assert.Equal(t, []string{"jane@example.com"}, client.inputs[0].Destination.ToAddresses)
	})

	t.Run("should refuse recipients without email", func(t *testing.T) {
		client := &sesStub{}
		err := NewEmailSenderWithClient(client, "timesheet@example.com").Send(context.Background(), Message{RecipientName: "Jane"})
		assert.Error(t, err)
		assert.Empty(t, client.inputs)
	})
}

func TestSlackSender(t *testing.T) {
	client := &slackStub{}

	err := NewSlackSenderWithClient(client, "C0123").Send(context.Background(), BuildMessage(decided, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"C0123"}, client.channels)
	assert.Equal(t, 2, client.options)
}

func TestNewSender(t *testing.T) {
	sender, err := NewSender(context.Background(), config.Notification{})
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, sender)

	sender, err = NewSender(context.Background(), config.Notification{Sender: "slack", Slack: config.Slack{Token: "xoxb-test", Channel: "C0123"}})
	require.NoError(t, err)
	assert.IsType(t, &SlackSender{}, sender)

	_, err = NewSender(context.Background(), config.Notification{Sender: "slack"})
	assert.Error(t, err)

	_, err = NewSender(context.Background(), config.Notification{Sender: "pigeon"})
	assert.Error(t, err)
}
