package notification

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/klokku/timesheet/internal/config"
)

// SESClient is the part of *ses.Client EmailSender uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type EmailSender struct {
	client SESClient
	from   string
}

func NewEmailSender(ctx context.Context, cfg config.Email) (*EmailSender, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("email notifications need notification.email.from")
	}
	options := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if cfg.Region != "" {
		options = append(options, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewEmailSenderWithClient(ses.NewFromConfig(awsCfg), cfg.From), nil
}

func NewEmailSenderWithClient(client SESClient, from string) *EmailSender {
	return &EmailSender{client: client, from: from}
}

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if msg.RecipientEmail == "" {
		return fmt.Errorf("%s has no email address", msg.RecipientName)
	}
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{msg.RecipientEmail}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
