package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// ErrNoEmailAddress is returned when the recipient has no address on file.
var ErrNoEmailAddress = errors.New("recipient has no email address")

// EmailSender sends a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// UserDirectory resolves a recipient ID to a user.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// EmailSink mails a notification to its recipient's address.
type EmailSink struct {
	users  UserDirectory
	sender EmailSender
}

func NewEmailSink(users UserDirectory, sender EmailSender) *EmailSink {
	return &EmailSink{users: users, sender: sender}
}

func (s *EmailSink) Send(ctx context.Context, n domain.Notification) error {
	u, err := s.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("resolving recipient %s: %w", n.RecipientID, err)
	}
	if u.Email == "" {
		return fmt.Errorf("recipient %s: %w", n.RecipientID, ErrNoEmailAddress)
	}
	if err := s.sender.SendEmail(ctx, u.Email, n.Title, n.Body); err != nil {
		return fmt.Errorf("emailing %s: %w", n.RecipientID, err)
	}
	return nil
}

// SESAPI is the subset of the SES client used for sending.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends mail through Amazon SES.
type SESSender struct {
	client SESAPI
	from   string
}

// NewSESSender loads the default AWS configuration for region.
func NewSESSender(ctx context.Context, region, from string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSESSenderWithClient(ses.NewFromConfig(cfg), from), nil
}

func NewSESSenderWithClient(client SESAPI, from string) *SESSender {
	return &SESSender{client: client, from: from}
}

func (s *SESSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.from),
	})
	return err
}
