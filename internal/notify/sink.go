package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/kickoff/internal/domain"
)

// Sink delivers one notification. Implementations are best-effort.
type Sink interface {
	Send(ctx context.Context, n domain.Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n domain.Notification) error

func (f SinkFunc) Send(ctx context.Context, n domain.Notification) error { return f(ctx, n) }

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// InAppSink records notifications in the recipient's inbox.
type InAppSink struct {
	store NotificationStore
}

func NewInAppSink(store NotificationStore) *InAppSink {
	return &InAppSink{store: store}
}

func (s *InAppSink) Send(ctx context.Context, n domain.Notification) error {
	if err := s.store.Create(ctx, &n); err != nil {
		return fmt.Errorf("storing notification for %s: %w", n.RecipientID, err)
	}
	return nil
}

// ChannelSink routes a notification to the channels its flags select. Email
// goes first so the inbox record can carry whether it was sent; an email
// failure never suppresses the inbox record. Email may be nil when email
// delivery is disabled.
type ChannelSink struct {
	InApp Sink
	Email Sink
}

func (s *ChannelSink) Send(ctx context.Context, n domain.Notification) error {
	var errs []error
	if n.SendEmail && s.Email != nil {
		if err := s.Email.Send(ctx, n); err != nil {
			errs = append(errs, err)
		} else {
			n.EmailSent = true
		}
	}
	if n.SendInApp && s.InApp != nil {
		if err := s.InApp.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
