package service

import (
	"context"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/repository"
)

type inboxService struct {
	notifications repository.NotificationRepo
	rt            Runtime
}

func NewInboxService(notifications repository.NotificationRepo, rt Runtime) InboxService {
	return &inboxService{notifications: notifications, rt: rt.withDefaults()}
}

// List returns the user's in-app notifications, newest first.
func (s *inboxService) List(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	return s.notifications.ListForRecipient(ctx, userID, unreadOnly)
}

func (s *inboxService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

func (s *inboxService) MarkRead(ctx context.Context, notificationID string) (err error) {
	defer observe(ctx, s.rt.Observer, "mark_notification_read", time.Now(), &err, map[string]any{"notification_id": notificationID})
	return s.notifications.MarkRead(ctx, notificationID)
}

func (s *inboxService) MarkAllRead(ctx context.Context, userID string) (n int64, err error) {
	defer observe(ctx, s.rt.Observer, "mark_all_read", time.Now(), &err, map[string]any{"user_id": userID})
	return s.notifications.MarkAllRead(ctx, userID)
}
