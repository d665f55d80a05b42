package service

import (
	"context"
	"log"
	"time"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

type NotificationService interface {
	Notify(ctx context.Context, n *model.Notification)
	List(ctx context.Context, sess session.Session, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, sess session.Session) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// Notify is best-effort: errors are logged, not returned.
func (s *notificationService) Notify(ctx context.Context, n *model.Notification) {
	if s == nil || n == nil || n.UserUID == "" || n.Type == "" {
		return
	}
	ctx, cancel := withShortDeadline(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("[notify] rid=%s stage=create_fail user=%s type=%s err=%v", reqctx.RID(ctx), n.UserUID, n.Type, err)
	}
}

func (s *notificationService) List(ctx context.Context, sess session.Session, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if err := sess.Require(); err != nil {
		return nil, 0, err
	}
	list, err := s.repo.ListByUser(ctx, sess.UID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, sess.UID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, sess session.Session) error {
	if err := sess.Require(); err != nil {
		return err
	}
	return s.repo.MarkAllRead(ctx, sess.UID)
}

func strPtr(v string) *string {
	return &v
}

// withShortDeadline bounds side writes so they cannot stall the request.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
