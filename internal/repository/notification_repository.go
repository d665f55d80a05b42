package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"gorm.io/gorm"
)

const (
	defaultInboxPage = 20
	maxInboxPage     = 50
)

// NotificationRepository stores each user's offer inbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, recipient string) error
	CountUnread(ctx context.Context, recipient string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) inbox(ctx context.Context, recipient string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_uid = ?", recipient)
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByUser returns the newest entries first.
func (r *notificationRepository) ListByUser(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > maxInboxPage {
		limit = defaultInboxPage
	}
	q := r.inbox(ctx, recipient)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var out []model.Notification
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAllRead stamps every unread entry with the same read time.
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipient string) error {
	return r.inbox(ctx, recipient).
		Where("read_at IS NULL").
		Update("read_at", time.Now().UTC()).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	var n int64
	err := r.inbox(ctx, recipient).Where("read_at IS NULL").Count(&n).Error
	return n, err
}
