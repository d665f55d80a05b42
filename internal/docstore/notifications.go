package docstore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
)

type notificationStore struct {
	fs *firestore.Client
}

func (s *notificationStore) inbox(uid string) *firestore.CollectionRef {
	return userDoc(s.fs, uid).Collection(colNotifications)
}

func (s *notificationStore) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := s.inbox(n.UserUID).Doc(n.ID).Create(ctx, notificationDoc{
		ID:             n.ID,
		UserUID:        n.UserUID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		ListingID:      n.ListingID,
		OfferID:        n.OfferID,
		ConversationID: n.ConversationID,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	})
	return err
}

func (s *notificationStore) ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := s.inbox(userUID).Query
	if unreadOnly {
		q = q.Where("readAt", "==", nil)
	}
	snaps, err := q.OrderBy("createdAt", firestore.Desc).Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0, len(snaps))
	for _, snap := range snaps {
		var d notificationDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, d.model())
	}
	return out, nil
}

func (s *notificationStore) MarkAllRead(ctx context.Context, userUID string) error {
	snaps, err := s.inbox(userUID).Where("readAt", "==", nil).Documents(ctx).GetAll()
	if err != nil || len(snaps) == 0 {
		return err
	}
	now := time.Now().UTC()
	b := s.fs.Batch()
	for _, snap := range snaps {
		b.Update(snap.Ref, []firestore.Update{{Path: "readAt", Value: now}})
	}
	_, err = b.Commit(ctx)
	return err
}

func (s *notificationStore) CountUnread(ctx context.Context, userUID string) (int64, error) {
	refs, err := s.inbox(userUID).Where("readAt", "==", nil).Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	return int64(len(refs)), nil
}
