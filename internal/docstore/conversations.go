package docstore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
)

type conversationStore struct {
	fs *firestore.Client
}

func (s *conversationStore) ref(id string) *firestore.DocumentRef {
	return s.fs.Collection(colConversations).Doc(id)
}

func detailsMap(d model.ParticipantDetails) map[string]interface{} {
	out := make(map[string]interface{}, len(d))
	for uid, p := range d {
		out[uid] = map[string]interface{}{"displayName": p.DisplayName, "photoUrl": p.PhotoURL}
	}
	return out
}

func (s *conversationStore) Upsert(ctx context.Context, cv *model.Conversation) (*model.Conversation, error) {
	ref := s.ref(cv.ID)
	var out model.Conversation
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return err
		}
		now := time.Now().UTC()
		if err != nil {
			out = *cv
			out.CreatedAt, out.UpdatedAt = now, now
			return tx.Create(ref, map[string]interface{}{
				"id":                 out.ID,
				"participants":       []string{out.ParticipantA, out.ParticipantB},
				"participantA":       out.ParticipantA,
				"participantB":       out.ParticipantB,
				"participantDetails": detailsMap(out.ParticipantDetails.Data()),
				"lastMessage":        "",
				"lastSenderUid":      "",
				"lastMessageAt":      nil,
				"createdAt":          now,
				"updatedAt":          now,
			})
		}
		var d conversationDoc
		if err := snap.DataTo(&d); err != nil {
			return err
		}
		out = d.model()
		if out.ParticipantA != cv.ParticipantA || out.ParticipantB != cv.ParticipantB {
			return repository.ErrConflict
		}
		merged := out.ParticipantDetails.Data()
		changed := false
		for uid, pd := range cv.ParticipantDetails.Data() {
			if cur, ok := merged[uid]; !ok || cur != pd {
				merged[uid] = pd
				changed = true
			}
		}
		if !changed {
			return nil
		}
		out = *model.NewConversation(out.ParticipantA, out.ParticipantB, merged)
		out.LastMessage, out.LastSenderUID, out.LastMessageAt = d.LastMessage, d.LastSenderUID, d.LastMessageAt
		out.CreatedAt, out.UpdatedAt = d.CreatedAt, d.UpdatedAt
		return tx.Set(ref, map[string]interface{}{
			"participantDetails": detailsMap(merged),
		}, firestore.MergeAll)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *conversationStore) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	snap, err := s.ref(id).Get(ctx)
	if err != nil {
		return nil, translate(err)
	}
	var d conversationDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	cv := d.model()
	return &cv, nil
}

func (s *conversationStore) ListByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	snaps, err := s.fs.Collection(colConversations).
		Where("participants", "array-contains", uid).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]model.Conversation, 0, len(snaps))
	for _, snap := range snaps {
		var d conversationDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, d.model())
	}
	return out, nil
}

// AppendMessage is a blind write: the message and the conversation's last
// message fields are committed together in one batch.
func (s *conversationStore) AppendMessage(ctx context.Context, cv *model.Conversation, msg *model.Message) error {
	_, err := s.ref(cv.ID).Get(ctx)
	exists := err == nil
	if err != nil && !isNotFound(err) {
		return err
	}
	convRef, conv, msgRef, m := messageWrites(s.fs, cv, msg, exists)
	b := s.fs.Batch()
	b.Set(convRef, conv, firestore.MergeAll)
	b.Create(msgRef, m)
	_, err = b.Commit(ctx)
	return err
}

// messageWrites prepares msg and the conversation fields it moves. The
// participant fields are only written when the conversation is new.
func messageWrites(fs *firestore.Client, cv *model.Conversation, msg *model.Message, exists bool) (*firestore.DocumentRef, map[string]interface{}, *firestore.DocumentRef, messageDoc) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.ConversationID = cv.ID
	cv.LastMessage = msg.Body
	cv.LastSenderUID = msg.SenderUID
	cv.LastMessageAt = &msg.CreatedAt

	conv := map[string]interface{}{
		"lastMessage":   msg.Body,
		"lastSenderUid": msg.SenderUID,
		"lastMessageAt": msg.CreatedAt,
		"updatedAt":     msg.CreatedAt,
	}
	if !exists {
		conv["id"] = cv.ID
		conv["participants"] = []string{cv.ParticipantA, cv.ParticipantB}
		conv["participantA"] = cv.ParticipantA
		conv["participantB"] = cv.ParticipantB
		conv["participantDetails"] = detailsMap(cv.ParticipantDetails.Data())
		conv["createdAt"] = msg.CreatedAt
	}
	convRef := fs.Collection(colConversations).Doc(cv.ID)
	return convRef, conv, convRef.Collection(colMessages).Doc(msg.ID), toMessageDoc(msg)
}

func (s *conversationStore) ListMessages(ctx context.Context, convID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	snaps, err := s.ref(convID).Collection(colMessages).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	msgs := make([]model.Message, len(snaps))
	for i, snap := range snaps {
		var d messageDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		msgs[len(snaps)-1-i] = d.model()
	}
	return msgs, nil
}

func (s *conversationStore) ListAllMessages(ctx context.Context, convID string) ([]model.Message, error) {
	snaps, err := s.ref(convID).Collection(colMessages).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	msgs := make([]model.Message, 0, len(snaps))
	for _, snap := range snaps {
		var d messageDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		msgs = append(msgs, d.model())
	}
	return msgs, nil
}
