package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository interface {
	Upsert(ctx context.Context, cv *model.Conversation) (*model.Conversation, error)
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	ListByUser(ctx context.Context, uid string) ([]model.Conversation, error)
	AppendMessage(ctx context.Context, cv *model.Conversation, msg *model.Message) error
	ListMessages(ctx context.Context, convID string, limit int) ([]model.Message, error)
	ListAllMessages(ctx context.Context, convID string) ([]model.Message, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Upsert creates the conversation or merges new participant details into the stored one.
func (r *conversationRepository) Upsert(ctx context.Context, cv *model.Conversation) (*model.Conversation, error) {
	var out model.Conversation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", cv.ID).Limit(1).Find(&out)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			out = *cv
			return tx.Create(&out).Error
		}
		if out.ParticipantA != cv.ParticipantA || out.ParticipantB != cv.ParticipantB {
			return ErrConflict
		}
		merged := out.ParticipantDetails.Data()
		if merged == nil {
			merged = model.ParticipantDetails{}
		}
		changed := false
		for uid, d := range cv.ParticipantDetails.Data() {
			if cur, ok := merged[uid]; !ok || cur != d {
				merged[uid] = d
				changed = true
			}
		}
		if !changed {
			return nil
		}
		out.ParticipantDetails = datatypes.NewJSONType(merged)
		return tx.Model(&model.Conversation{}).
			Where("id = ?", out.ID).
			Update("participant_details", out.ParticipantDetails).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var cv model.Conversation
	if err := r.db.WithContext(ctx).First(&cv, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &cv, nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", uid, uid).
		Order("updated_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, cv *model.Conversation, msg *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return appendMessageTx(tx, cv, msg)
	})
}

// appendMessageTx stores msg and moves the conversation's last message pointer.
// The conversation row is created when it does not exist yet.
func appendMessageTx(tx *gorm.DB, cv *model.Conversation, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.ConversationID = cv.ID
	cv.LastMessage = msg.Body
	cv.LastSenderUID = msg.SenderUID
	cv.LastMessageAt = &msg.CreatedAt

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_message", "last_sender_uid", "last_message_at", "updated_at"}),
	}).Create(cv).Error; err != nil {
		return err
	}
	return tx.Create(msg).Error
}

func (r *conversationRepository) ListMessages(ctx context.Context, convID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListAllMessages returns the whole history, oldest first.
func (r *conversationRepository) ListAllMessages(ctx context.Context, convID string) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
