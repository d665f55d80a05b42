package model

import "time"

// SystemSenderUID marks messages written by the application itself.
const SystemSenderUID = "system"

type Message struct {
	ID             string    `gorm:"primaryKey;size:36"`
	ConversationID string    `gorm:"column:conversation_id;size:300;not null;index"`
	SenderUID      string    `gorm:"column:sender_uid;size:128;not null"`
	Body           string    `gorm:"type:text;not null"`
	System         bool      `gorm:"column:is_system;not null;default:false"`
	OfferID        *string   `gorm:"column:offer_id;size:36"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
