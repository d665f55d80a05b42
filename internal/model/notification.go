package model

import "time"

const (
	NotificationOfferReceived  = "offer_received"
	NotificationOfferAccepted  = "offer_accepted"
	NotificationOfferRejected  = "offer_rejected"
	NotificationOfferWithdrawn = "offer_withdrawn"
)

type Notification struct {
	ID             string     `gorm:"primaryKey;size:36"`
	UserUID        string     `gorm:"column:user_uid;size:128;index;not null"`
	Type           string     `gorm:"column:type;size:64;not null"`
	Title          string     `gorm:"column:title;size:255"`
	Body           string     `gorm:"column:body;type:text"`
	ListingID      *string    `gorm:"column:listing_id;size:36;index"`
	OfferID        *string    `gorm:"column:offer_id;size:36"`
	ConversationID *string    `gorm:"column:conversation_id;size:520"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
