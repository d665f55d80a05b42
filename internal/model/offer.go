package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
)

// Terminal reports whether no further transition is allowed.
func (s OfferStatus) Terminal() bool {
	return s != OfferStatusPending
}

type Offer struct {
	ID        string          `gorm:"primaryKey;size:36"`
	ListingID string          `gorm:"column:listing_id;size:36;not null;index:idx_offers_listing_status"`
	BuyerUID  string          `gorm:"column:buyer_uid;size:128;not null;index"`
	SellerUID string          `gorm:"column:seller_uid;size:128;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Status    OfferStatus     `gorm:"column:status;size:16;not null;index:idx_offers_listing_status"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (Offer) TableName() string {
	return "offers"
}

// OfferEvent records one status transition of an offer.
type OfferEvent struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement"`
	OfferID   string      `gorm:"column:offer_id;size:36;not null;index"`
	ListingID string      `gorm:"column:listing_id;size:36;not null;index"`
	OldStatus OfferStatus `gorm:"column:old_status;size:16"`
	NewStatus OfferStatus `gorm:"column:new_status;size:16;not null"`
	ChangedBy string      `gorm:"column:changed_by;size:128;not null"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
}

func (OfferEvent) TableName() string {
	return "offer_events"
}
