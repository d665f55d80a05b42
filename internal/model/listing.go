package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Listing struct {
	ID              string          `gorm:"primaryKey;size:36"`
	SellerUID       string          `gorm:"column:seller_uid;size:128;not null;index"`
	Name            string          `gorm:"size:120;not null"`
	Description     string          `gorm:"type:text;not null"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Category        string          `gorm:"size:64;index"`
	IsSold          bool            `gorm:"column:is_sold;not null;default:false;index"`
	AcceptedOfferID *string         `gorm:"column:accepted_offer_id;size:36"`
	Images          []ListingImage  `gorm:"foreignKey:ListingID"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}

// ImageURLs returns the image urls in upload order.
func (l *Listing) ImageURLs() []string {
	urls := make([]string, 0, len(l.Images))
	for _, img := range l.Images {
		urls = append(urls, img.ImageURL)
	}
	return urls
}
