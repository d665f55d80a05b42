package model

import (
	"math"
	"time"
)

type Review struct {
	ID          string    `gorm:"primaryKey;size:36"`
	SellerUID   string    `gorm:"column:seller_uid;size:128;not null;index"`
	ReviewerUID string    `gorm:"column:reviewer_uid;size:128;not null;index"`
	ListingID   *string   `gorm:"column:listing_id;size:36"`
	Rating      int       `gorm:"column:rating;not null"`
	Comment     string    `gorm:"column:comment;type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Review) TableName() string {
	return "reviews"
}

// SellerRating is the running aggregate of a seller's reviews.
type SellerRating struct {
	SellerUID     string    `gorm:"column:seller_uid;primaryKey;size:128"`
	RatingSum     int64     `gorm:"column:rating_sum;not null;default:0"`
	RatingCount   int64     `gorm:"column:rating_count;not null;default:0"`
	AverageRating float64   `gorm:"column:average_rating;not null;default:0"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (SellerRating) TableName() string {
	return "seller_ratings"
}

// Add folds one rating into the aggregate and recomputes the mean.
func (r SellerRating) Add(rating int) SellerRating {
	r.RatingSum += int64(rating)
	r.RatingCount++
	r.AverageRating = RoundMean(r.RatingSum, r.RatingCount)
	return r
}

// RoundMean returns sum/count rounded to one decimal place.
func RoundMean(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}
