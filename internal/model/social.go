package model

import "time"

type Follow struct {
	FollowerUID string    `gorm:"column:follower_uid;primaryKey;size:128"`
	FolloweeUID string    `gorm:"column:followee_uid;primaryKey;size:128;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Follow) TableName() string {
	return "follows"
}

type WishlistItem struct {
	UID       string    `gorm:"column:uid;primaryKey;size:128"`
	ListingID string    `gorm:"column:listing_id;primaryKey;size:36;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
