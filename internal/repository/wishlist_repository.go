package repository

import (
	"context"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository interface {
	Add(ctx context.Context, uid, listingID string) error
	Remove(ctx context.Context, uid, listingID string) error
	ListIDs(ctx context.Context, uid string) ([]string, error)
}

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, uid, listingID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WishlistItem{UID: uid, ListingID: listingID}).Error
}

func (r *wishlistRepository) Remove(ctx context.Context, uid, listingID string) error {
	return r.db.WithContext(ctx).
		Where("uid = ? AND listing_id = ?", uid, listingID).
		Delete(&model.WishlistItem{}).Error
}

func (r *wishlistRepository) ListIDs(ctx context.Context, uid string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.WishlistItem{}).
		Where("uid = ?", uid).
		Order("created_at DESC").
		Pluck("listing_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
