package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"gorm.io/gorm"
)

const maxRatingAttempts = 5

type ReviewRepository interface {
	CreateWithAggregate(ctx context.Context, rv *model.Review) (*model.SellerRating, error)
	GetRating(ctx context.Context, sellerUID string) (*model.SellerRating, error)
	ListBySeller(ctx context.Context, sellerUID string, limit int) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// CreateWithAggregate stores the review and folds it into the seller's
// aggregate in one transaction. The aggregate write only applies when
// rating_count is unchanged since the read; otherwise the whole attempt is
// rolled back and retried.
func (r *reviewRepository) CreateWithAggregate(ctx context.Context, rv *model.Review) (*model.SellerRating, error) {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	var lastErr error
	for attempt := 0; attempt < maxRatingAttempts; attempt++ {
		agg, err := r.createOnce(ctx, rv)
		if err == nil {
			return agg, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (r *reviewRepository) createOnce(ctx context.Context, rv *model.Review) (*model.SellerRating, error) {
	var next model.SellerRating
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur model.SellerRating
		err := tx.Where("seller_uid = ?", rv.SellerUID).First(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			next = model.SellerRating{SellerUID: rv.SellerUID}.Add(rv.Rating)
			if err := tx.Create(&next).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrConflict
				}
				return err
			}
		case err != nil:
			return err
		default:
			next = cur.Add(rv.Rating)
			res := tx.Model(&model.SellerRating{}).
				Where("seller_uid = ? AND rating_count = ?", rv.SellerUID, cur.RatingCount).
				Updates(map[string]interface{}{
					"rating_sum":     next.RatingSum,
					"rating_count":   next.RatingCount,
					"average_rating": next.AverageRating,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}
		}
		return tx.Create(rv).Error
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// GetRating returns the seller's aggregate; a seller without reviews gets a zero value.
func (r *reviewRepository) GetRating(ctx context.Context, sellerUID string) (*model.SellerRating, error) {
	var agg model.SellerRating
	err := r.db.WithContext(ctx).Where("seller_uid = ?", sellerUID).First(&agg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.SellerRating{SellerUID: sellerUID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *reviewRepository) ListBySeller(ctx context.Context, sellerUID string, limit int) ([]model.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var list []model.Review
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ?", sellerUID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
