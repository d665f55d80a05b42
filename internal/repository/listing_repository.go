package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"gorm.io/gorm"
)

type ListingFilter struct {
	Limit       int
	Offset      int
	Category    string
	Query       string
	SellerUID   string
	IncludeSold bool
}

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Listing, error)
	List(ctx context.Context, f ListingFilter) ([]model.Listing, int64, error)
	AddImage(ctx context.Context, listingID, imageURL string) (*model.ListingImage, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	})
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	for i := range l.Images {
		l.Images[i].ListingID = l.ID
		l.Images[i].Position = i
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	if err := withImages(r.db.WithContext(ctx)).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *listingRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Listing, error) {
	if len(ids) == 0 {
		return []model.Listing{}, nil
	}
	var list []model.Listing
	if err := withImages(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *listingRepository) List(ctx context.Context, f ListingFilter) ([]model.Listing, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Listing{})
	if !f.IncludeSold {
		q = q.Where("is_sold = ?", false)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.SellerUID != "" {
		q = q.Where("seller_uid = ?", f.SellerUID)
	}
	if f.Query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Listing
	if err := withImages(q).
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *listingRepository) AddImage(ctx context.Context, listingID, imageURL string) (*model.ListingImage, error) {
	img := &model.ListingImage{ListingID: listingID, ImageURL: imageURL}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&model.Listing{}).Where("id = ?", listingID).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return ErrNotFound
		}
		var pos int64
		if err := tx.Model(&model.ListingImage{}).Where("listing_id = ?", listingID).Count(&pos).Error; err != nil {
			return err
		}
		img.Position = int(pos)
		return tx.Create(img).Error
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}
