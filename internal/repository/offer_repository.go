package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"gorm.io/gorm"
)

// AcceptParams describes one acceptance. Notice, when set, is appended to
// Conversation inside the same commit.
type AcceptParams struct {
	ListingID    string
	OfferID      string
	SellerUID    string
	Conversation *model.Conversation
	Notice       *model.Message
}

type AcceptResult struct {
	Listing  *model.Listing
	Offer    *model.Offer
	Rejected []model.Offer
}

type OfferRepository interface {
	Create(ctx context.Context, o *model.Offer) error
	FindByID(ctx context.Context, listingID, offerID string) (*model.Offer, error)
	FindPending(ctx context.Context, listingID, buyerUID string) (*model.Offer, error)
	ListByListing(ctx context.Context, listingID string) ([]model.Offer, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Offer, error)
	Accept(ctx context.Context, p AcceptParams) (*AcceptResult, error)
	Transition(ctx context.Context, listingID, offerID string, to model.OfferStatus, actorUID string) (*model.Offer, error)
	History(ctx context.Context, listingID, offerID string) ([]model.OfferEvent, error)
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return tx.Create(&model.OfferEvent{
			OfferID:   o.ID,
			ListingID: o.ListingID,
			NewStatus: o.Status,
			ChangedBy: o.BuyerUID,
		}).Error
	})
}

func (r *offerRepository) FindByID(ctx context.Context, listingID, offerID string) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND listing_id = ?", offerID, listingID).
		First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// FindPending returns the buyer's pending offer on the listing, or nil when there is none.
func (r *offerRepository) FindPending(ctx context.Context, listingID, buyerUID string) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_uid = ? AND status = ?", listingID, buyerUID, model.OfferStatusPending).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *offerRepository) ListByListing(ctx context.Context, listingID string) ([]model.Offer, error) {
	var list []model.Offer
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *offerRepository) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Offer, error) {
	var list []model.Offer
	if err := r.db.WithContext(ctx).
		Where("buyer_uid = ?", buyerUID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Accept sells the listing to the offer in a single transaction. The listing
// and offer updates are guarded by their expected current state, so a
// concurrent acceptance makes this one fail without writing anything.
func (r *offerRepository) Accept(ctx context.Context, p AcceptParams) (*AcceptResult, error) {
	var out AcceptResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		if err := withImages(tx).First(&listing, "id = ?", p.ListingID).Error; err != nil {
			return translate(err)
		}
		if listing.SellerUID != p.SellerUID {
			return ErrNotSeller
		}
		if listing.IsSold {
			return ErrListingSold
		}
		var offer model.Offer
		if err := tx.Where("id = ? AND listing_id = ?", p.OfferID, p.ListingID).First(&offer).Error; err != nil {
			return translate(err)
		}
		if offer.Status != model.OfferStatusPending {
			return ErrOfferNotPending
		}

		res := tx.Model(&model.Listing{}).
			Where("id = ? AND is_sold = ?", p.ListingID, false).
			Updates(map[string]interface{}{
				"is_sold":           true,
				"accepted_offer_id": p.OfferID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrListingSold
		}

		res = tx.Model(&model.Offer{}).
			Where("id = ? AND status = ?", p.OfferID, model.OfferStatusPending).
			Update("status", model.OfferStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOfferNotPending
		}

		var competing []model.Offer
		if err := tx.Where("listing_id = ? AND status = ? AND id <> ?", p.ListingID, model.OfferStatusPending, p.OfferID).
			Find(&competing).Error; err != nil {
			return err
		}
		events := []model.OfferEvent{{
			OfferID:   p.OfferID,
			ListingID: p.ListingID,
			OldStatus: model.OfferStatusPending,
			NewStatus: model.OfferStatusAccepted,
			ChangedBy: p.SellerUID,
		}}
		if len(competing) > 0 {
			ids := make([]string, 0, len(competing))
			for i := range competing {
				ids = append(ids, competing[i].ID)
				competing[i].Status = model.OfferStatusRejected
				events = append(events, model.OfferEvent{
					OfferID:   competing[i].ID,
					ListingID: p.ListingID,
					OldStatus: model.OfferStatusPending,
					NewStatus: model.OfferStatusRejected,
					ChangedBy: p.SellerUID,
				})
			}
			if err := tx.Model(&model.Offer{}).
				Where("id IN ? AND status = ?", ids, model.OfferStatusPending).
				Update("status", model.OfferStatusRejected).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&events).Error; err != nil {
			return err
		}

		if p.Notice != nil && p.Conversation != nil {
			if err := appendMessageTx(tx, p.Conversation, p.Notice); err != nil {
				return err
			}
		}

		listing.IsSold = true
		accepted := p.OfferID
		listing.AcceptedOfferID = &accepted
		offer.Status = model.OfferStatusAccepted
		out = AcceptResult{Listing: &listing, Offer: &offer, Rejected: competing}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Transition moves a pending offer to a terminal status other than accepted.
func (r *offerRepository) Transition(ctx context.Context, listingID, offerID string, to model.OfferStatus, actorUID string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND listing_id = ?", offerID, listingID).First(&offer).Error; err != nil {
			return translate(err)
		}
		if offer.Status != model.OfferStatusPending {
			return ErrOfferNotPending
		}
		res := tx.Model(&model.Offer{}).
			Where("id = ? AND status = ?", offerID, model.OfferStatusPending).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOfferNotPending
		}
		offer.Status = to
		return tx.Create(&model.OfferEvent{
			OfferID:   offerID,
			ListingID: listingID,
			OldStatus: model.OfferStatusPending,
			NewStatus: to,
			ChangedBy: actorUID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) History(ctx context.Context, listingID, offerID string) ([]model.OfferEvent, error) {
	var events []model.OfferEvent
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND offer_id = ?", listingID, offerID).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
