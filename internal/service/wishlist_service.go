package service

import (
	"context"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

type WishlistService interface {
	Add(ctx context.Context, sess session.Session, listingID string) error
	Remove(ctx context.Context, sess session.Session, listingID string) error
	List(ctx context.Context, sess session.Session) ([]model.Listing, error)
}

type wishlistService struct {
	repo     repository.WishlistRepository
	listings repository.ListingRepository
}

func NewWishlistService(repo repository.WishlistRepository, listings repository.ListingRepository) WishlistService {
	return &wishlistService{repo: repo, listings: listings}
}

func (s *wishlistService) Add(ctx context.Context, sess session.Session, listingID string) error {
	if err := sess.Require(); err != nil {
		return err
	}
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return err
	}
	return s.repo.Add(ctx, sess.UID, listingID)
}

func (s *wishlistService) Remove(ctx context.Context, sess session.Session, listingID string) error {
	if err := sess.Require(); err != nil {
		return err
	}
	return s.repo.Remove(ctx, sess.UID, listingID)
}

// List returns wishlisted listings newest first; deleted listings are skipped.
func (s *wishlistService) List(ctx context.Context, sess session.Session) ([]model.Listing, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	ids, err := s.repo.ListIDs(ctx, sess.UID)
	if err != nil {
		return nil, err
	}
	found, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	out := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}
