package service

import (
	"context"
	"log"
	"strings"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

type ReviewInput struct {
	SellerUID string
	Rating    int
	Comment   string
	ListingID string
}

type ReviewService interface {
	Submit(ctx context.Context, sess session.Session, in ReviewInput) (*model.Review, *model.SellerRating, error)
	GetRating(ctx context.Context, sellerUID string) (*model.SellerRating, error)
	ListForSeller(ctx context.Context, sellerUID string, limit int) ([]model.Review, error)
}

type reviewService struct {
	repo repository.ReviewRepository
}

func NewReviewService(repo repository.ReviewRepository) ReviewService {
	return &reviewService{repo: repo}
}

func (s *reviewService) Submit(ctx context.Context, sess session.Session, in ReviewInput) (*model.Review, *model.SellerRating, error) {
	if err := sess.Require(); err != nil {
		return nil, nil, err
	}
	if in.SellerUID == sess.UID {
		return nil, nil, ErrSelfReview
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, nil, ErrCommentRequired
	}
	rv := &model.Review{
		SellerUID:   in.SellerUID,
		ReviewerUID: sess.UID,
		Rating:      in.Rating,
		Comment:     comment,
	}
	if id := strings.TrimSpace(in.ListingID); id != "" {
		rv.ListingID = strPtr(id)
	}
	agg, err := s.repo.CreateWithAggregate(ctx, rv)
	if err != nil {
		log.Printf("[review] rid=%s stage=aggregate_fail seller=%s err=%v", reqctx.RID(ctx), in.SellerUID, err)
		return nil, nil, err
	}
	log.Printf("[review] rid=%s stage=created seller=%s count=%d avg=%.1f", reqctx.RID(ctx), agg.SellerUID, agg.RatingCount, agg.AverageRating)
	return rv, agg, nil
}

func (s *reviewService) GetRating(ctx context.Context, sellerUID string) (*model.SellerRating, error) {
	return s.repo.GetRating(ctx, sellerUID)
}

func (s *reviewService) ListForSeller(ctx context.Context, sellerUID string, limit int) ([]model.Review, error) {
	return s.repo.ListBySeller(ctx, sellerUID, limit)
}
