package docstore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
)

const maxRatingAttempts = 5

type reviewStore struct {
	fs *firestore.Client
}

// CreateWithAggregate folds the rating into users/{seller} and stores the
// review in one transaction. Concurrent reviews of the same seller contend on
// the user document and are retried by Firestore.
func (s *reviewStore) CreateWithAggregate(ctx context.Context, rv *model.Review) (*model.SellerRating, error) {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	userRef := userDoc(s.fs, rv.SellerUID)
	reviewRef := s.fs.Collection(colReviews).Doc(rv.ID)
	var next model.SellerRating
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cur := model.SellerRating{SellerUID: rv.SellerUID}
		snap, err := tx.Get(userRef)
		switch {
		case err == nil:
			var d ratingDoc
			if err := snap.DataTo(&d); err != nil {
				return err
			}
			cur.RatingSum, cur.RatingCount, cur.AverageRating = d.RatingSum, d.RatingCount, d.AverageRating
		case isNotFound(err):
		default:
			return err
		}
		now := time.Now().UTC()
		next = cur.Add(rv.Rating)
		next.UpdatedAt = now
		rv.CreatedAt = now
		if err := tx.Set(userRef, map[string]interface{}{
			"ratingSum":       next.RatingSum,
			"ratingCount":     next.RatingCount,
			"averageRating":   next.AverageRating,
			"ratingUpdatedAt": now,
		}, firestore.MergeAll); err != nil {
			return err
		}
		return tx.Create(reviewRef, reviewDoc{
			ID:          rv.ID,
			SellerUID:   rv.SellerUID,
			ReviewerUID: rv.ReviewerUID,
			ListingID:   rv.ListingID,
			Rating:      rv.Rating,
			Comment:     rv.Comment,
			CreatedAt:   now,
		})
	}, firestore.MaxAttempts(maxRatingAttempts))
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *reviewStore) GetRating(ctx context.Context, sellerUID string) (*model.SellerRating, error) {
	snap, err := userDoc(s.fs, sellerUID).Get(ctx)
	if isNotFound(err) {
		return &model.SellerRating{SellerUID: sellerUID}, nil
	}
	if err != nil {
		return nil, err
	}
	var d ratingDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return &model.SellerRating{
		SellerUID:     sellerUID,
		RatingSum:     d.RatingSum,
		RatingCount:   d.RatingCount,
		AverageRating: d.AverageRating,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func (s *reviewStore) ListBySeller(ctx context.Context, sellerUID string, limit int) ([]model.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	snaps, err := s.fs.Collection(colReviews).
		Where("sellerUid", "==", sellerUID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]model.Review, 0, len(snaps))
	for _, snap := range snaps {
		var d reviewDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, d.model())
	}
	return out, nil
}
