package docstore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
)

type listingStore struct {
	fs *firestore.Client
}

func (s *listingStore) ref(id string) *firestore.DocumentRef {
	return s.fs.Collection(colListings).Doc(id)
}

func (s *listingStore) Create(ctx context.Context, l *model.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	for i := range l.Images {
		l.Images[i].ListingID = l.ID
		l.Images[i].Position = i
	}
	_, err := s.ref(l.ID).Create(ctx, toListingDoc(l))
	return err
}

func (s *listingStore) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	snap, err := s.ref(id).Get(ctx)
	if err != nil {
		return nil, translate(err)
	}
	var d listingDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	l := d.model()
	return &l, nil
}

func (s *listingStore) FindByIDs(ctx context.Context, ids []string) ([]model.Listing, error) {
	if len(ids) == 0 {
		return []model.Listing{}, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.ref(id))
	}
	snaps, err := s.fs.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	out := make([]model.Listing, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var d listingDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, d.model())
	}
	return out, nil
}

// List filters on indexed fields in the query; the name search and paging
// run over the ordered result.
func (s *listingStore) List(ctx context.Context, f repository.ListingFilter) ([]model.Listing, int64, error) {
	q := s.fs.Collection(colListings).Query
	if !f.IncludeSold {
		q = q.Where("isSold", "==", false)
	}
	if f.Category != "" {
		q = q.Where("category", "==", f.Category)
	}
	if f.SellerUID != "" {
		q = q.Where("sellerUid", "==", f.SellerUID)
	}
	snaps, err := q.OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, err
	}
	needle := strings.ToLower(f.Query)
	matched := make([]model.Listing, 0, len(snaps))
	for _, snap := range snaps {
		var d listingDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, 0, err
		}
		if needle != "" && !strings.Contains(d.NameLower, needle) {
			continue
		}
		matched = append(matched, d.model())
	}
	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []model.Listing{}, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (s *listingStore) AddImage(ctx context.Context, listingID, imageURL string) (*model.ListingImage, error) {
	var img model.ListingImage
	ref := s.ref(listingID)
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return translate(err)
		}
		var d listingDoc
		if err := snap.DataTo(&d); err != nil {
			return err
		}
		img = model.ListingImage{
			ID:        uint64(len(d.Images) + 1),
			ListingID: listingID,
			ImageURL:  imageURL,
			Position:  len(d.Images),
			CreatedAt: time.Now().UTC(),
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "images", Value: append(d.Images, imageURL)},
			{Path: "updatedAt", Value: img.CreatedAt},
		})
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}
