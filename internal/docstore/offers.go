package docstore

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
)

// An offer leaves pending at most once, so its history has at most two entries.
const (
	seqCreated    = 1
	seqTransition = 2
)

type offerStore struct {
	fs *firestore.Client
}

func (s *offerStore) offers(listingID string) *firestore.CollectionRef {
	return s.fs.Collection(colListings).Doc(listingID).Collection(colOffers)
}

func (s *offerStore) eventRef(listingID, offerID string, seq int) *firestore.DocumentRef {
	return s.offers(listingID).Doc(offerID).Collection(colHistory).Doc(strconv.Itoa(seq))
}

func (s *offerStore) event(o *model.Offer, old model.OfferStatus, seq int, by string, at time.Time) offerEventDoc {
	return offerEventDoc{
		Seq:       int64(seq),
		OfferID:   o.ID,
		ListingID: o.ListingID,
		OldStatus: string(old),
		NewStatus: string(o.Status),
		ChangedBy: by,
		CreatedAt: at,
	}
}

func (s *offerStore) Create(ctx context.Context, o *model.Offer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	b := s.fs.Batch()
	b.Create(s.offers(o.ListingID).Doc(o.ID), toOfferDoc(o))
	b.Create(s.eventRef(o.ListingID, o.ID, seqCreated), s.event(o, "", seqCreated, o.BuyerUID, now))
	_, err := b.Commit(ctx)
	return err
}

func (s *offerStore) FindByID(ctx context.Context, listingID, offerID string) (*model.Offer, error) {
	snap, err := s.offers(listingID).Doc(offerID).Get(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return decodeOffer(snap)
}

func (s *offerStore) FindPending(ctx context.Context, listingID, buyerUID string) (*model.Offer, error) {
	snaps, err := s.offers(listingID).
		Where("buyerUid", "==", buyerUID).
		Where("status", "==", string(model.OfferStatusPending)).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return decodeOffer(snaps[0])
}

func (s *offerStore) ListByListing(ctx context.Context, listingID string) ([]model.Offer, error) {
	snaps, err := s.offers(listingID).OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeOffers(snaps)
}

func (s *offerStore) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Offer, error) {
	snaps, err := s.fs.CollectionGroup(colOffers).
		Where("buyerUid", "==", buyerUID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeOffers(snaps)
}

// Accept reads the listing, the offer and the competing pending offers, then
// writes the sale, the rejections, their history and the optional notice in
// the same transaction. Firestore retries the function when any read document
// changes before commit.
func (s *offerStore) Accept(ctx context.Context, p repository.AcceptParams) (*repository.AcceptResult, error) {
	listingRef := s.fs.Collection(colListings).Doc(p.ListingID)
	offerRef := s.offers(p.ListingID).Doc(p.OfferID)
	var out repository.AcceptResult

	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		lsnap, err := tx.Get(listingRef)
		if err != nil {
			return translate(err)
		}
		var ld listingDoc
		if err := lsnap.DataTo(&ld); err != nil {
			return err
		}
		if ld.SellerUID != p.SellerUID {
			return repository.ErrNotSeller
		}
		if ld.IsSold {
			return repository.ErrListingSold
		}
		osnap, err := tx.Get(offerRef)
		if err != nil {
			return translate(err)
		}
		offer, err := decodeOffer(osnap)
		if err != nil {
			return err
		}
		if offer.Status != model.OfferStatusPending {
			return repository.ErrOfferNotPending
		}
		psnaps, err := tx.Documents(s.offers(p.ListingID).
			Where("status", "==", string(model.OfferStatusPending))).GetAll()
		if err != nil {
			return err
		}
		var convExists bool
		if p.Notice != nil && p.Conversation != nil {
			csnap, err := tx.Get(s.fs.Collection(colConversations).Doc(p.Conversation.ID))
			switch {
			case err == nil:
				convExists = csnap.Exists()
			case isNotFound(err):
			default:
				return err
			}
		}

		now := time.Now().UTC()
		if err := tx.Update(listingRef, []firestore.Update{
			{Path: "isSold", Value: true},
			{Path: "acceptedOfferId", Value: p.OfferID},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		offer.Status = model.OfferStatusAccepted
		offer.UpdatedAt = now
		if err := tx.Update(offerRef, statusUpdates(offer.Status, now)); err != nil {
			return err
		}
		if err := tx.Create(s.eventRef(p.ListingID, p.OfferID, seqTransition),
			s.event(offer, model.OfferStatusPending, seqTransition, p.SellerUID, now)); err != nil {
			return err
		}

		var rejected []model.Offer
		for _, snap := range psnaps {
			if snap.Ref.ID == p.OfferID {
				continue
			}
			o, err := decodeOffer(snap)
			if err != nil {
				return err
			}
			o.Status = model.OfferStatusRejected
			o.UpdatedAt = now
			if err := tx.Update(snap.Ref, statusUpdates(o.Status, now)); err != nil {
				return err
			}
			if err := tx.Create(s.eventRef(p.ListingID, o.ID, seqTransition),
				s.event(o, model.OfferStatusPending, seqTransition, p.SellerUID, now)); err != nil {
				return err
			}
			rejected = append(rejected, *o)
		}

		if p.Notice != nil && p.Conversation != nil {
			convRef, conv, msgRef, msg := messageWrites(s.fs, p.Conversation, p.Notice, convExists)
			if err := tx.Set(convRef, conv, firestore.MergeAll); err != nil {
				return err
			}
			if err := tx.Create(msgRef, msg); err != nil {
				return err
			}
		}

		listing := ld.model()
		listing.IsSold = true
		accepted := p.OfferID
		listing.AcceptedOfferID = &accepted
		listing.UpdatedAt = now
		out = repository.AcceptResult{Listing: &listing, Offer: offer, Rejected: rejected}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *offerStore) Transition(ctx context.Context, listingID, offerID string, to model.OfferStatus, actorUID string) (*model.Offer, error) {
	ref := s.offers(listingID).Doc(offerID)
	var offer *model.Offer
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return translate(err)
		}
		o, err := decodeOffer(snap)
		if err != nil {
			return err
		}
		if o.Status != model.OfferStatusPending {
			return repository.ErrOfferNotPending
		}
		now := time.Now().UTC()
		o.Status = to
		o.UpdatedAt = now
		if err := tx.Update(ref, statusUpdates(to, now)); err != nil {
			return err
		}
		offer = o
		return tx.Create(s.eventRef(listingID, offerID, seqTransition),
			s.event(o, model.OfferStatusPending, seqTransition, actorUID, now))
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *offerStore) History(ctx context.Context, listingID, offerID string) ([]model.OfferEvent, error) {
	snaps, err := s.offers(listingID).Doc(offerID).Collection(colHistory).
		OrderBy("seq", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	events := make([]model.OfferEvent, 0, len(snaps))
	for _, snap := range snaps {
		var d offerEventDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		events = append(events, d.model())
	}
	return events, nil
}

func statusUpdates(status model.OfferStatus, at time.Time) []firestore.Update {
	return []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: at},
	}
}

func decodeOffer(snap *firestore.DocumentSnapshot) (*model.Offer, error) {
	var d offerDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	o := d.model()
	return &o, nil
}

func decodeOffers(snaps []*firestore.DocumentSnapshot) ([]model.Offer, error) {
	out := make([]model.Offer, 0, len(snaps))
	for _, snap := range snaps {
		o, err := decodeOffer(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}
