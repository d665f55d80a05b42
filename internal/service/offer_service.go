package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shinyyama/fleamarket-backend/internal/ai"
	"github.com/shinyyama/fleamarket-backend/internal/identity"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/realtime"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

type OfferService interface {
	Submit(ctx context.Context, sess session.Session, listingID, amount string, announce bool) (*model.Offer, error)
	Accept(ctx context.Context, sess session.Session, listingID, offerID string) (*repository.AcceptResult, error)
	Reject(ctx context.Context, sess session.Session, listingID, offerID string) (*model.Offer, error)
	Withdraw(ctx context.Context, sess session.Session, listingID, offerID string) (*model.Offer, error)
	ListForListing(ctx context.Context, sess session.Session, listingID string) ([]model.Offer, error)
	ListMine(ctx context.Context, sess session.Session) ([]model.Offer, error)
	History(ctx context.Context, sess session.Session, listingID, offerID string) ([]model.OfferEvent, error)
	Snapshot(ctx context.Context, sess session.Session, listingID string) (*ListingSnapshot, error)
	Advise(ctx context.Context, sess session.Session, listingID, offerID, strategy string) (*ai.Advice, error)
}

type OfferDeps struct {
	Listings      repository.ListingRepository
	Offers        repository.OfferRepository
	Conversations repository.ConversationRepository
	Directory     identity.Directory
	Notifier      NotificationService
	Publisher     Publisher
	Advisor       ai.OfferAdvisor
}

type offerService struct {
	listings repository.ListingRepository
	offers   repository.OfferRepository
	chat     *chat
	notifier NotificationService
	pub      Publisher
	advisor  ai.OfferAdvisor
}

func NewOfferService(d OfferDeps) OfferService {
	return &offerService{
		listings: d.Listings,
		offers:   d.Offers,
		chat:     newChat(d.Conversations, d.Directory, d.Publisher),
		notifier: d.Notifier,
		pub:      d.Publisher,
		advisor:  d.Advisor,
	}
}

func (s *offerService) Submit(ctx context.Context, sess session.Session, listingID, amount string, announce bool) (*model.Offer, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerUID == sess.UID {
		return nil, ErrSelfOffer
	}
	if l.IsSold {
		return nil, ErrListingSold
	}
	// Advisory only: two concurrent submissions can both pass.
	existing, err := s.offers.FindPending(ctx, l.ID, sess.UID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateOffer
	}

	o := &model.Offer{
		ListingID: l.ID,
		BuyerUID:  sess.UID,
		SellerUID: l.SellerUID,
		Amount:    amt,
		Status:    model.OfferStatusPending,
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, err
	}
	log.Printf("[offer] rid=%s stage=submitted listing=%s offer=%s buyer=%s amount=%s", reqctx.RID(ctx), l.ID, o.ID, o.BuyerUID, o.Amount.StringFixed(2))
	publishOffer(ctx, s.pub, realtime.EventAdded, o)

	s.notify(ctx, &model.Notification{
		UserUID:   l.SellerUID,
		Type:      model.NotificationOfferReceived,
		Title:     "New offer",
		Body:      fmt.Sprintf("%s offered %s for %s", sess.Name(), o.Amount.StringFixed(2), l.Name),
		ListingID: strPtr(l.ID),
		OfferID:   strPtr(o.ID),
	})
	if announce {
		s.chat.postSystem(ctx, sess, l.SellerUID,
			fmt.Sprintf("Offer of %s submitted on %s", o.Amount.StringFixed(2), l.Name), o.ID)
	}
	return o, nil
}

func (s *offerService) Accept(ctx context.Context, sess session.Session, listingID, offerID string) (*repository.AcceptResult, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerUID != sess.UID {
		return nil, ErrForbidden
	}
	o, err := s.offers.FindByID(ctx, listingID, offerID)
	if err != nil {
		return nil, err
	}
	cv := s.chat.conversation(ctx, sess, o.BuyerUID)
	notice := systemMessage(fmt.Sprintf("Your offer of %s on %s was accepted", o.Amount.StringFixed(2), l.Name), o.ID)

	res, err := s.offers.Accept(ctx, repository.AcceptParams{
		ListingID:    listingID,
		OfferID:      offerID,
		SellerUID:    sess.UID,
		Conversation: cv,
		Notice:       notice,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotSeller) {
			return nil, ErrForbidden
		}
		log.Printf("[offer] rid=%s stage=accept_fail listing=%s offer=%s err=%v", reqctx.RID(ctx), listingID, offerID, err)
		return nil, err
	}
	log.Printf("[offer] rid=%s stage=accepted listing=%s offer=%s auto_rejected=%d", reqctx.RID(ctx), listingID, offerID, len(res.Rejected))

	publishListing(ctx, s.pub, realtime.EventModified, res.Listing)
	publishOffer(ctx, s.pub, realtime.EventModified, res.Offer)
	publishMessage(ctx, s.pub, cv, notice)
	s.notify(ctx, &model.Notification{
		UserUID:        res.Offer.BuyerUID,
		Type:           model.NotificationOfferAccepted,
		Title:          "Offer accepted",
		Body:           notice.Body,
		ListingID:      strPtr(listingID),
		OfferID:        strPtr(offerID),
		ConversationID: strPtr(cv.ID),
	})
	for i := range res.Rejected {
		r := &res.Rejected[i]
		publishOffer(ctx, s.pub, realtime.EventModified, r)
		s.notify(ctx, &model.Notification{
			UserUID:   r.BuyerUID,
			Type:      model.NotificationOfferRejected,
			Title:     "Offer declined",
			Body:      fmt.Sprintf("%s was sold to another buyer", l.Name),
			ListingID: strPtr(listingID),
			OfferID:   strPtr(r.ID),
		})
	}
	return res, nil
}

func (s *offerService) Reject(ctx context.Context, sess session.Session, listingID, offerID string) (*model.Offer, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerUID != sess.UID {
		return nil, ErrForbidden
	}
	o, err := s.offers.Transition(ctx, listingID, offerID, model.OfferStatusRejected, sess.UID)
	if err != nil {
		return nil, err
	}
	log.Printf("[offer] rid=%s stage=rejected listing=%s offer=%s", reqctx.RID(ctx), listingID, offerID)
	publishOffer(ctx, s.pub, realtime.EventModified, o)

	body := fmt.Sprintf("Your offer of %s on %s was declined", o.Amount.StringFixed(2), l.Name)
	s.chat.postSystem(ctx, sess, o.BuyerUID, body, o.ID)
	s.notify(ctx, &model.Notification{
		UserUID:   o.BuyerUID,
		Type:      model.NotificationOfferRejected,
		Title:     "Offer declined",
		Body:      body,
		ListingID: strPtr(listingID),
		OfferID:   strPtr(o.ID),
	})
	return o, nil
}

func (s *offerService) Withdraw(ctx context.Context, sess session.Session, listingID, offerID string) (*model.Offer, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	o, err := s.offers.FindByID(ctx, listingID, offerID)
	if err != nil {
		return nil, err
	}
	if o.BuyerUID != sess.UID {
		return nil, ErrForbidden
	}
	o, err = s.offers.Transition(ctx, listingID, offerID, model.OfferStatusWithdrawn, sess.UID)
	if err != nil {
		return nil, err
	}
	log.Printf("[offer] rid=%s stage=withdrawn listing=%s offer=%s", reqctx.RID(ctx), listingID, offerID)
	publishOffer(ctx, s.pub, realtime.EventModified, o)

	name := listingID
	if l, err := s.listings.FindByID(ctx, listingID); err == nil {
		name = l.Name
	}
	body := fmt.Sprintf("Offer of %s on %s was withdrawn", o.Amount.StringFixed(2), name)
	s.chat.postSystem(ctx, sess, o.SellerUID, body, o.ID)
	s.notify(ctx, &model.Notification{
		UserUID:   o.SellerUID,
		Type:      model.NotificationOfferWithdrawn,
		Title:     "Offer withdrawn",
		Body:      body,
		ListingID: strPtr(listingID),
		OfferID:   strPtr(o.ID),
	})
	return o, nil
}

// ListForListing returns every offer to the seller and only their own offers to anyone else.
func (s *offerService) ListForListing(ctx context.Context, sess session.Session, listingID string) ([]model.Offer, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	all, err := s.offers.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return visibleOffers(l, all, sess.UID), nil
}

func visibleOffers(l *model.Listing, all []model.Offer, uid string) []model.Offer {
	if l.SellerUID == uid {
		return all
	}
	out := make([]model.Offer, 0, len(all))
	for _, o := range all {
		if o.BuyerUID == uid {
			out = append(out, o)
		}
	}
	return out
}

func (s *offerService) ListMine(ctx context.Context, sess session.Session) ([]model.Offer, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.offers.ListByBuyer(ctx, sess.UID)
}

func (s *offerService) History(ctx context.Context, sess session.Session, listingID, offerID string) ([]model.OfferEvent, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	o, err := s.offers.FindByID(ctx, listingID, offerID)
	if err != nil {
		return nil, err
	}
	if o.BuyerUID != sess.UID && o.SellerUID != sess.UID {
		return nil, ErrForbidden
	}
	return s.offers.History(ctx, listingID, offerID)
}

func (s *offerService) Snapshot(ctx context.Context, sess session.Session, listingID string) (*ListingSnapshot, error) {
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	all, err := s.offers.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	snap := &ListingSnapshot{Listing: NewListingView(l), Offers: []OfferView{}}
	for _, o := range visibleOffers(l, all, sess.UID) {
		snap.Offers = append(snap.Offers, NewOfferView(&o))
	}
	return snap, nil
}

func (s *offerService) Advise(ctx context.Context, sess session.Session, listingID, offerID, strategy string) (*ai.Advice, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if s.advisor == nil {
		return nil, ai.ErrNotConfigured
	}
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerUID != sess.UID {
		return nil, ErrForbidden
	}
	o, err := s.offers.FindByID(ctx, listingID, offerID)
	if err != nil {
		return nil, err
	}
	if o.Status != model.OfferStatusPending {
		return nil, ErrOfferNotPending
	}
	all, err := s.offers.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	others := 0
	for _, x := range all {
		if x.ID != o.ID && x.Status == model.OfferStatusPending {
			others++
		}
	}
	return s.advisor.Advise(reqctx.WithListingID(ctx, listingID), ai.AdviceInput{
		ListingName:  l.Name,
		Description:  l.Description,
		ListingPrice: l.Price,
		OfferAmount:  o.Amount,
		OtherOffers:  others,
		Strategy:     strategy,
	})
}

func (s *offerService) notify(ctx context.Context, n *model.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}
