package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shinyyama/fleamarket-backend/internal/identity"
	"github.com/shinyyama/fleamarket-backend/internal/realtime"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/repository/repotest"
	"github.com/shinyyama/fleamarket-backend/internal/session"
	"github.com/shinyyama/fleamarket-backend/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ofKind(kind string) []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type env struct {
	listings      ListingService
	offers        OfferService
	conversations ConversationService
	reviews       ReviewService
	social        SocialService
	wishlist      WishlistService
	notifications NotificationService

	convRepo repository.ConversationRepository
	offerRepo repository.OfferRepository
	uploader  *storage.MemoryUploader
	pub       *recorder
}

func newEnv(t *testing.T) *env {
	gdb := repotest.Open(t)
	listingRepo := repository.NewListingRepository(gdb)
	offerRepo := repository.NewOfferRepository(gdb)
	convRepo := repository.NewConversationRepository(gdb)
	reviewRepo := repository.NewReviewRepository(gdb)
	dir := identity.NewStaticDirectory(
		identity.Profile{UID: "seller", DisplayName: "Sam"},
		identity.Profile{UID: "bob", DisplayName: "Bob"},
	)
	pub := &recorder{}
	up := storage.NewMemoryUploader("bucket")
	notifications := NewNotificationService(repository.NewNotificationRepository(gdb))
	return &env{
		listings: NewListingService(listingRepo, up, pub),
		offers: NewOfferService(OfferDeps{
			Listings:      listingRepo,
			Offers:        offerRepo,
			Conversations: convRepo,
			Directory:     dir,
			Notifier:      notifications,
			Publisher:     pub,
		}),
		conversations: NewConversationService(convRepo, dir, pub),
		reviews:       NewReviewService(reviewRepo),
		social:        NewSocialService(repository.NewFollowRepository(gdb), reviewRepo, dir),
		wishlist:      NewWishlistService(repository.NewWishlistRepository(gdb), listingRepo),
		notifications: notifications,
		convRepo:      convRepo,
		offerRepo:     offerRepo,
		uploader:      up,
		pub:           pub,
	}
}

func as(uid string) session.Session {
	return session.Session{UID: uid, DisplayName: uid}
}
