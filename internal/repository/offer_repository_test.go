package repository_test

import (
	"context"
	"testing"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/repository/repotest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	listings repository.ListingRepository
	offers   repository.OfferRepository
	convs    repository.ConversationRepository
}

func newFixture(t *testing.T) fixture {
	gdb := repotest.Open(t)
	return fixture{
		listings: repository.NewListingRepository(gdb),
		offers:   repository.NewOfferRepository(gdb),
		convs:    repository.NewConversationRepository(gdb),
	}
}

func (f fixture) listing(t *testing.T, seller, price string) *model.Listing {
	l := &model.Listing{
		SellerUID:   seller,
		Name:        "Desk lamp",
		Description: "works",
		Price:       decimal.RequireFromString(price),
	}
	require.NoError(t, f.listings.Create(context.Background(), l))
	return l
}

func (f fixture) offer(t *testing.T, l *model.Listing, buyer, amount string) *model.Offer {
	o := &model.Offer{
		ListingID: l.ID,
		BuyerUID:  buyer,
		SellerUID: l.SellerUID,
		Amount:    decimal.RequireFromString(amount),
		Status:    model.OfferStatusPending,
	}
	require.NoError(t, f.offers.Create(context.Background(), o))
	return o
}

func TestOfferCreateWritesHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.listing(t, "seller", "100.00")
	o := f.offer(t, l, "buyer", "50.00")

	got, err := f.offers.FindByID(ctx, l.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusPending, got.Status)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("50")))

	pending, err := f.offers.FindPending(ctx, l.ID, "buyer")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, o.ID, pending.ID)

	none, err := f.offers.FindPending(ctx, l.ID, "someone-else")
	require.NoError(t, err)
	assert.Nil(t, none)

	hist, err := f.offers.History(ctx, l.ID, o.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, model.OfferStatus(""), hist[0].OldStatus)
	assert.Equal(t, model.OfferStatusPending, hist[0].NewStatus)
}

func TestAcceptRejectsCompetingOffers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.listing(t, "seller", "100.00")
	early := f.offer(t, l, "carol", "40.00")
	winner := f.offer(t, l, "bob", "50.00")
	other := f.listing(t, "seller", "10.00")
	untouched := f.offer(t, other, "dave", "5.00")

	cv := model.NewConversation("seller", "bob", nil)
	notice := &model.Message{SenderUID: model.SystemSenderUID, Body: "accepted", System: true, OfferID: &winner.ID}
	res, err := f.offers.Accept(ctx, repository.AcceptParams{
		ListingID:    l.ID,
		OfferID:      winner.ID,
		SellerUID:    "seller",
		Conversation: cv,
		Notice:       notice,
	})
	require.NoError(t, err)
	assert.True(t, res.Listing.IsSold)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, early.ID, res.Rejected[0].ID)

	stored, err := f.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSold)
	require.NotNil(t, stored.AcceptedOfferID)
	assert.Equal(t, winner.ID, *stored.AcceptedOfferID)

	all, err := f.offers.ListByListing(ctx, l.ID)
	require.NoError(t, err)
	accepted := 0
	for _, o := range all {
		switch o.ID {
		case winner.ID:
			assert.Equal(t, model.OfferStatusAccepted, o.Status)
			accepted++
		default:
			assert.Equal(t, model.OfferStatusRejected, o.Status)
		}
	}
	assert.Equal(t, 1, accepted)

	u, err := f.offers.FindByID(ctx, other.ID, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusPending, u.Status)

	msgs, err := f.convs.ListMessages(ctx, cv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].System)
	storedConv, err := f.convs.FindByID(ctx, cv.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", storedConv.LastMessage)

	hist, err := f.offers.History(ctx, l.ID, early.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, model.OfferStatusRejected, hist[1].NewStatus)
}

func TestAcceptAfterSaleChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.listing(t, "seller", "100.00")
	first := f.offer(t, l, "bob", "50.00")

	_, err := f.offers.Accept(ctx, repository.AcceptParams{ListingID: l.ID, OfferID: first.ID, SellerUID: "seller"})
	require.NoError(t, err)

	late := f.offer(t, l, "carol", "90.00")
	before, err := f.offers.ListByListing(ctx, l.ID)
	require.NoError(t, err)

	_, err = f.offers.Accept(ctx, repository.AcceptParams{ListingID: l.ID, OfferID: late.ID, SellerUID: "seller"})
	assert.ErrorIs(t, err, repository.ErrListingSold)
	_, err = f.offers.Accept(ctx, repository.AcceptParams{ListingID: l.ID, OfferID: first.ID, SellerUID: "seller"})
	assert.ErrorIs(t, err, repository.ErrListingSold)

	after, err := f.offers.ListByListing(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Status, after[i].Status)
	}
	stored, err := f.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *stored.AcceptedOfferID)
}

func TestAcceptGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.listing(t, "seller", "100.00")
	o := f.offer(t, l, "bob", "50.00")

	_, err := f.offers.Accept(ctx, repository.AcceptParams{ListingID: l.ID, OfferID: o.ID, SellerUID: "bob"})
	assert.ErrorIs(t, err, repository.ErrNotSeller)

	_, err = f.offers.Accept(ctx, repository.AcceptParams{ListingID: "missing", OfferID: o.ID, SellerUID: "seller"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.offers.Transition(ctx, l.ID, o.ID, model.OfferStatusWithdrawn, "bob")
	require.NoError(t, err)
	_, err = f.offers.Accept(ctx, repository.AcceptParams{ListingID: l.ID, OfferID: o.ID, SellerUID: "seller"})
	assert.ErrorIs(t, err, repository.ErrOfferNotPending)

	stored, err := f.listings.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSold)
}

func TestTransitionOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.listing(t, "seller", "100.00")
	rejected := f.offer(t, l, "carol", "40.00")
	accepted := f.offer(t, l, "bob", "50.00")

	got, err := f.offers.Transition(ctx, l.ID, rejected.ID, model.OfferStatusRejected, "seller")
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusRejected, got.Status)
	_, err = f.offers.Accept(ctx, repository.AcceptParams{ListingID: l.ID, OfferID: accepted.ID, SellerUID: "seller"})
	require.NoError(t, err)

	for _, id := range []string{rejected.ID, accepted.ID} {
		_, err := f.offers.Transition(ctx, l.ID, id, model.OfferStatusRejected, "seller")
		assert.ErrorIs(t, err, repository.ErrOfferNotPending)
	}
	_, err = f.offers.Transition(ctx, l.ID, "missing", model.OfferStatusRejected, "seller")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	hist, err := f.offers.History(ctx, l.ID, rejected.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestListByBuyer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.listing(t, "seller", "100.00")
	b := f.listing(t, "seller", "20.00")
	f.offer(t, a, "bob", "50.00")
	f.offer(t, b, "bob", "10.00")
	f.offer(t, b, "carol", "11.00")

	mine, err := f.offers.ListByBuyer(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, "bob", o.BuyerUID)
	}
}
