package marketclient_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shinyyama/fleamarket-backend/internal/identity"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/repository/repotest"
	"github.com/shinyyama/fleamarket-backend/internal/server"
	"github.com/shinyyama/fleamarket-backend/internal/storage"
	"github.com/shinyyama/fleamarket-backend/pkg/marketclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seller = marketclient.Session{UID: "seller", DisplayName: "Sally"}
	buyer  = marketclient.Session{UID: "buyer", DisplayName: "Bob"}
)

func newClient(t *testing.T) *marketclient.Client {
	t.Helper()
	srv := server.New(server.Deps{
		Repos:     repository.NewGormSet(repotest.Open(t)),
		Auth:      appmw.NewHeaderAuth(),
		Directory: identity.NewStaticDirectory(),
		Uploader:  storage.NewMemoryUploader("test"),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return marketclient.New(ts.URL, marketclient.WithHTTPClient(ts.Client()))
}

func TestOfferFlow(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	l, err := c.CreateListing(ctx, seller, marketclient.NewListing{Name: "Kettle", Description: "1.2L", Price: "30"})
	require.NoError(t, err)
	assert.Equal(t, "30.00", l.Price)

	o, err := c.SubmitOffer(ctx, buyer, l.ID, "25", false)
	require.NoError(t, err)
	assert.Equal(t, "pending", o.Status)

	_, err = c.SubmitOffer(ctx, seller, l.ID, "25", false)
	assert.True(t, marketclient.IsCode(err, "self_offer"), "%v", err)

	acc, err := c.AcceptOffer(ctx, seller, l.ID, o.ID)
	require.NoError(t, err)
	assert.True(t, acc.Listing.IsSold)
	assert.Equal(t, "accepted", acc.Offer.Status)

	_, err = c.WithdrawOffer(ctx, buyer, l.ID, o.ID)
	var apiErr *marketclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	mine, err := c.MyOffers(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "accepted", mine[0].Status)

	hist, err := c.OfferHistory(ctx, buyer, l.ID, o.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "accepted", hist[1].NewStatus)

	page, err := c.ListListings(ctx, buyer, marketclient.ListingQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Listings)

	_, err = c.OfferAdvice(ctx, seller, l.ID, o.ID, "balanced")
	assert.True(t, marketclient.IsCode(err, "ai_unavailable"), "%v", err)
}

func TestSubscribeListing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := newClient(t)

	l, err := c.CreateListing(ctx, seller, marketclient.NewListing{Name: "Tent", Price: "80"})
	require.NoError(t, err)

	stream, snap, err := c.SubscribeListing(ctx, seller, l.ID)
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, l.ID, snap.Listing.ID)
	assert.Empty(t, snap.Offers)

	o, err := c.SubmitOffer(ctx, buyer, l.ID, "70", false)
	require.NoError(t, err)

	select {
	case ev, ok := <-stream.Events():
		require.True(t, ok)
		assert.Equal(t, "added", ev.Type)
		assert.Equal(t, o.ID, ev.ID)
		var got marketclient.Offer
		require.NoError(t, json.Unmarshal(ev.Data, &got))
		assert.Equal(t, "70.00", got.Amount)
	case <-ctx.Done():
		t.Fatal("no delta received")
	}
}

func TestChat(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	cv, err := c.OpenConversation(ctx, buyer, seller.UID)
	require.NoError(t, err)
	assert.Equal(t, "buyer_seller", cv.ID)

	_, err = c.SendMessage(ctx, buyer, cv.ID, "is it still available?")
	require.NoError(t, err)
	msgs, err := c.Messages(ctx, seller, cv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "buyer", msgs[0].SenderUID)
	assert.False(t, msgs[0].System)

	_, err = c.Messages(ctx, marketclient.Session{UID: "stranger"}, cv.ID)
	assert.True(t, marketclient.IsCode(err, "forbidden"), "%v", err)
}

func TestFollowTracker(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	tr := marketclient.NewFollowTracker(c, buyer)

	require.NoError(t, tr.Follow(ctx, "seller"))
	assert.True(t, tr.IsFollowing("seller"))

	// following yourself fails remotely and is rolled back
	require.Error(t, tr.Follow(ctx, "buyer"))
	assert.False(t, tr.IsFollowing("buyer"))

	fresh := marketclient.NewFollowTracker(c, buyer)
	require.NoError(t, fresh.Load(ctx))
	assert.True(t, fresh.IsFollowing("seller"))

	require.NoError(t, tr.Unfollow(ctx, "seller"))
	assert.False(t, tr.IsFollowing("seller"))
}
