package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowAndProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.social.Follow(ctx, as("bob"), "bob"), ErrSelfFollow)
	require.NoError(t, e.social.Follow(ctx, as("bob"), "seller"))
	require.NoError(t, e.social.Follow(ctx, as("bob"), "seller"))

	ok, err := e.social.IsFollowing(ctx, as("bob"), "seller")
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = e.reviews.Submit(ctx, as("bob"), ReviewInput{SellerUID: "seller", Rating: 5, Comment: "great"})
	require.NoError(t, err)

	p, err := e.social.Profile(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, "Sam", p.DisplayName)
	assert.Equal(t, int64(1), p.Followers)
	assert.Equal(t, 5.0, p.Rating.AverageRating)

	require.NoError(t, e.social.Unfollow(ctx, as("bob"), "seller"))
	followers, err := e.social.Followers(ctx, "seller")
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestWishlist(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newListing(t, "seller", "10")
	b := e.newListing(t, "seller", "20")

	require.NoError(t, e.wishlist.Add(ctx, as("bob"), a.ID))
	require.NoError(t, e.wishlist.Add(ctx, as("bob"), b.ID))
	require.NoError(t, e.wishlist.Add(ctx, as("bob"), b.ID))
	assert.ErrorIs(t, e.wishlist.Add(ctx, as("bob"), "missing"), ErrNotFound)

	list, err := e.wishlist.List(ctx, as("bob"))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, e.wishlist.Remove(ctx, as("bob"), a.ID))
	list, err = e.wishlist.List(ctx, as("bob"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}
