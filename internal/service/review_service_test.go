package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		uid  string
		in   ReviewInput
		want error
	}{
		{"self", "seller", ReviewInput{SellerUID: "seller", Rating: 5, Comment: "x"}, ErrSelfReview},
		{"rating low", "bob", ReviewInput{SellerUID: "seller", Rating: 0, Comment: "x"}, ErrInvalidRating},
		{"rating high", "bob", ReviewInput{SellerUID: "seller", Rating: 6, Comment: "x"}, ErrInvalidRating},
		{"blank comment", "bob", ReviewInput{SellerUID: "seller", Rating: 3, Comment: "  "}, ErrCommentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.reviews.Submit(ctx, as(tt.uid), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	agg, err := e.reviews.GetRating(ctx, "seller")
	require.NoError(t, err)
	assert.Zero(t, agg.RatingCount)
}

func TestReviewAggregate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, r := range []int{4, 5, 3} {
		_, _, err := e.reviews.Submit(ctx, as("bob"), ReviewInput{SellerUID: "seller", Rating: r, Comment: "fine", ListingID: "l1"})
		require.NoError(t, err)
	}
	agg, err := e.reviews.GetRating(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(12), agg.RatingSum)
	assert.Equal(t, int64(3), agg.RatingCount)
	assert.Equal(t, 4.0, agg.AverageRating)

	list, err := e.reviews.ListForSeller(ctx, "seller", 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.NotNil(t, list[0].ListingID)
}
