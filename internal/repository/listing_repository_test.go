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

func TestListingCreateAndImages(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewListingRepository(repotest.Open(t))

	l := &model.Listing{
		SellerUID: "seller",
		Name:      "Road bike",
		Price:     decimal.RequireFromString("250.5"),
		Images:    []model.ListingImage{{ImageURL: "https://img/1"}, {ImageURL: "https://img/2"}},
	}
	require.NoError(t, repo.Create(ctx, l))
	require.NotEmpty(t, l.ID)

	img, err := repo.AddImage(ctx, l.ID, "https://img/3")
	require.NoError(t, err)
	assert.Equal(t, 2, img.Position)

	got, err := repo.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img/1", "https://img/2", "https://img/3"}, got.ImageURLs())
	assert.True(t, got.Price.Equal(decimal.RequireFromString("250.50")))

	_, err = repo.AddImage(ctx, "missing", "https://img/x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListingListFilters(t *testing.T) {
	ctx := context.Background()
	gdb := repotest.Open(t)
	repo := repository.NewListingRepository(gdb)

	seed := []model.Listing{
		{SellerUID: "s1", Name: "Blue Chair", Category: "furniture", Price: decimal.NewFromInt(10)},
		{SellerUID: "s1", Name: "Red chair", Category: "furniture", Price: decimal.NewFromInt(12)},
		{SellerUID: "s2", Name: "Guitar", Category: "music", Price: decimal.NewFromInt(80)},
		{SellerUID: "s2", Name: "Sold chair", Category: "furniture", Price: decimal.NewFromInt(5), IsSold: true},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	tests := []struct {
		name  string
		f     repository.ListingFilter
		total int64
	}{
		{"unsold only", repository.ListingFilter{Limit: 20}, 3},
		{"include sold", repository.ListingFilter{Limit: 20, IncludeSold: true}, 4},
		{"category", repository.ListingFilter{Limit: 20, Category: "furniture"}, 2},
		{"query case insensitive", repository.ListingFilter{Limit: 20, Query: "CHAIR", IncludeSold: true}, 3},
		{"seller", repository.ListingFilter{Limit: 20, SellerUID: "s2", IncludeSold: true}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.List(ctx, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
		})
	}

	page, total, err := repo.List(ctx, repository.ListingFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)

	byIDs, err := repo.FindByIDs(ctx, []string{seed[0].ID, seed[2].ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}
