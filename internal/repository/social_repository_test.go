package repository_test

import (
	"context"
	"testing"

	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFollowRepository(repotest.Open(t))

	require.NoError(t, repo.Follow(ctx, "alice", "bob"))
	require.NoError(t, repo.Follow(ctx, "alice", "bob"))
	require.NoError(t, repo.Follow(ctx, "carol", "bob"))

	counts, err := repo.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, repository.FollowCounts{Followers: 2, Following: 0}, counts)

	ok, err := repo.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	followers, err := repo.ListFollowers(ctx, "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "carol"}, followers)

	require.NoError(t, repo.Unfollow(ctx, "alice", "bob"))
	require.NoError(t, repo.Unfollow(ctx, "alice", "bob"))
	following, err := repo.ListFollowing(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewWishlistRepository(repotest.Open(t))

	require.NoError(t, repo.Add(ctx, "alice", "l1"))
	require.NoError(t, repo.Add(ctx, "alice", "l1"))
	require.NoError(t, repo.Add(ctx, "alice", "l2"))

	ids, err := repo.ListIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"l1", "l2"}, ids)

	require.NoError(t, repo.Remove(ctx, "alice", "l1"))
	ids, err = repo.ListIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"l2"}, ids)
}

func TestNotificationsUnread(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewNotificationRepository(repotest.Open(t))

	for _, typ := range []string{model.NotificationOfferReceived, model.NotificationOfferWithdrawn} {
		require.NoError(t, repo.Create(ctx, &model.Notification{UserUID: "seller", Type: typ, Title: typ}))
	}
	require.NoError(t, repo.Create(ctx, &model.Notification{UserUID: "other", Type: model.NotificationOfferAccepted}))

	cnt, err := repo.CountUnread(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	require.NoError(t, repo.MarkAllRead(ctx, "seller"))
	unread, err := repo.ListByUser(ctx, "seller", true, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)
	all, err := repo.ListByUser(ctx, "seller", false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, n := range all {
		assert.NotNil(t, n.ReadAt)
	}

	cnt, err = repo.CountUnread(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
}
