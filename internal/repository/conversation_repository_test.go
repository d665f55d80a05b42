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

func TestConversationUpsertMergesDetails(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(repotest.Open(t))

	first, err := repo.Upsert(ctx, model.NewConversation("bob", "alice", model.ParticipantDetails{
		"alice": {DisplayName: "Alice"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "alice_bob", first.ID)

	second, err := repo.Upsert(ctx, model.NewConversation("alice", "bob", model.ParticipantDetails{
		"bob": {DisplayName: "Bob", PhotoURL: "https://p/bob"},
	}))
	require.NoError(t, err)
	details := second.ParticipantDetails.Data()
	assert.Equal(t, "Alice", details["alice"].DisplayName)
	assert.Equal(t, "https://p/bob", details["bob"].PhotoURL)
}

func TestAppendMessageMovesLastMessage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(repotest.Open(t))
	cv := model.NewConversation("alice", "bob", nil)

	require.NoError(t, repo.AppendMessage(ctx, cv, &model.Message{SenderUID: "alice", Body: "hi"}))
	require.NoError(t, repo.AppendMessage(ctx, cv, &model.Message{SenderUID: "bob", Body: "hello"}))

	stored, err := repo.FindByID(ctx, cv.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.LastMessage)
	assert.Equal(t, "bob", stored.LastSenderUID)
	require.NotNil(t, stored.LastMessageAt)

	msgs, err := repo.ListMessages(ctx, cv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, "hello", msgs[1].Body)

	mine, err := repo.ListByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	none, err := repo.ListByUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConversationPairsWithSeparatorStayApart(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(repotest.Open(t))

	first, err := repo.Upsert(ctx, model.NewConversation("a_b", "c", nil))
	require.NoError(t, err)

	other := model.NewConversation("a", "b_c", nil)
	require.NotEqual(t, first.ID, other.ID)
	require.NoError(t, repo.AppendMessage(ctx, other, &model.Message{
		SenderUID: model.SystemSenderUID,
		Body:      "Offer of 50.00 submitted on Lamp",
		System:    true,
	}))

	stored, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "a_b", stored.ParticipantA)
	assert.Empty(t, stored.LastMessage)
	msgs, err := repo.ListMessages(ctx, first.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	created, err := repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", created.ParticipantA)
	assert.Equal(t, "b_c", created.ParticipantB)
	assert.Equal(t, "Offer of 50.00 submitted on Lamp", created.LastMessage)
}

func TestUpsertRejectsParticipantMismatch(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(repotest.Open(t))

	cv, err := repo.Upsert(ctx, model.NewConversation("alice", "bob", nil))
	require.NoError(t, err)

	forged := model.NewConversation("alice", "mallory", nil)
	forged.ID = cv.ID
	_, err = repo.Upsert(ctx, forged)
	assert.ErrorIs(t, err, repository.ErrConflict)
}
