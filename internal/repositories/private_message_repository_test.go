package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/models"
)

func TestMatchIsOrderIndependent(t *testing.T) {
	repo := NewMatchRepo(requireDB(t))
	ctx := context.Background()

	first, err := repo.CreateOrGetMatch(ctx, "bob", "alice", models.MatchViaDaily)
	require.NoError(t, err)
	assert.Equal(t, "alice", first.User1ID)
	assert.Equal(t, "bob", first.User2ID)

	second, err := repo.CreateOrGetMatch(ctx, "alice", "bob", models.MatchViaAskOut)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = repo.CreateOrGetMatch(ctx, "alice", "alice", models.MatchViaDaily)
	require.ErrorIs(t, err, ErrSelfMatch)

	got, err := repo.GetMatch(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchViaDaily, got.Via)
	matches, err := repo.ListForUser(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	conn := requireDB(t)
	ctx := context.Background()
	match, err := NewMatchRepo(conn).CreateOrGetMatch(ctx, "alice", "bob", models.MatchViaMutualSecret)
	require.NoError(t, err)
	repo := NewPrivateMessageRepo(conn)

	for _, text := range []string{"a1", "a2"} {
		_, err := repo.Append(ctx, models.Message{SurfaceID: match.ID, SenderID: "alice", RecipientID: strPtr("bob"), CipherText: strPtr(text), IV: strPtr("iv"), Delivered: true})
		require.NoError(t, err)
	}
	_, err = repo.Append(ctx, models.Message{SurfaceID: match.ID, SenderID: "bob", RecipientID: strPtr("alice"), ImageURL: strPtr("/uploads/b.png"), Delivered: true})
	require.NoError(t, err)

	unseen, err := repo.CountUnseen(ctx, match.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, unseen)

	marked, err := repo.MarkSeen(ctx, match.ID, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)
	before, err := repo.ListOrdered(ctx, match.ID)
	require.NoError(t, err)

	marked, err = repo.MarkSeen(ctx, match.ID, "bob")
	require.NoError(t, err)
	assert.Zero(t, marked)
	after, err := repo.ListOrdered(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.Len(t, after, 3)
	for _, m := range after[:2] {
		assert.True(t, m.Delivered)
		assert.True(t, m.Seen)
		require.NotNil(t, m.SeenAt)
	}
	assert.False(t, after[2].Seen, "messages addressed to the other participant stay unseen")
	assert.Nil(t, after[2].SeenAt)

	unseen, err = repo.CountUnseen(ctx, match.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, unseen)
}

func TestPrivateMessageRequiresPayload(t *testing.T) {
	conn := requireDB(t)
	ctx := context.Background()
	match, err := NewMatchRepo(conn).CreateOrGetMatch(ctx, "alice", "bob", models.MatchViaDaily)
	require.NoError(t, err)

	_, err = NewPrivateMessageRepo(conn).Append(ctx, models.Message{SurfaceID: match.ID, SenderID: "alice", RecipientID: strPtr("bob")})
	require.Error(t, err)

	_, err = NewPrivateMessageRepo(conn).Latest(ctx, match.ID)
	require.ErrorIs(t, err, ErrMessageNotFound)
}
