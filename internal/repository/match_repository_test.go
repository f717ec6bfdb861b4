package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/pair"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/testutil"
)

func TestCreateIfAbsentIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	matches := repository.NewMatchRepository(dbase)

	m1, created, err := matches.CreateIfAbsent(ctx, "carlos", "ana", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, pair.Sorted("ana", "carlos"), m1.ID)
	assert.Equal(t, [2]string{"ana", "carlos"}, m1.Users())
	assert.False(t, m1.HasMessages)

	m2, created, err := matches.CreateIfAbsent(ctx, "ana", "carlos", "admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m1.ID, m2.ID)
	// the existing row wins
	assert.Empty(t, m2.ForcedBy)

	assert.Equal(t, int64(1), testutil.Count(t, dbase, &db.Match{}, ""))
	assert.Equal(t, int64(1), testutil.Count(t, dbase, &db.Chat{}, "id = ?", m1.ID))
}

func TestMarkActiveIsOneWay(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	matches := repository.NewMatchRepository(dbase)

	m, _, err := matches.CreateIfAbsent(ctx, "ana", "carlos", "")
	require.NoError(t, err)

	n, err := matches.MarkActive(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = matches.MarkActive(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := matches.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.HasMessages)
}

func TestDeleteWithConversation(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	matches := repository.NewMatchRepository(dbase)
	messages := repository.NewMessageRepository(dbase)

	m, _, err := matches.CreateIfAbsent(ctx, "ana", "carlos", "")
	require.NoError(t, err)
	other, _, err := matches.CreateIfAbsent(ctx, "ana", "david", "")
	require.NoError(t, err)

	require.NoError(t, messages.Create(ctx, &db.Message{MatchID: m.ID, SenderID: "ana", Content: "hola"}))
	require.NoError(t, messages.Create(ctx, &db.Message{MatchID: other.ID, SenderID: "ana", Content: "hey"}))

	n, err := matches.DeleteWithConversation(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = matches.Get(ctx, m.ID)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
	assert.Zero(t, testutil.Count(t, dbase, &db.Chat{}, "id = ?", m.ID))
	assert.Zero(t, testutil.Count(t, dbase, &db.Message{}, "match_id = ?", m.ID))
	assert.Equal(t, int64(1), testutil.Count(t, dbase, &db.Message{}, "match_id = ?", other.ID))

	// idempotent
	n, err = matches.DeleteWithConversation(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestForUserListsBothSlots(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	matches := repository.NewMatchRepository(dbase)

	_, _, _ = matches.CreateIfAbsent(ctx, "ana", "carlos", "")
	_, _, _ = matches.CreateIfAbsent(ctx, "zoe", "carlos", "")
	_, _, _ = matches.CreateIfAbsent(ctx, "ana", "zoe", "")

	got, err := matches.ForUser(ctx, "carlos")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, m := range got {
		assert.True(t, m.Has("carlos"))
	}
}

func TestChatRecordMessageCountsUnread(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	matches := repository.NewMatchRepository(dbase)
	chats := repository.NewChatRepository(dbase)

	m, _, err := matches.CreateIfAbsent(ctx, "ana", "carlos", "")
	require.NoError(t, err)
	scaffold := db.Chat{ID: m.ID, UserA: m.UserA, UserB: m.UserB}

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, chats.RecordMessage(ctx, scaffold, "ana", "hola", now))
	require.NoError(t, chats.RecordMessage(ctx, scaffold, "ana", "¿qué tal?", now.Add(time.Second)))

	c, err := chats.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.UnreadCount)
	assert.Equal(t, "¿qué tal?", c.LastMessage)

	// reply restarts the counter for the other side
	require.NoError(t, chats.RecordMessage(ctx, scaffold, "carlos", "bien", now.Add(2*time.Second)))
	c, _ = chats.Get(ctx, m.ID)
	assert.Equal(t, 1, c.UnreadCount)
	assert.Equal(t, "carlos", c.LastSenderID)

	// the sender reading does not clear the counter meant for ana
	require.NoError(t, chats.ResetUnread(ctx, m.ID, "carlos"))
	c, _ = chats.Get(ctx, m.ID)
	assert.Equal(t, 1, c.UnreadCount)

	require.NoError(t, chats.ResetUnread(ctx, m.ID, "ana"))
	c, _ = chats.Get(ctx, m.ID)
	assert.Zero(t, c.UnreadCount)
}
