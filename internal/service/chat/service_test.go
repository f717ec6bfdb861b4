package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/notify"
	"github.com/oggyb/matchmaker/internal/service/chat"
	"github.com/oggyb/matchmaker/internal/service/match"
	"github.com/oggyb/matchmaker/internal/testutil"
)

func setupService(t *testing.T) (*chat.Service, *match.Service, *testutil.Env, string) {
	t.Helper()

	env := testutil.NewEnv(t)
	testutil.Users(t, env.DB,
		db.User{ID: "ana", Name: "Ana"},
		db.User{ID: "carlos", Name: "Carlos"},
		db.User{ID: "david", Name: "David"},
	)
	matches := match.NewService(env.App)
	id, _, err := matches.CreateMatch(context.Background(), "ana", "carlos", "")
	require.NoError(t, err)

	return chat.NewService(env.App, matches), matches, env, id
}

func TestSendMessageActivatesMatch(t *testing.T) {
	ctx := context.Background()
	svc, matches, env, id := setupService(t)

	msg, err := svc.SendMessage(ctx, id, "ana", "  hola  ")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hola", msg.Content)

	m, err := matches.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.True(t, m.HasMessages)
	assert.Equal(t, "hola", m.LastMessage)

	pending, err := matches.GetPendingMatches(ctx, "carlos")
	require.NoError(t, err)
	assert.Empty(t, pending)

	got := env.Notifier.For("carlos", notify.KindNewMessage)
	require.Len(t, got, 1)
	assert.Equal(t, "hola", got[0].Body)
	assert.Empty(t, env.Notifier.For("ana", notify.KindNewMessage))
}

func TestSendMessageRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _, id := setupService(t)

	_, err := svc.SendMessage(ctx, id, "david", "hi")
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)

	_, err = svc.SendMessage(ctx, id, "ana", "   ")
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = svc.SendMessage(ctx, id, "ana", strings.Repeat("a", chat.MaxMessageLength+1))
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = svc.SendMessage(ctx, "missing", "ana", "hi")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestUnreadAndMarkRead(t *testing.T) {
	ctx := context.Background()
	svc, _, _, id := setupService(t)

	for _, text := range []string{"uno", "dos", "tres"} {
		_, err := svc.SendMessage(ctx, id, "ana", text)
		require.NoError(t, err)
	}

	n, err := svc.UnreadCount(ctx, "carlos")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	chats, err := svc.GetUserChats(ctx, "carlos")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, 3, chats[0].UnreadCount)
	assert.Equal(t, "tres", chats[0].LastMessage)
	assert.Equal(t, "ana", chats[0].LastSenderID)

	// the sender reading changes nothing
	read, err := svc.MarkMessagesAsRead(ctx, id, "ana")
	require.NoError(t, err)
	assert.Zero(t, read)

	read, err = svc.MarkMessagesAsRead(ctx, id, "carlos")
	require.NoError(t, err)
	assert.Equal(t, int64(3), read)

	n, err = svc.UnreadCount(ctx, "carlos")
	require.NoError(t, err)
	assert.Zero(t, n)

	chats, err = svc.GetUserChats(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Zero(t, chats[0].UnreadCount)
}

func TestGetMessagesHidesDeleted(t *testing.T) {
	ctx := context.Background()
	svc, _, _, id := setupService(t)

	first, err := svc.SendMessage(ctx, id, "ana", "hola")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, id, "carlos", "qué tal")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteMessage(ctx, first.ID, "carlos"), svcErr.ErrPermissionDenied)
	require.NoError(t, svc.DeleteMessage(ctx, first.ID, "ana"))

	msgs, err := svc.GetMessages(ctx, id, "carlos")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "qué tal", msgs[0].Content)

	_, err = svc.GetMessages(ctx, id, "david")
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)
}

func TestSubscribeReceivesNewMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, _, _, id := setupService(t)

	sub, err := svc.Subscribe(ctx, id, "carlos")
	require.NoError(t, err)
	defer sub.Close()

	sent, err := svc.SendMessage(ctx, id, "ana", "¿estás?")
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, sent.ID, ev.ID)
		assert.Equal(t, "ana", ev.SenderID)
		assert.Equal(t, "¿estás?", ev.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, sub.Close())
}

func TestSubscribeRequiresParticipant(t *testing.T) {
	svc, _, _, id := setupService(t)

	_, err := svc.Subscribe(context.Background(), id, "david")
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)
}
