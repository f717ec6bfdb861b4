package profile_test

import (
	"context"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/notify"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/service/profile"
	"github.com/oggyb/matchmaker/internal/testutil"
)

// fakeFCM records what would have been sent to Firebase.
type fakeFCM struct {
	mu   sync.Mutex
	sent []*messaging.Message
}

func (f *fakeFCM) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return "projects/test/messages/1", nil
}

func TestRegisterCreatesOnce(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	svc := profile.NewService(env.App)

	u, created, err := svc.Register(ctx, "uid-ana", profile.Details{Name: " Ana ", Age: 28, City: "Madrid", Photos: []string{"a1.jpg"}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "a1.jpg", u.FirstPhoto())

	// a second sign-in keeps the stored row
	u, created, err = svc.Register(ctx, "uid-ana", profile.Details{Name: "Someone else"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, int64(1), testutil.Count(t, env.DB, &db.User{}, ""))
}

func TestRegisterValidates(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	svc := profile.NewService(env.App)

	_, _, err := svc.Register(ctx, "uid-x", profile.Details{Name: "   "})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
	_, _, err = svc.Register(ctx, "uid-x", profile.Details{Name: "X", Age: 15})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
	_, _, err = svc.Register(ctx, "uid-x", profile.Details{Name: "X", Email: "not-an-email"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
	_, _, err = svc.Register(ctx, "", profile.Details{Name: "X"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
	assert.Zero(t, testutil.Count(t, env.DB, &db.User{}, ""))
}

// TestPushReachesStoredToken: the token saved through SetPushToken is the
// one FCM delivery addresses.
func TestPushReachesStoredToken(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	svc := profile.NewService(env.App)
	testutil.Users(t, env.DB, db.User{ID: "carlos", Name: "Carlos"})

	_, _, err := svc.Register(ctx, "ana", profile.Details{Name: "Ana"})
	require.NoError(t, err)

	fcm := &fakeFCM{}
	push := notify.NewPush(fcm, repository.NewUserRepository(env.DB))

	// no token yet: nothing is sent
	require.NoError(t, push.Notify(ctx, notify.NewLike("ana", "carlos")))
	assert.Empty(t, fcm.sent)

	require.NoError(t, svc.SetPushToken(ctx, "ana", " device-token-1 "))
	require.NoError(t, push.Notify(ctx, notify.NewLike("ana", "carlos")))
	require.Len(t, fcm.sent, 1)
	assert.Equal(t, "device-token-1", fcm.sent[0].Token)
	assert.Equal(t, string(notify.KindNewLike), fcm.sent[0].Data["type"])
	assert.Equal(t, "carlos", fcm.sent[0].Data["fromUserId"])

	// clearing the token stops delivery
	require.NoError(t, svc.SetPushToken(ctx, "ana", ""))
	require.NoError(t, push.Notify(ctx, notify.NewMatch("ana", "carlos", "m1")))
	assert.Len(t, fcm.sent, 1)
}

func TestSetPushTokenUnknownUser(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := profile.NewService(env.App)

	err := svc.SetPushToken(context.Background(), "ghost", "tok")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}
