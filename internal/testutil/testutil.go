// Package testutil wires throwaway infrastructure for package tests:
// a shared in-memory SQLite database and a miniredis instance.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
	"github.com/oggyb/matchmaker/internal/db"
	applog "github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/notify"
)

// NewDB opens an isolated in-memory SQLite database named after the test and
// migrates every model.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		Logger:  logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// one connection: shared-cache sqlite and concurrent writers don't mix
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { rc.Close() })
	return rc, mr
}

// Logger discards everything.
func Logger() *slog.Logger {
	return applog.Discard()
}

// Recorder is a Dispatcher that keeps every notification it receives.
// Set Err to make every call fail.
type Recorder struct {
	mu   sync.Mutex
	Sent []notify.Notification
	Err  error
}

func (r *Recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, n)
	return r.Err
}

// For returns the notifications addressed to user, optionally of one kind.
func (r *Recorder) For(user string, kind notify.Kind) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, n := range r.Sent {
		if n.UserID == user && (kind == "" || n.Kind == kind) {
			out = append(out, n)
		}
	}
	return out
}

// Env is a fully wired application context for service tests.
type Env struct {
	App      *app.AppContext
	DB       *gorm.DB
	Redis    *miniredis.Miniredis
	Notifier *Recorder
}

// NewEnv spins up SQLite + miniredis and wires them with a recording notifier.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	database := NewDB(t)
	rc, mr := NewRedis(t)
	rec := &Recorder{}

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.DB.Driver = "sqlite"

	return &Env{
		App:      app.New(cfg, database, rc, Logger(), rec),
		DB:       database,
		Redis:    mr,
		Notifier: rec,
	}
}

// Users inserts users with sequential created_at so ordering is stable.
func Users(t *testing.T, database *gorm.DB, users ...db.User) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	for i := range users {
		if users[i].CreatedAt.IsZero() {
			users[i].CreatedAt = base.Add(time.Duration(i) * time.Second)
		}
		if users[i].Email == "" {
			users[i].Email = users[i].ID + "@test.com"
		}
	}
	require.NoError(t, database.Create(&users).Error)
}

// Count returns the number of rows in model's table matching where.
func Count(t *testing.T, database *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := database.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
