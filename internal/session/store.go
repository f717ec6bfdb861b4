package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/repository"
)

// TTL bounds how long a session copy can drift from the user row when no
// explicit Refresh happens.
const TTL = 15 * time.Minute

// Store caches Session values in Redis, loading from the users table on a miss.
type Store struct {
	cache *cache.RedisCache
	users *repository.UserRepository
	log   *slog.Logger
}

func NewStore(rc *cache.RedisCache, users *repository.UserRepository, log *slog.Logger) *Store {
	return &Store{cache: rc, users: users, log: log}
}

// Load returns the session for userID. Unknown users map to ErrNotFound.
func (s *Store) Load(ctx context.Context, userID string) (Session, error) {
	var sess Session
	ok, err := s.cache.GetJSON(ctx, s.cache.KeyForSession(userID), &sess)
	if err != nil {
		// cache trouble falls back to the database
		s.log.Warn("session cache read failed", "user", userID, "err", err)
	}
	if ok {
		return sess, nil
	}
	return s.Refresh(ctx, userID)
}

// Refresh reloads userID from the database and rewrites the cached copy.
// Called after verification and ban mutations.
func (s *Store) Refresh(ctx context.Context, userID string) (Session, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		_ = s.cache.Del(ctx, s.cache.KeyForSession(userID))
		return Session{}, err
	}
	sess := FromUser(u)
	if err := s.cache.SetJSON(ctx, s.cache.KeyForSession(userID), sess, TTL); err != nil {
		s.log.Warn("session cache write failed", "user", userID, "err", err)
	}
	return sess, nil
}

// Forget drops the cached copy, e.g. after the user was deleted.
func (s *Store) Forget(ctx context.Context, userID string) error {
	return s.cache.Del(ctx, s.cache.KeyForSession(userID))
}

// FromUser builds a session from a user row.
func FromUser(u *db.User) Session {
	return Session{
		UserID:          u.ID,
		Name:            u.Name,
		IsAdmin:         u.IsAdmin,
		IsBanned:        u.IsBanned,
		IsVerified:      u.IsVerified,
		IsSuperVerified: u.IsSuperVerified,
	}
}
