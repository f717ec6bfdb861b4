package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// UserRepository provides data access for profiles.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get loads a user. A missing row maps to ErrNotFound.
func (r *UserRepository) Get(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, svcErr.Store(err)
	}
	return &u, nil
}

// GetMany loads the given users keyed by id. Missing ids are simply absent.
func (r *UserRepository) GetMany(ctx context.Context, ids []string) (map[string]*db.User, error) {
	out := make(map[string]*db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, svcErr.Store(err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// Exists reports whether a user row is present.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, svcErr.Store(err)
}

func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return svcErr.Store(r.db.WithContext(ctx).Create(u).Error)
}

// Recent returns the newest users, created_at DESC.
func (r *UserRepository) Recent(ctx context.Context, limit int) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&users).Error
	return users, svcErr.Store(err)
}

// Banned returns banned users, most recently banned first.
func (r *UserRepository) Banned(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("is_banned = ?", true).
		Order("banned_at DESC").
		Find(&users).Error
	return users, svcErr.Store(err)
}

// Update applies a partial update. Map keys are column names so that false
// and nil values are written.
func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(fields).Error
	return svcErr.Store(err)
}

// CreateIfAbsent inserts u unless a row with its id exists. created reports
// whether this call inserted it.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *db.User) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(u)
	if res.Error != nil {
		return false, svcErr.Store(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetPushToken stores the device token push delivery uses; "" clears it.
func (r *UserRepository) SetPushToken(ctx context.Context, id, token string) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Update("push_token", token)
	if res.Error != nil {
		return svcErr.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFound("user %s", id)
	}
	return nil
}

// SetLocation stores the user's coordinate; nil clears it.
func (r *UserRepository) SetLocation(ctx context.Context, id string, lat, lng *float64) error {
	return r.Update(ctx, id, map[string]any{"latitude": lat, "longitude": lng})
}

func (r *UserRepository) SetBanned(ctx context.Context, id, by string, at time.Time) error {
	return r.Update(ctx, id, map[string]any{"is_banned": true, "banned_at": at, "banned_by": by})
}

func (r *UserRepository) ClearBan(ctx context.Context, id string) error {
	return r.Update(ctx, id, map[string]any{"is_banned": false, "banned_at": nil, "banned_by": ""})
}

// Delete hard-deletes the user row.
func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.User{})
	return res.RowsAffected, svcErr.Store(res.Error)
}

// UserCounts is the user part of the admin dashboard.
type UserCounts struct {
	Total         int64 `json:"total"`
	Verified      int64 `json:"verified"`
	SuperVerified int64 `json:"superVerified"`
	Banned        int64 `json:"banned"`
	Admins        int64 `json:"admins"`
}

func (r *UserRepository) Counts(ctx context.Context) (UserCounts, error) {
	var c UserCounts
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_verified THEN 1 ELSE 0 END), 0) AS verified,
			COALESCE(SUM(CASE WHEN is_super_verified THEN 1 ELSE 0 END), 0) AS super_verified,
			COALESCE(SUM(CASE WHEN is_banned THEN 1 ELSE 0 END), 0) AS banned,
			COALESCE(SUM(CASE WHEN is_admin THEN 1 ELSE 0 END), 0) AS admins`).
		Scan(&c).Error
	return c, svcErr.Store(err)
}

// CountCreatedSince counts users registered at or after t.
func (r *UserRepository) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("created_at >= ?", t).Count(&count).Error
	return count, svcErr.Store(err)
}
