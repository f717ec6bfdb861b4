package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/pair"
)

// MatchRepository provides data access for matches and the chat scaffold
// that lives and dies with them.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent inserts the match for {a, b} unless one exists and returns
// the stored row.
//
// Behavior:
//   - The id is pair.Sorted(a, b); both orderings resolve to the same row.
//   - The insert is ON CONFLICT DO NOTHING, so two racing callers both get
//     the same match and only one sees created == true.
//   - The chat scaffold is created in the same transaction.
//
// Example:
//
//	m, created, _ := repo.CreateIfAbsent(ctx, "ana", "carlos", "")
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b, forcedBy string) (*db.Match, bool, error) {
	lo, hi := pair.Sort(a, b)
	id := pair.Sorted(lo, hi)

	var (
		match   db.Match
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&db.Match{ID: id, UserA: lo, UserB: hi, ForcedBy: forcedBy})
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0

		if created {
			chat := db.Chat{ID: id, UserA: lo, UserB: hi}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).First(&match).Error
	})
	if err != nil {
		return nil, false, svcErr.Store(err)
	}
	return &match, created, nil
}

// Get loads a match by id.
func (r *MatchRepository) Get(ctx context.Context, id string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, svcErr.Store(err)
	}
	return &m, nil
}

// Between returns the match for {a, b}, or ErrNotFound.
func (r *MatchRepository) Between(ctx context.Context, a, b string) (*db.Match, error) {
	return r.Get(ctx, pair.Sorted(a, b))
}

// ForUser lists the user's matches, newest first.
func (r *MatchRepository) ForUser(ctx context.Context, userID string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	return matches, svcErr.Store(err)
}

// MarkActive flips has_messages to true. Already active matches are left as
// they are, so the transition is one-way.
func (r *MatchRepository) MarkActive(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND has_messages = ?", id, false).
		Update("has_messages", true)
	return res.RowsAffected, svcErr.Store(res.Error)
}

// RecordLastMessage stores the preview of the latest message and marks the
// match active.
func (r *MatchRepository) RecordLastMessage(ctx context.Context, id, content string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", id).
		Updates(map[string]any{"has_messages": true, "last_message": content, "last_message_at": at}).Error
	return svcErr.Store(err)
}

// DeleteWithConversation removes the matches, their chats and their messages
// in one transaction. Missing rows are not an error.
func (r *MatchRepository) DeleteWithConversation(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id IN ?", ids).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&db.Chat{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&db.Match{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, svcErr.Store(err)
}

// Counts returns the total and the active (has messages) number of matches.
func (r *MatchRepository) Counts(ctx context.Context) (total, active int64, err error) {
	q := r.db.WithContext(ctx).Model(&db.Match{})
	if err := q.Count(&total).Error; err != nil {
		return 0, 0, svcErr.Store(err)
	}
	err = r.db.WithContext(ctx).Model(&db.Match{}).Where("has_messages = ?", true).Count(&active).Error
	return total, active, svcErr.Store(err)
}
