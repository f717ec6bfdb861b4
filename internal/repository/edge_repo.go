package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/pair"
	"github.com/oggyb/matchmaker/internal/utils/pagination"
)

// EdgeRepository provides data access for one kind of directed preference
// edge. Likes and dislikes share the same shape and differ only by table.
type EdgeRepository struct {
	db       *gorm.DB
	table    string
	opposite string
}

// NewLikeRepository returns the repository bound to the likes table.
func NewLikeRepository(database *gorm.DB) *EdgeRepository {
	return &EdgeRepository{db: database, table: "likes", opposite: "dislikes"}
}

// NewDislikeRepository returns the repository bound to the dislikes table.
func NewDislikeRepository(database *gorm.DB) *EdgeRepository {
	return &EdgeRepository{db: database, table: "dislikes", opposite: "likes"}
}

// Table returns the backing table name.
func (r *EdgeRepository) Table() string { return r.table }

// WithTx returns a copy of the repository that runs on tx.
func (r *EdgeRepository) WithTx(tx *gorm.DB) *EdgeRepository {
	cp := *r
	cp.db = tx
	return &cp
}

// Insert records from → to unless it already exists.
//
// Behavior:
//   - The row id is pair.Ordered(from, to), so concurrent inserts for the
//     same pair collapse to one row.
//   - inserted is false when the edge was already present. That is not an
//     error.
//
// Example:
//
//	repo.Insert(ctx, "ana", "carlos") // -> true, nil
//	repo.Insert(ctx, "ana", "carlos") // -> false, nil
func (r *EdgeRepository) Insert(ctx context.Context, from, to string) (inserted bool, err error) {
	edge := db.Edge{
		ID:         pair.Ordered(from, to),
		FromUserID: from,
		ToUserID:   to,
	}
	res := r.db.WithContext(ctx).
		Table(r.table).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge)
	if res.Error != nil {
		return false, svcErr.Store(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Exists checks whether from → to is recorded.
func (r *EdgeRepository) Exists(ctx context.Context, from, to string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("from_user_id = ? AND to_user_id = ?", from, to).
		Limit(1).
		Count(&count).Error
	return count > 0, svcErr.Store(err)
}

// Delete removes every from → to row. Matching by columns rather than id
// also clears rows written before ids were derived from the pair.
func (r *EdgeRepository) Delete(ctx context.Context, from, to string) (int64, error) {
	res := r.db.WithContext(ctx).
		Table(r.table).
		Where("from_user_id = ? AND to_user_id = ?", from, to).
		Delete(&db.Edge{})
	return res.RowsAffected, svcErr.Store(res.Error)
}

// DeleteBetween removes edges in both directions between a and b.
func (r *EdgeRepository) DeleteBetween(ctx context.Context, a, b string) (int64, error) {
	res := r.db.WithContext(ctx).
		Table(r.table).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Delete(&db.Edge{})
	return res.RowsAffected, svcErr.Store(res.Error)
}

// DeleteInvolving removes every edge the user sent or received.
func (r *EdgeRepository) DeleteInvolving(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Table(r.table).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Delete(&db.Edge{})
	return res.RowsAffected, svcErr.Store(res.Error)
}

// Received returns edges pointing at the recipient.
//
// Behavior:
//   - Excludes senders the recipient already answered with the opposite
//     kind (for likes: senders the recipient disliked).
//   - Ordered by created_at DESC, from_user_id DESC.
//   - Supports cursor-based pagination via token.
//
// Example:
//
//	repo.Received(ctx, "ana", "", 20) // first 20 people who liked ana
func (r *EdgeRepository) Received(
	ctx context.Context,
	toUserID string,
	token string,
	limit int,
) ([]db.Edge, string, error) {
	var edges []db.Edge

	cursor, err := pagination.Decode(token)
	if err != nil {
		return nil, "", err
	}

	query := r.received(ctx, toUserID).
		Order("e.created_at DESC, e.from_user_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(e.created_at < ? OR (e.created_at = ? AND e.from_user_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&edges).Error; err != nil {
		return nil, "", svcErr.Store(err)
	}

	// pagination: build next cursor if needed
	var next string
	if len(edges) > limit {
		last := edges[limit-1]
		next, _ = pagination.Encode(pagination.Cursor{
			UserID:      last.FromUserID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		edges = edges[:limit]
	}

	return edges, next, nil
}

// CountReceived counts what Received would list across all pages.
func (r *EdgeRepository) CountReceived(ctx context.Context, toUserID string) (int64, error) {
	var count int64
	err := r.received(ctx, toUserID).Count(&count).Error
	return count, svcErr.Store(err)
}

func (r *EdgeRepository) received(ctx context.Context, toUserID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(r.table+" e").
		Where("e.to_user_id = ?", toUserID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM `+r.opposite+` o
				WHERE o.from_user_id = ?
				  AND o.to_user_id = e.from_user_id
			)`, toUserID)
}

// Sent returns every edge the user created, newest first.
func (r *EdgeRepository) Sent(ctx context.Context, fromUserID string) ([]db.Edge, error) {
	var edges []db.Edge
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("from_user_id = ?", fromUserID).
		Order("created_at DESC").
		Find(&edges).Error
	return edges, svcErr.Store(err)
}

// TargetsOf returns the ids the user has sent an edge to.
func (r *EdgeRepository) TargetsOf(ctx context.Context, fromUserID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("from_user_id = ?", fromUserID).
		Pluck("to_user_id", &ids).Error
	return ids, svcErr.Store(err)
}

// Count returns the total number of edges of this kind.
func (r *EdgeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.table).Count(&count).Error
	return count, svcErr.Store(err)
}
