package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// ReportRepository provides data access for abuse reports.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create inserts a pending report.
func (r *ReportRepository) Create(ctx context.Context, rep *db.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.Status == "" {
		rep.Status = db.ReportPending
	}
	return svcErr.Store(r.db.WithContext(ctx).Create(rep).Error)
}

// List returns reports newest first, optionally narrowed to one status.
func (r *ReportRepository) List(ctx context.Context, status string, limit int) ([]db.Report, error) {
	var reports []db.Report
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&reports).Error
	return reports, svcErr.Store(err)
}

// UpdateStatus sets the status of a report. Returns ErrNotFound when the
// report does not exist.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id, status, by string) error {
	res := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_by": by})
	if res.Error != nil {
		return svcErr.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFound("report %s", id)
	}
	return nil
}

// DeleteAgainst removes every report filed against the user.
func (r *ReportRepository) DeleteAgainst(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("reported_user_id = ?", userID).Delete(&db.Report{})
	return res.RowsAffected, svcErr.Store(res.Error)
}

// CountByStatus returns report counts keyed by status.
func (r *ReportRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, svcErr.Store(err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// Against lists reports filed against the user, newest first.
func (r *ReportRepository) Against(ctx context.Context, userID string) ([]db.Report, error) {
	var reports []db.Report
	err := r.db.WithContext(ctx).
		Where("reported_user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, svcErr.Store(err)
}
