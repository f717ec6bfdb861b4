package admin

import (
	"context"
	"strings"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

const maxReasonLength = 1000

var reportStatuses = map[string]bool{
	db.ReportPending:   true,
	db.ReportReviewed:  true,
	db.ReportResolved:  true,
	db.ReportDismissed: true,
}

// CreateReport files a complaint by reporter about reported. Any user may
// report anyone except themselves.
func (s *Service) CreateReport(ctx context.Context, reporter, reported, reason string) (*db.Report, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case reporter == "" || reported == "":
		return nil, svcErr.Invalid("reporter and reported user are required")
	case reporter == reported:
		return nil, svcErr.Invalid("cannot report yourself")
	case reason == "":
		return nil, svcErr.Invalid("reason is required")
	case len(reason) > maxReasonLength:
		return nil, svcErr.Invalid("reason longer than %d bytes", maxReasonLength)
	}
	ok, err := s.users.Exists(ctx, reported)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, svcErr.NotFound("user %s", reported)
	}

	rep := &db.Report{ReporterID: reporter, ReportedUserID: reported, Reason: reason}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("report filed", "report_id", rep.ID, "reporter", reporter, "reported", reported)
	return rep, nil
}

// ListReports returns reports newest first; status "" lists all.
func (s *Service) ListReports(ctx context.Context, adminID, status string, limit int) ([]db.Report, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if status != "" && !reportStatuses[status] {
		return nil, svcErr.Invalid("unknown report status %q", status)
	}
	return s.reports.List(ctx, status, limit)
}

func (s *Service) UpdateReportStatus(ctx context.Context, adminID, reportID, status string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if !reportStatuses[status] {
		return svcErr.Invalid("unknown report status %q", status)
	}
	if err := s.reports.UpdateStatus(ctx, reportID, status, adminID); err != nil {
		return err
	}
	s.audit(ctx, adminID, ActionUpdateReportStatus, "", map[string]any{"reportId": reportID, "status": status})
	return nil
}
