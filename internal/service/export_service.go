package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jadhavharshh/ConnectX-sub001/internal/access"
	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/export"
)

// RosterExport is a rendered roster document ready to stream.
type RosterExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders course rosters for the owning teacher.
type ExportService struct {
	courses courseReader
	maxRows int
	logger  *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(courses courseReader, maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{courses: courses, maxRows: maxRows, logger: logger}
}

// Roster renders the enrolled-student roster of an owned course as CSV or PDF.
func (s *ExportService) Roster(ctx context.Context, viewer models.ViewerContext, courseID, format string) (*RosterExport, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if err := access.CanMutateCourse(viewer, *course); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(course.EnrolledStudentIDs))
	for i, studentID := range course.EnrolledStudentIDs {
		if i >= s.maxRows {
			break
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), studentID})
	}
	table := export.Table{Columns: []string{"#", "Student ID"}, Rows: rows}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "csv", "":
		content, err := export.CSV(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
		}
		return &RosterExport{
			Filename:    fmt.Sprintf("roster-%s-%s.csv", course.ID, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := export.PDF(table, fmt.Sprintf("Roster - %s", course.Title))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
		}
		return &RosterExport{
			Filename:    fmt.Sprintf("roster-%s-%s.pdf", course.ID, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
