package attendance

import (
	"context"
	"fmt"
	"time"

	"classattend/internal/apperr"
)

// DateLayout is the calendar-day format used throughout the ledger.
const DateLayout = "2006-01-02"

// ClassChecker validates that a class name refers to an existing class.
type ClassChecker interface {
	RequireClass(ctx context.Context, className string) error
}

// Metrics receives ledger and report observations.
type Metrics interface {
	RecordAttendanceReplaced(className string, records int)
	RecordReportLatency(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordAttendanceReplaced(string, int) {}
func (nopMetrics) RecordReportLatency(time.Duration)    {}

// Service is the attendance ledger and report aggregator.
type Service struct {
	repo    *Repository
	classes ClassChecker
	metrics Metrics
}

// NewService creates a service backed by a repository. metrics may be nil.
func NewService(repo *Repository, classes ClassChecker, metrics Metrics) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{repo: repo, classes: classes, metrics: metrics}
}

// Record replaces the ledger for (date, className) with entries. Submitting
// the same batch twice leaves the same state; a smaller batch drops the
// students it omits.
func (s *Service) Record(ctx context.Context, date, className string, entries []Entry) error {
	if err := validateDate(date, true); err != nil {
		return err
	}
	if err := s.classes.RequireClass(ctx, className); err != nil {
		return err
	}
	seen := make(map[int64]struct{}, len(entries))
	for i, e := range entries {
		if e.StudentID <= 0 {
			return fmt.Errorf("%w: records[%d].student_id must be positive", apperr.ErrBadRequest, i)
		}
		if !e.Status.Valid() {
			return fmt.Errorf("%w: records[%d].status must be present or absent", apperr.ErrBadRequest, i)
		}
		if _, dup := seen[e.StudentID]; dup {
			return fmt.Errorf("%w: student %d listed twice", apperr.ErrBadRequest, e.StudentID)
		}
		seen[e.StudentID] = struct{}{}
	}

	if err := s.repo.ReplaceDay(ctx, date, className, entries); err != nil {
		return err
	}
	s.metrics.RecordAttendanceReplaced(className, len(entries))
	return nil
}

// List returns ledger rows for the optional filters; class "all" means any class.
func (s *Service) List(ctx context.Context, f Filter) ([]Row, error) {
	if f.Class == "all" {
		f.Class = ""
	}
	if err := validateDate(f.Date, false); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func validateDate(date string, required bool) error {
	if date == "" {
		if required {
			return fmt.Errorf("%w: date is required", apperr.ErrBadRequest)
		}
		return nil
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", apperr.ErrBadRequest)
	}
	return nil
}
