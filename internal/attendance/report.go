package attendance

import (
	"context"
	"fmt"
	"time"

	"classattend/internal/apperr"
)

// ClassReport returns lifetime present/absent counts for every student of
// className, recomputed on each call. Unknown classes yield no students.
func (s *Service) ClassReport(ctx context.Context, className string) (Report, error) {
	if className == "" {
		return Report{}, fmt.Errorf("%w: class is required", apperr.ErrBadRequest)
	}
	start := time.Now()
	students, err := s.repo.ClassSummary(ctx, className)
	if err != nil {
		return Report{}, err
	}
	s.metrics.RecordReportLatency(time.Since(start))
	return Report{Class: className, Students: students}, nil
}
