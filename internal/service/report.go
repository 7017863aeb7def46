// internal/service/report.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conceptlens/backend/internal/cache"
	"github.com/conceptlens/backend/internal/domain/analytics"
	"github.com/conceptlens/backend/internal/store"
)

// ReportService builds teacher-facing class reports. With a cache
// attached, reports are served from Redis until invalidated or expired.
type ReportService struct {
	store  store.Store
	cache  *cache.ReportCache // nil when Redis is not configured
	logger *slog.Logger
}

func NewReportService(s store.Store, c *cache.ReportCache, logger *slog.Logger) *ReportService {
	return &ReportService{
		store:  s,
		cache:  c,
		logger: logger,
	}
}

// ClassReport aggregates mastery and evidence for every student in the
// class. A class with no students yields store.ErrNotFound.
func (rs *ReportService) ClassReport(ctx context.Context, classID string) (analytics.ClassReport, error) {
	if rs.cache != nil {
		report, err := rs.cache.Get(ctx, classID)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			rs.logger.Warn("report cache read failed", "class_id", classID, "error", err)
		}
	}

	students, err := rs.store.ListStudentsByClass(ctx, classID)
	if err != nil {
		return analytics.ClassReport{}, fmt.Errorf("list students: %w", err)
	}
	if len(students) == 0 {
		return analytics.ClassReport{}, fmt.Errorf("class %s: %w", classID, store.ErrNotFound)
	}

	data := make([]analytics.StudentData, 0, len(students))
	for _, st := range students {
		rows, err := rs.store.ListMasteryByStudent(ctx, st.ID)
		if err != nil {
			return analytics.ClassReport{}, fmt.Errorf("mastery for %s: %w", st.ID, err)
		}
		history, err := rs.store.ListEvidenceByStudent(ctx, st.ID)
		if err != nil {
			return analytics.ClassReport{}, fmt.Errorf("evidence for %s: %w", st.ID, err)
		}
		data = append(data, analytics.StudentData{
			StudentID: st.ID,
			Name:      st.Name,
			Mastery:   rows,
			Evidence:  history,
		})
	}

	report := analytics.BuildClassReport(data, time.Now().UTC())

	if rs.cache != nil {
		if err := rs.cache.Set(ctx, classID, report); err != nil {
			rs.logger.Warn("report cache write failed", "class_id", classID, "error", err)
		}
	}
	return report, nil
}

// InvalidateClass drops the cached report after new evidence lands for
// one of the class's students. No-op without a cache.
func (rs *ReportService) InvalidateClass(ctx context.Context, classID string) {
	if rs.cache == nil {
		return
	}
	if err := rs.cache.Invalidate(ctx, classID); err != nil {
		rs.logger.Warn("report cache invalidation failed", "class_id", classID, "error", err)
	}
}
