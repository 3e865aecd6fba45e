package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pnu-aid/campus-faq/internal/core/calendar"
	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

// CalendarAdminUseCase seeds semester windows and backfills semester
// assignments on documents ingested before the windows existed.
type CalendarAdminUseCase struct {
	semesters ports.SemesterStore
	stores    map[domain.DocumentKind]ports.DocumentStore
	calendar  *calendar.Service
	logger    *slog.Logger
}

func NewCalendarAdminUseCase(
	semesters ports.SemesterStore,
	stores map[domain.DocumentKind]ports.DocumentStore,
	calendarSvc *calendar.Service,
	logger *slog.Logger,
) *CalendarAdminUseCase {
	return &CalendarAdminUseCase{
		semesters: semesters,
		stores:    stores,
		calendar:  calendarSvc,
		logger:    logger,
	}
}

// Seed upserts the given windows and invalidates cached resolutions so the
// new windows take effect immediately.
func (uc *CalendarAdminUseCase) Seed(ctx context.Context, semesters []domain.Semester) error {
	if len(semesters) == 0 {
		return nil
	}
	if _, err := uc.semesters.UpsertSemesters(ctx, semesters); err != nil {
		return fmt.Errorf("upsert semesters: %w", err)
	}
	uc.calendar.Invalidate()
	uc.logger.Info("seeded calendar", "semesters", len(semesters))
	return nil
}

// Backfill stamps semester ids on every dated document kind. Supports are
// undated and skipped.
func (uc *CalendarAdminUseCase) Backfill(ctx context.Context) error {
	semesters, err := uc.semesters.ListSemesters(ctx)
	if err != nil {
		return fmt.Errorf("list semesters: %w", err)
	}

	for _, kind := range []domain.DocumentKind{domain.KindNotice, domain.KindPNUNotice} {
		store, ok := uc.stores[kind]
		if !ok {
			continue
		}
		var total int64
		for _, sem := range semesters {
			affected, err := store.AssignSemester(ctx, sem, ranking.Filter{})
			if err != nil {
				return fmt.Errorf("backfill %s semester %d/%s: %w", kind, sem.Year, sem.Term, err)
			}
			total += affected
		}
		uc.logger.Info("backfilled semesters", "kind", kind, "documents", total)
	}
	return nil
}
