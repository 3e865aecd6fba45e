package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pnu-aid/campus-faq/internal/config"
	"github.com/pnu-aid/campus-faq/internal/core/calendar"
	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/core/usecase"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/chunking"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/embedding"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/extractor/localparse"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/extractor/parseservice"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/htmltext"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/llm/chat"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/queue/nats"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/repository/postgres"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/resilience"
	"github.com/pnu-aid/campus-faq/internal/infrastructure/storage/localfs"
	"github.com/pnu-aid/campus-faq/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue

	SearchUC   *usecase.SearchUseCase
	AskUC      *usecase.AskUseCase
	IngestUC   *usecase.IngestUseCase
	IndexUC    *usecase.IndexUseCase
	CalendarUC *usecase.CalendarAdminUseCase

	closeFn func()
}

func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	logger := logging.NewLogger(service, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	noticeStore := postgres.NewNoticeStore(db)
	pnuNoticeStore := postgres.NewPNUNoticeStore(db)
	supportStore := postgres.NewSupportStore(db)
	stores := map[domain.DocumentKind]ports.DocumentStore{
		domain.KindNotice:    noticeStore,
		domain.KindPNUNotice: pnuNoticeStore,
		domain.KindSupport:   supportStore,
	}
	semesterStore := postgres.NewSemesterStore(db)
	departmentStore := postgres.NewDepartmentStore(db)

	calendarSvc := calendar.NewService(semesterStore)

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.RetryInitialBackoffMS) * time.Millisecond,
		BreakerEnabled:      cfg.BreakerEnabled,
	})

	embedder := embedding.New(cfg.EmbedServiceURL,
		embedding.WithResilience(executor),
		embedding.WithLexicalFallback(embedding.NewLexicalEncoder()),
	)
	reranker := embedding.NewReranker(cfg.RerankServiceURL,
		embedding.RerankerWithResilience(executor),
	)

	chatOpts := []chat.Option{chat.WithResilience(executor)}
	if cfg.ChatAPIKey != "" {
		chatOpts = append(chatOpts, chat.WithAPIKey(cfg.ChatAPIKey))
	}
	generator := chat.New(cfg.ChatServiceURL, cfg.ChatModel, chatOpts...)

	storage, err := localfs.New(cfg.AttachmentCachePath)
	if err != nil {
		return nil, fmt.Errorf("init attachment cache: %w", err)
	}
	local := localparse.New(storage)
	var extractor ports.TextExtractor = local
	if cfg.ParseServiceURL != "" {
		extractor = parseservice.New(cfg.ParseServiceURL,
			parseservice.WithResilience(executor),
			parseservice.WithFallback(local),
		)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	cleaner := htmltext.New()
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	searchUC := usecase.NewSearchUseCase(
		embedder, reranker,
		noticeStore, pnuNoticeStore, supportStore,
		departmentStore, calendarSvc,
		cfg.SearchStrategy,
	)
	askUC := usecase.NewAskUseCase(searchUC, generator)
	ingestUC := usecase.NewIngestUseCase(stores, departmentStore, queue, logger)
	indexUC := usecase.NewIndexUseCase(stores, semesterStore, embedder, extractor, cleaner, chunker, logger)
	calendarUC := usecase.NewCalendarAdminUseCase(semesterStore, stores, calendarSvc, logger)

	if err := seedCalendar(ctx, cfg, calendarUC); err != nil {
		return nil, err
	}

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,

		SearchUC:   searchUC,
		AskUC:      askUC,
		IngestUC:   ingestUC,
		IndexUC:    indexUC,
		CalendarUC: calendarUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

type calendarSeeder interface {
	Seed(ctx context.Context, semesters []domain.Semester) error
	Backfill(ctx context.Context) error
}

// seedCalendar loads explicit windows from the seed file when configured and
// otherwise falls back to canonical windows around the current year, so a
// fresh deployment resolves semesters out of the box. It backfills after
// seeding so documents that predate their window pick up a semester id.
func seedCalendar(ctx context.Context, cfg config.Config, calendarUC calendarSeeder) error {
	var semesters []domain.Semester
	if cfg.CalendarSeedPath != "" {
		loaded, err := calendar.LoadSeedFile(cfg.CalendarSeedPath)
		if err != nil {
			return fmt.Errorf("load calendar seed: %w", err)
		}
		semesters = loaded
	}
	if len(semesters) == 0 {
		year := time.Now().Year()
		for y := year - 1; y <= year+1; y++ {
			semesters = append(semesters, calendar.CanonicalYear(y)...)
		}
	}
	if err := calendarUC.Seed(ctx, semesters); err != nil {
		return fmt.Errorf("seed calendar: %w", err)
	}
	// Documents ingested before their window existed carry no semester id
	// and the always-on semester filter would never see them again.
	if err := calendarUC.Backfill(ctx); err != nil {
		return fmt.Errorf("backfill semesters: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
