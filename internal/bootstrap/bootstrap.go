package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkovalev/operator-kb-assistant/internal/config"
	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
	"github.com/dkovalev/operator-kb-assistant/internal/core/ports"
	"github.com/dkovalev/operator-kb-assistant/internal/core/usecase"
	"github.com/dkovalev/operator-kb-assistant/internal/infrastructure/corpus"
	"github.com/dkovalev/operator-kb-assistant/internal/infrastructure/llm/hfinference"
	"github.com/dkovalev/operator-kb-assistant/internal/infrastructure/queue/nats"
	"github.com/dkovalev/operator-kb-assistant/internal/infrastructure/repository/postgres"
	"github.com/dkovalev/operator-kb-assistant/internal/infrastructure/resilience"
	"github.com/dkovalev/operator-kb-assistant/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Corpus   ports.CorpusSource
	Admin    ports.CorpusAdmin
	Queue    ports.EventQueue
	Feedback ports.FeedbackStore

	AnswerUC   ports.AnswerService
	CoverageUC ports.CoverageService
	RefreshUC  ports.CorpusRefresher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	feedbackRepo := postgres.NewFeedbackRepository(db)
	if err := feedbackRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	source := corpus.NewFileSource(cfg.CorpusPath, logger)
	admin, err := corpus.NewAdmin(cfg.CorpusPath, cfg.BackupDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init corpus admin: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	generator := hfinference.NewWithOptions(cfg.FallbackURL, cfg.FallbackAPIKey, cfg.FallbackMaxLength, hfinference.Options{
		ResilienceExecutor: executor,
	})

	topics, err := config.LoadTopics(cfg.TopicsPath)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load topics: %w", err)
	}
	if topics == nil {
		topics = usecase.DefaultTopics()
	}

	answerUC := usecase.NewAnswerUseCase(
		source,
		generator,
		time.Duration(cfg.FallbackTimeoutSeconds)*time.Second,
	)
	coverageUC := usecase.NewCoverageAnalyzer(source, topics)

	refreshUC := usecase.NewRefreshUseCase(source, admin, cfg.BackupKeep, logger, func(stats domain.CorpusStats) {
		if m != nil {
			m.SetCorpusArticles(stats.ArticleCount)
		}
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,

		Corpus:   source,
		Admin:    admin,
		Queue:    queue,
		Feedback: feedbackRepo,

		AnswerUC:   answerUC,
		CoverageUC: coverageUC,
		RefreshUC:  refreshUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
