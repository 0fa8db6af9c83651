package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/careerpath-api/internal/config"
	"github.com/phrazzld/careerpath-api/internal/generation"
	"github.com/phrazzld/careerpath-api/internal/metrics"
	"github.com/phrazzld/careerpath-api/internal/platform/cache"
	"github.com/phrazzld/careerpath-api/internal/platform/gemini"
	"github.com/phrazzld/careerpath-api/internal/redact"
	"github.com/phrazzld/careerpath-api/internal/render"
	"github.com/phrazzld/careerpath-api/internal/report"
	"github.com/phrazzld/careerpath-api/internal/scoring"
	"github.com/phrazzld/careerpath-api/internal/service"
	"github.com/phrazzld/careerpath-api/internal/storage"
	"github.com/phrazzld/careerpath-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
)

// downloadPrefix is the public path completed tasks point at.
const downloadPrefix = "/api/download-report/"

const redisPingTimeout = 3 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	scorer    *scoring.Engine
	generator generation.ContentGenerator
	reports   *storage.ReportStore
	renderer  render.Renderer
	redis     *cache.Redis

	taskStore  *task.MemoryTaskStore
	taskRunner *task.TaskRunner

	assessmentService service.AssessmentService
	metrics           *metrics.Metrics
}

type appOptions struct {
	generator generation.ContentGenerator
	registry  *prometheus.Registry
}

// appOption overrides a dependency that is otherwise built from configuration.
type appOption func(*appOptions)

// withGenerator replaces the Gemini client, e.g. with a fake in tests.
func withGenerator(g generation.ContentGenerator) appOption {
	return func(o *appOptions) { o.generator = g }
}

// withRegistry registers metrics on reg instead of a fresh registry.
func withRegistry(reg *prometheus.Registry) appOption {
	return func(o *appOptions) { o.registry = reg }
}

// newApplication builds the dependency graph and starts the task runner.
// Everything started before a failure is released again.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	opts ...appOption,
) (_ *application, err error) {
	var options appOptions
	for _, opt := range opts {
		opt(&options)
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(options.registry),
	}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	table, err := scoring.LoadTable(cfg.Scoring.TablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring table: %w", err)
	}
	app.scorer, err = scoring.NewEngine(table)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring engine: %w", err)
	}
	logger.Info("Scoring table loaded",
		"path", cfg.Scoring.TablePath,
		"questions", app.scorer.QuestionCount())

	app.reports, err = storage.NewReportStore(cfg.Storage.ReportsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare report storage: %w", err)
	}

	app.generator, err = app.setupGenerator(ctx, options.generator)
	if err != nil {
		return nil, err
	}

	app.renderer, err = setupRenderer(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	goals, err := generation.NewGoalExtractor(app.generator, logger, cfg.LLM.GoalMaxOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal extractor: %w", err)
	}

	topics, err := generation.NewTopicReportGenerator(
		app.generator,
		generation.DefaultTopicCatalog(),
		generation.TopicGeneratorConfig{
			Delay: cfg.Task.TopicDelay,
			Options: generation.Options{
				MaxOutputTokens: cfg.LLM.MaxOutputTokens,
				Temperature:     cfg.LLM.Temperature,
			},
		},
		logger,
		app.metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic generator: %w", err)
	}

	factory, err := task.NewReportGenerationTaskFactory(task.ReportGenerationDeps{
		Scorer:               app.scorer,
		Goals:                goals,
		Topics:               topics,
		Assembler:            report.NewAssembler(),
		Renderer:             app.renderer,
		Locator:              app.reports,
		AchievementQuestions: cfg.Scoring.AchievementQuestions,
		DownloadPrefix:       downloadPrefix,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report task factory: %w", err)
	}

	app.taskStore = task.NewMemoryTaskStore()
	app.taskRunner, err = setupTaskRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	app.assessmentService, err = service.NewAssessmentService(service.AssessmentDeps{
		Runner:  app.taskRunner,
		Tasks:   app.taskStore,
		Factory: factory,
		Scorer:  app.scorer,
		Reports: app.reports,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupGenerator builds the content generator chain: the Gemini client (or
// override) behind the prompt cache. The Redis tier is optional and skipped
// when unreachable at startup.
func (app *application) setupGenerator(
	ctx context.Context,
	override generation.ContentGenerator,
) (generation.ContentGenerator, error) {
	base := override
	if base == nil {
		g, err := gemini.NewGeminiGenerator(ctx, app.logger.With("component", "llm_generator"), app.config.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		app.logger.Info("LLM generator initialized", "model", app.config.LLM.ModelName)
		base = g
	}

	lru, err := cache.NewLRU(app.config.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt cache: %w", err)
	}
	tiers := []generation.PromptCache{lru}

	if url := app.config.Cache.RedisURL; url != "" {
		if rc := app.connectRedis(ctx, url); rc != nil {
			app.redis = rc
			tiers = append(tiers, rc)
		}
	}

	cached, err := generation.NewCachingGenerator(base, app.logger, app.metrics, tiers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create caching generator: %w", err)
	}
	return cached, nil
}

func (app *application) connectRedis(ctx context.Context, url string) *cache.Redis {
	rc, err := cache.NewRedis(url, app.config.Cache.TTL)
	if err != nil {
		app.logger.Warn("Redis prompt cache disabled", "error", redact.Error(err))
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		app.logger.Warn("Redis prompt cache unreachable, continuing without it", "error", redact.Error(err))
		_ = rc.Close()
		return nil
	}

	app.logger.Info("Redis prompt cache enabled", "ttl", app.config.Cache.TTL)
	return rc
}

// setupRenderer picks the document renderer for the configured format.
func setupRenderer(cfg config.StorageConfig, logger *slog.Logger) (render.Renderer, error) {
	html, err := render.NewHTMLRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTML renderer: %w", err)
	}

	switch cfg.Format {
	case render.FormatHTML:
		return html, nil
	case render.FormatPDF:
		pdf, err := render.NewPDFRenderer(html, cfg.ChromeURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create PDF renderer: %w", err)
		}
		return pdf, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", cfg.Format)
	}
}

// setupTaskRunner initializes and starts the background task processor.
func setupTaskRunner(app *application) (*task.TaskRunner, error) {
	taskRunner := task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:   app.config.Task.QueueSize,
		WorkerCount: app.config.Task.WorkerCount,
	}, app.logger)
	taskRunner.SetObserver(app.metrics)
	app.metrics.RegisterQueueDepth(taskRunner.QueueDepth)

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	app.logger.Info("Task runner started",
		"workers", app.config.Task.WorkerCount,
		"queue_size", app.config.Task.QueueSize)
	return taskRunner, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. It is safe
// to call on a partially built application.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.taskStore != nil {
		if err := app.taskStore.Close(); err != nil {
			app.logger.Error("Error closing task registry", "error", err)
		}
	}

	if closer, ok := app.renderer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("Error closing renderer", "error", err)
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis client", "error", redact.Error(err))
		}
	}

	app.logger.Info("Application shutdown completed")
}
