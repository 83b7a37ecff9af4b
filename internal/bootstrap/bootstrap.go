package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	httpadapter "github.com/kirillkom/docvault/internal/adapters/http"
	"github.com/kirillkom/docvault/internal/config"
	"github.com/kirillkom/docvault/internal/core/ports"
	"github.com/kirillkom/docvault/internal/core/usecase"
	"github.com/kirillkom/docvault/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/docvault/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/docvault/internal/infrastructure/pagecount"
	"github.com/kirillkom/docvault/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docvault/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docvault/internal/infrastructure/resilience"
	"github.com/kirillkom/docvault/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docvault/internal/infrastructure/templates"
	"github.com/kirillkom/docvault/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	Translator ports.Translator
	// Catalog is nil when POSTGRES_DSN is not set.
	Catalog ports.DocumentCatalog

	closers []func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	m := metrics.NewHTTPServerMetrics(service)
	app := &App{
		Config:  cfg,
		Metrics: m,
	}

	var completions ports.CompletionClient
	if cfg.LLMAPIKey != "" {
		completions = openaicompat.New(openaicompat.Options{
			APIKey:   cfg.LLMAPIKey,
			BaseURL:  cfg.LLMBaseURL,
			Model:    cfg.LLMModelID,
			Timeout:  cfg.LLMTimeout(),
			Executor: resilience.NewExecutor(llmResilienceConfig(cfg, m)),
		})
	} else {
		slog.Warn("translation_not_configured", "reason", "LOVABLE_API_KEY is empty")
	}
	app.Translator = usecase.NewTranslateUseCase(completions)

	if cfg.PostgresDSN != "" {
		catalog, err := app.newCatalog(ctx, cfg, m)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Catalog = catalog
	}

	return app, nil
}

func (a *App) newCatalog(ctx context.Context, cfg config.Config, m *metrics.HTTPServerMetrics) (*usecase.CatalogUseCase, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	tpl, err := templates.Default()
	if err != nil {
		return nil, fmt.Errorf("load summary templates: %w", err)
	}

	deps := usecase.CatalogDeps{
		Repo:      repo,
		Storage:   storage,
		Pages:     pagecount.NewCounter(storage),
		Templates: tpl,
		Exporter:  xlsx.NewExporter(),
	}

	if cfg.NATSURL != "" {
		publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(natsResilienceConfig(cfg, m)),
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		deps.Events = publisher
	}

	return usecase.NewCatalogUseCase(deps), nil
}

func llmResilienceConfig(cfg config.Config, m *metrics.HTTPServerMetrics) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.LLMRetryMaxAttempts
	rc.BreakerEnabled = cfg.LLMBreakerEnabled
	if cfg.LLMBreakerMinRequests > 0 {
		rc.BreakerMinRequests = uint32(cfg.LLMBreakerMinRequests)
	}
	rc.BreakerFailureRatio = cfg.LLMBreakerFailureRatio
	rc.BreakerOpenTimeout = cfg.LLMBreakerOpenTimeout()
	rc.OnStateChange = breakerStateRecorder(m)
	return rc
}

// natsResilienceConfig keeps the defaults for breaker thresholds; event
// publishing is best effort and only its retry budget is tunable.
func natsResilienceConfig(cfg config.Config, m *metrics.HTTPServerMetrics) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.NATSPublishRetryMaxAttempts
	rc.BreakerEnabled = cfg.NATSBreakerEnabled
	rc.OnStateChange = breakerStateRecorder(m)
	return rc
}

// The executor already logs transitions; this only feeds the gauge.
func breakerStateRecorder(m *metrics.HTTPServerMetrics) func(operation, from, to string) {
	return func(operation, _, to string) {
		m.RecordBreakerState(operation, to)
	}
}

func (a *App) Handler() http.Handler {
	return httpadapter.NewRouter(a.Config, a.Translator, a.Catalog, a.Metrics).Handler()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
