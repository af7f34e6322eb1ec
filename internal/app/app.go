package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"clipseek/internal/config"
	"clipseek/internal/costtracker"
	"clipseek/internal/models"
	"clipseek/internal/services"
	"clipseek/internal/store"
	"clipseek/internal/store/registry"
)

// App wires configuration, stores, the provider client, and the services
// consumed by the CLI commands and HTTP handlers.
type App struct {
	Config    *config.Config
	Provider  services.VideoIndexProvider
	Tracker   *services.Tracker
	Registry  store.VideoRegistry
	CostStore store.CostTrackingStore
	JobClient store.JobClient

	IngestService *services.IngestService
	SearchService *services.SearchService
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	app := &App{Config: cfg}

	if err := app.initStores(); err != nil {
		return nil, err
	}
	if err := app.initJobClient(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	if err := app.initProvider(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initServices()

	log.Debug("application initialization complete")
	return app, nil
}

func (a *App) initStores() error {
	reg, err := registry.Open(a.Config.Registry.Path)
	if err != nil {
		return fmt.Errorf("init video registry: %w", err)
	}
	a.Registry = reg

	ledger, err := costtracker.Open(a.Config.Cost.LedgerPath, costtracker.Rates{
		VideoPerMinute: a.Config.Cost.VideoPerMinute,
		SearchPerQuery: a.Config.Cost.SearchPerQuery,
		BudgetUSD:      a.Config.Cost.BudgetUSD,
	})
	if err != nil {
		return fmt.Errorf("init cost ledger: %w", err)
	}
	a.CostStore = ledger
	return nil
}

func (a *App) initJobClient() error {
	// The asynq client connects lazily, so creating it costs nothing for
	// commands that never enqueue.
	jc, err := store.NewAsynqJobClient(a.Config.Redis.Address, a.Config.Redis.Password, a.Config.Redis.DB)
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	a.JobClient = jc
	return nil
}

func (a *App) initProvider() error {
	if a.Config.Provider.APIKey == "" {
		// Offline commands (videos, cost) still work; commands that talk to
		// the provider check for a nil service and fail with a clear
		// message.
		log.Warn("TWELVE_LABS_API_KEY not set; provider-backed commands are disabled")
		return nil
	}
	provider, err := services.NewTwelveLabsProvider(
		a.Config.Provider.APIKey,
		a.Config.Provider.BaseURL,
		a.Config.Provider.Timeout,
	)
	if err != nil {
		return fmt.Errorf("init provider client: %w", err)
	}
	a.Provider = provider
	a.Tracker = services.NewTracker(provider, services.AwaitOptions{
		PollInterval:     a.Config.Polling.Interval,
		MaxWait:          a.Config.Polling.MaxWait,
		TransientRetries: a.Config.Polling.TransientRetries,
	})
	return nil
}

func (a *App) initServices() {
	if a.Provider == nil {
		return
	}
	a.IngestService = services.NewIngestService(services.IngestServiceDeps{
		Provider:  a.Provider,
		Tracker:   a.Tracker,
		Registry:  a.Registry,
		CostStore: a.CostStore,
		JobClient: a.JobClient,
		IndexName: a.Config.Index.Name,
	})
	a.SearchService = services.NewSearchService(
		a.Provider,
		a.Registry,
		a.CostStore,
		a.Config.Search.DefaultLimit,
		models.NormalizeConfidence(a.Config.Search.Threshold),
	)
}

func (a *App) Close() {
	if a.JobClient != nil {
		if err := a.JobClient.Close(); err != nil {
			log.WithError(err).Warn("error closing job client")
		}
	}
}

func (a *App) cleanupPartialInit() {
	if a.JobClient != nil {
		a.JobClient.Close()
	}
}
