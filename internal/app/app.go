package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"PromoScanner/internal/config"
	"PromoScanner/internal/fetch"
	"PromoScanner/internal/infrastructure/portal"
	"PromoScanner/internal/infrastructure/scheduler"
	"PromoScanner/internal/infrastructure/storage"
	"PromoScanner/internal/infrastructure/telegram"
	"PromoScanner/internal/logging"
	"PromoScanner/internal/ports"
	"PromoScanner/internal/report"
	"PromoScanner/internal/usecase"
)

// Options select what a single invocation does.
type Options struct {
	// Mode is one of scan, stores, search, prices.
	Mode string
	// Watch keeps the process alive and rescans on the configured
	// interval (scan mode only).
	Watch bool
	// IncludeNonFull also ingests the incremental feeds.
	IncludeNonFull bool

	Chain   string
	StoreID string
	City    string
	Query   string
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	opts     Options
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	driver   ports.Scheduler
	db       *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, opts Options, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := fetch.NewRegistry()
	registry.Register(portal.NewMultipage(nil))
	registry.Register(portal.NewListing(nil))
	registry.Register(portal.NewCerberus(nil))

	provider := portal.NewProvider(registry, baseLogger.With("component", "provider"))

	var db *sql.DB
	var repository ports.PromotionRepository
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("cannot open database, continuing without persistence", "error", err)
		} else {
			db = opened
			repository = storage.NewPostgresRepository(db)
		}
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Provider:       provider,
		Repository:     repository,
		Reporter:       report.NewCSVWriter(cfg.Output.Dir),
		Notifier:       notifier,
		Chains:         cfg.Chains,
		IncludeNonFull: opts.IncludeNonFull,
		Logger:         baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		opts:     opts,
		logger:   baseLogger,
		pipeline: pipeline,
		driver:   scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
		db:       db,
	}
}

// Run executes the selected mode and blocks until it finishes.
func (a *Application) Run(ctx context.Context) error {
	if a.db != nil {
		defer a.db.Close()
	}

	now := time.Now().In(a.cfg.Scheduler.Location())

	switch a.opts.Mode {
	case "", "scan":
		return a.runScan(ctx, now)
	case "stores":
		return a.runStores(ctx)
	case "search":
		return a.runSearch(ctx, now)
	case "prices":
		return a.runPrices(ctx, now)
	default:
		return fmt.Errorf("unknown mode %q", a.opts.Mode)
	}
}

func (a *Application) runScan(ctx context.Context, now time.Time) error {
	if !a.opts.Watch {
		return a.pipeline.ProcessAll(ctx, now)
	}

	sched := usecase.NewScheduler(a.driver, a.pipeline)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return sched.Stop(context.Background())
}

func (a *Application) runStores(ctx context.Context) error {
	stores, err := a.pipeline.FindStores(ctx, a.opts.Chain, a.opts.City)
	if err != nil {
		return err
	}
	for _, store := range stores {
		a.logger.Info("store", "id", store.ID, "name", store.Name, "city", store.City, "address", store.Address)
	}
	a.logger.Info("stores found", "chain", a.opts.Chain, "city", a.opts.City, "count", len(stores))
	return nil
}

func (a *Application) runSearch(ctx context.Context, now time.Time) error {
	promos, err := a.pipeline.SearchPromotions(ctx, a.opts.Chain, a.opts.StoreID, a.opts.Query, now)
	if err != nil {
		return err
	}
	for _, promo := range promos {
		a.logger.Info("promotion",
			"id", promo.PromotionID,
			"description", promo.Description,
			"start", promo.StartTime.Format("2006-01-02 15:04"),
			"end", promo.EndTime.Format("2006-01-02 15:04"),
			"items", len(promo.Items))
	}
	a.logger.Info("promotions matched", "chain", a.opts.Chain, "store", a.opts.StoreID, "count", len(promos))
	return nil
}

func (a *Application) runPrices(ctx context.Context, now time.Time) error {
	items, err := a.pipeline.PricesWithPromos(ctx, a.opts.Chain, a.opts.StoreID, now)
	if err != nil {
		return err
	}
	for _, item := range items {
		a.logger.Info("discounted item",
			"code", item.Code,
			"name", item.Name,
			"price", item.Price.String(),
			"final_price", item.FinalPrice.String(),
			"promotions", len(item.AppliedPromotions))
	}
	a.logger.Info("discounted items", "chain", a.opts.Chain, "store", a.opts.StoreID, "count", len(items))
	return nil
}
