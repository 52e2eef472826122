package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository"
	"github.com/mamadbah2/prodtrack/internal/repository/memory"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
	"github.com/mamadbah2/prodtrack/internal/repository/postgres"
	"github.com/mamadbah2/prodtrack/internal/repository/sheets"
	"github.com/mamadbah2/prodtrack/internal/scheduler"
	"github.com/mamadbah2/prodtrack/internal/server/handlers"
	"github.com/mamadbah2/prodtrack/internal/server/router"
	commandsvc "github.com/mamadbah2/prodtrack/internal/service/commands"
	ncsvc "github.com/mamadbah2/prodtrack/internal/service/nonconformity"
	planningsvc "github.com/mamadbah2/prodtrack/internal/service/planning"
	reportingsvc "github.com/mamadbah2/prodtrack/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/prodtrack/internal/service/whatsapp"
	"github.com/mamadbah2/prodtrack/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/prodtrack/pkg/clients/whatsapp"
	"github.com/mamadbah2/prodtrack/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, catalog, closeStore := openStore(ctx, cfg.Database, baseLogger)
	defer closeStore()

	planning := planningsvc.NewService(store, catalog, baseLogger.Named("svc.planning"))
	reconciler := ncsvc.NewReconciler(store, baseLogger.Named("svc.nonconformity"))
	reporting := reportingsvc.NewService(store, baseLogger.Named("svc.reporting"))

	sinks := reportingsvc.Sinks{Recipient: cfg.Reporting.Recipient}

	var archive handlers.ReportArchive
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks.Archive = mongoRepo
		archive = mongoRepo
		baseLogger.Info("weekly report archive enabled", zap.String("db", cfg.MongoDB.DBName))
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		if _, err := sheets.EnsureHeader(ctx, sheetsRepo, cfg.Sheets.WeeklyRange, sheets.WeeklyHeader); err != nil {
			baseLogger.Warn("unable to write sheet header", zap.Error(err))
		}
		sinks.Sheet = sheetsRepo
		sinks.SheetRange = cfg.Sheets.WeeklyRange
	}

	var whatsClient *whatsappclient.APIClient
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
		if cfg.Reporting.Recipient != "" {
			sinks.Notifier = whatsappclient.NewNotifier(whatsClient)
		}
	}

	dispatcher := reportingsvc.NewDispatcher(reporting, sinks, baseLogger.Named("svc.delivery"))

	h := router.Handlers{
		Planning:      handlers.NewPlanningHandler(planning, baseLogger.Named("handlers.planning")),
		NonConformity: handlers.NewNonConformityHandler(reconciler, baseLogger.Named("handlers.nonconformity")),
		Stats:         handlers.NewStatsHandler(reporting, dispatcher, archive, baseLogger.Named("handlers.stats")),
		Catalog:       handlers.NewCatalogHandler(catalog, baseLogger.Named("handlers.catalog")),
	}

	if whatsClient != nil {
		var aiClient anthropic.Client
		if cfg.AI.AnthropicKey != "" {
			aiClient = anthropic.NewClient(cfg.AI.AnthropicKey, "")
			baseLogger.Info("anthropic ai client enabled")
		} else {
			baseLogger.Warn("anthropic api key missing, free text messages will not be translated")
		}

		commandDispatcher := commandsvc.NewService(planning, reconciler, reporting, baseLogger.Named("svc.commands"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, aiClient, baseLogger.Named("svc.whatsapp"))
		h.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp token missing, webhook and notifications disabled")
	}

	engine := router.New(h, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, dispatcher, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Database.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore selects the configured backend and loads the optional catalog seed.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (repository.Store, repository.CatalogLookup, func()) {
	var seed *repository.CatalogSeed
	if cfg.CatalogSeed != "" {
		var err error
		if seed, err = repository.LoadCatalogSeed(cfg.CatalogSeed); err != nil {
			log.Fatal("failed to load catalog seed", zap.Error(err))
		}
	}

	if cfg.Backend == config.BackendMemory {
		log.Warn("using in-memory store, data is lost on restart")
		var (
			refs   []models.CatalogReference
			phases []models.CatalogPhase
		)
		if seed != nil {
			refs, phases = seed.References, seed.Phases
		}
		return memory.NewStore(), memory.NewCatalog(refs, phases), func() {}
	}

	db, err := postgres.Open(ctx, cfg, log.Named("repo.postgres"))
	if err != nil {
		log.Fatal("failed to init postgres", zap.Error(err))
	}
	if seed != nil {
		if err := postgres.SeedCatalog(ctx, db, seed); err != nil {
			log.Fatal("failed to seed catalog", zap.Error(err))
		}
		log.Info("catalog seeded", zap.Int("references", len(seed.References)), zap.Int("phases", len(seed.Phases)))
	}

	return postgres.NewStore(db), postgres.NewCatalog(db), func() {
		if err := postgres.Close(db); err != nil {
			log.Error("failed to close postgres pool", zap.Error(err))
		}
	}
}
