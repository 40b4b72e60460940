package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"obraportal_backend/internal/board"
	domainevents "obraportal_backend/internal/events"
	apphttp "obraportal_backend/internal/http"
	"obraportal_backend/internal/http/router"
	"obraportal_backend/internal/leads"
	"obraportal_backend/internal/leads/domain"
	"obraportal_backend/internal/leads/repository"
	"obraportal_backend/internal/leads/store"
	"obraportal_backend/internal/pipeline"
	"obraportal_backend/platform/config"
	"obraportal_backend/platform/db"
	"obraportal_backend/platform/events"
	"obraportal_backend/platform/httpkit"
	"obraportal_backend/platform/logger"
	"obraportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "remote_mode", cfg.IsRemoteMode())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	reg, err := pipeline.Load(cfg.PipelineStagesFile)
	if err != nil {
		log.Error("failed to load pipeline stage registry", "error", err)
		panic("failed to load pipeline stage registry: " + err.Error())
	}
	log.Info("pipeline stage registry loaded", "stages", len(reg.Stages()))

	// The store mode is decided exactly once, here. Everything downstream
	// sees the same Store interface.
	var (
		leadStore store.Store
		health    apphttp.HealthChecker
	)
	if cfg.IsRemoteMode() {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, "migrations")
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")

		var pool *pgxpool.Pool
		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
		log.Info("database connection established")

		remote := store.NewRemote(reg, repository.New(pool), log)
		if err := withRetry(ctx, log, "initial lead refresh", 5, 2*time.Second, func() error {
			return remote.Refresh(ctx)
		}); err != nil {
			log.Error("failed to load initial lead snapshot", "error", err)
			panic("failed to load initial lead snapshot: " + err.Error())
		}

		leadStore = remote
		health = db.NewPoolAdapter(pool)
	} else {
		var seed []domain.Lead
		if cfg.SeedDemoData {
			seed = store.DemoSeed()
		}
		local, err := store.NewMemory(reg, cfg.LocalSnapshotPath, seed, log)
		if err != nil {
			log.Error("failed to initialize local lead store", "error", err)
			panic("failed to initialize local lead store: " + err.Error())
		}
		leadStore = local
		log.Info("local lead store ready", "snapshot", cfg.LocalSnapshotPath, "leads", len(local.List()))
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	subscribeAuditLog(eventBus, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(leadStore, reg, eventBus, val)
	boardModule := board.NewModule(leadStore, leadsModule.Service(), reg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			boardModule,
		},
	}

	limiter := httpkit.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst, log)
	engine := router.New(app, limiter)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}

// subscribeAuditLog logs lifecycle events as they flow through the bus.
func subscribeAuditLog(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(domainevents.LeadCreatedName, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domainevents.LeadCreated); ok {
			log.Info("lead created", "lead_id", e.LeadID, "stage", string(e.Stage))
		}
		return nil
	}))
	bus.Subscribe(domainevents.LeadStageChangedName, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domainevents.LeadStageChanged); ok {
			log.StageTransition(e.LeadID.String(), string(e.From), string(e.To))
		}
		return nil
	}))
	bus.Subscribe(domainevents.LeadDeletedName, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domainevents.LeadDeleted); ok {
			log.Info("lead deleted", "lead_id", e.LeadID)
		}
		return nil
	}))
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
