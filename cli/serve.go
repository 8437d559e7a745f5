package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/auralab/aura/engine/astro"
	"github.com/auralab/aura/engine/biofield"
	"github.com/auralab/aura/engine/biorhythm"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/engine/enneagram"
	"github.com/auralab/aura/engine/facereading"
	"github.com/auralab/aura/engine/genekeys"
	"github.com/auralab/aura/engine/geometry"
	"github.com/auralab/aura/engine/humandesign"
	"github.com/auralab/aura/engine/iching"
	"github.com/auralab/aura/engine/infra/cache"
	"github.com/auralab/aura/engine/infra/monitoring"
	"github.com/auralab/aura/engine/infra/postgres"
	"github.com/auralab/aura/engine/infra/reaper"
	"github.com/auralab/aura/engine/infra/server"
	"github.com/auralab/aura/engine/numerology"
	"github.com/auralab/aura/engine/orchestrator"
	"github.com/auralab/aura/engine/refdata"
	"github.com/auralab/aura/engine/sigil"
	"github.com/auralab/aura/engine/tarot"
	"github.com/auralab/aura/engine/vedicclock"
	"github.com/auralab/aura/engine/vimshottari"
	"github.com/auralab/aura/engine/workflow"
	"github.com/auralab/aura/pkg/config"
	"github.com/auralab/aura/pkg/logger"
	"github.com/auralab/aura/pkg/version"
	"github.com/spf13/cobra"
)

// ServeCmd starts the HTTP service.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the aura HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	cmd.Flags().String("log-level", "info", "override the configured log level (debug|info|warn|error|disabled)")
	cmd.Flags().Bool("log-json", false, "override the configured log format with JSON")
	cmd.Flags().Bool("log-source", false, "include source locations in log lines")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewService().Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	level, logJSON, logSource := cfg.Log.Level, cfg.Log.JSON, cfg.Log.Source
	if flagLevel, flagJSON, flagSource, err := logger.GetLoggerConfig(cmd); err == nil {
		if cmd.Flags().Changed("log-level") {
			level = flagLevel
		}
		if cmd.Flags().Changed("log-json") {
			logJSON = flagJSON
		}
		if cmd.Flags().Changed("log-source") {
			logSource = flagSource
		}
	}
	logger.SetupLogger(level, logJSON, logSource)
	log := logger.FromContext(ctx)
	ctx = logger.ContextWithLogger(ctx, log)
	log.Info("Starting aura", "version", version.GetVersion())

	set, err := refdata.Load()
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	eph, closeEph, err := buildEphemeris(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEph()

	registry := buildRegistry(eph, set)

	deps := server.Dependencies{Version: version.GetVersion()}
	orchOpts := orchestrator.Options{
		Registry:             registry,
		CacheTTL:             cfg.Cache.TTL,
		RunTimeout:           cfg.Engine.RunTimeout,
		PersistTimeout:       cfg.Engine.PersistTimeout,
		MaxParallel:          cfg.Engine.MaxParallel,
		DefaultRetentionDays: cfg.Retention.DefaultDays,
		MaxRetentionDays:     cfg.Retention.MaxDays,
		BiometricMaxDays:     cfg.Retention.BiometricMaxDays,
	}

	if cfg.Cache.Enabled {
		redisConn, err := cache.NewRedis(ctx, &cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, running without the reading cache", "error", err)
		} else {
			defer redisConn.Close()
			readingCache := cache.NewReadingCache(redisConn.Client(), cfg.Cache.TTL)
			orchOpts.Cache = readingCache
			deps.Cache = readingCache
		}
	}

	store, err := postgres.NewStore(ctx, &cfg.Database)
	if err != nil {
		log.Warn("Postgres unavailable, running without reading persistence", "error", err)
	} else {
		defer store.Close(context.WithoutCancel(ctx))
		if cfg.Database.AutoMigrate {
			if err := postgres.ApplyMigrationsWithLock(ctx, cfg.Database.DSN()); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
		}
		repo := postgres.NewReadingRepo(store.Pool(), registry.Names())
		orchOpts.Store = repo
		deps.Readings = repo
		if cfg.Retention.ReaperEnabled {
			r := reaper.New(repo, cfg.Retention.ReaperSchedule)
			if err := r.Start(ctx); err != nil {
				return err
			}
			defer r.Stop()
			deps.Sweeper = r
		}
	}

	mon := monitoring.NewServiceWithFallback(ctx, monitoring.DefaultConfig())
	mon.SetAsGlobal()
	defer mon.Shutdown(context.WithoutCancel(ctx))

	orch := orchestrator.New(orchOpts)
	deps.Orchestrator = orch
	deps.Workflows = workflow.NewManager(orch)
	deps.Ephemeris = eph
	deps.Monitoring = mon

	srv, err := server.NewServer(ctx, cfg, deps)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

// buildEphemeris wires the Swiss Ephemeris behind the memo layer. Without
// ephemeris data files the deterministic stub serves instead, so the
// birth-data engines stay usable in development.
func buildEphemeris(ctx context.Context, cfg *config.Config) (astro.Ephemeris, func(), error) {
	log := logger.FromContext(ctx)
	var inner astro.Ephemeris
	if cfg.Ephemeris.DataPath == "" {
		log.Warn("No ephemeris data path configured, using the stub ephemeris")
		inner = astro.NewStub()
	} else {
		inner = astro.NewSwissEphemeris(cfg.Ephemeris.DataPath)
	}
	memo, err := astro.NewMemoized(inner, int(cfg.Ephemeris.MemoizeSize))
	if err != nil {
		return nil, nil, fmt.Errorf("build ephemeris: %w", err)
	}
	return memo, func() { memo.Close() }, nil
}

func buildRegistry(eph astro.Ephemeris, set *refdata.Set) *core.Registry {
	registry := core.NewRegistry()
	registry.MustRegister(
		numerology.New(),
		biorhythm.New(),
		tarot.New(set),
		iching.New(set),
		genekeys.New(eph, set),
		enneagram.New(set),
		geometry.New(set),
		sigil.New(),
		facereading.New(),
		biofield.New(),
		vedicclock.New(),
		humandesign.New(eph, set),
		vimshottari.New(eph, set),
	)
	return registry
}
