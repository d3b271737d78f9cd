package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/conversation"
	"github.com/willfong/insurance-assistant/internal/credential"
	"github.com/willfong/insurance-assistant/internal/data"
	"github.com/willfong/insurance-assistant/internal/database"
	"github.com/willfong/insurance-assistant/internal/metrics"
	"github.com/willfong/insurance-assistant/internal/recorder"
	"github.com/willfong/insurance-assistant/internal/server"
	"github.com/willfong/insurance-assistant/internal/session"
)

// app holds the components shared by serve, chat and simulate
type app struct {
	cfg *config.Config

	ref      *data.ReferenceData
	pool     *database.Pool // nil unless a mysql component is configured
	redis    *redis.Client  // nil unless the redis session store is configured
	store    session.Store
	recorder *recorder.Writer
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	orch     *conversation.Orchestrator

	stopJanitor context.CancelFunc
	auditLog    *slog.Logger
}

// appOption customises component wiring for a subcommand
type appOption func(*app)

// withAuditLogger sends log-backend records to l instead of the default logger
func withAuditLogger(l *slog.Logger) appOption {
	return func(a *app) {
		a.auditLog = l
	}
}

// newApp wires every component from configuration. Close must be called
// on success to flush records and release connections.
func newApp(ctx context.Context, cfg *config.Config, opts ...appOption) (a *app, err error) {
	a = &app{cfg: cfg, stopJanitor: func() {}, auditLog: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	if cfg.Reference.Source == "mysql" || cfg.Audit.Backend == "mysql" {
		if err = a.openDatabase(ctx); err != nil {
			return a, err
		}
	}

	if a.ref, err = a.loadReference(ctx); err != nil {
		return a, err
	}
	slog.Info("cmd.app: reference data loaded", "source", cfg.Reference.Source, "counts", a.ref.Stats())

	if err = a.openStore(ctx); err != nil {
		return a, err
	}

	verifier, err := credential.New(credential.Kind(cfg.Credentials.Verifier))
	if err != nil {
		return a, err
	}
	policy, err := conversation.ParseCompletionPolicy(cfg.Session.FeedbackCompletion)
	if err != nil {
		return a, err
	}

	a.recorder = recorder.New(a.recorderBackend(), recorder.Config{
		BufferSize:    cfg.Audit.BufferSize,
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
		Workers:       cfg.Audit.Workers,
		WriteTimeout:  recorder.DefaultConfig().WriteTimeout,
	}, recorder.WithMetrics(a.metrics))
	a.recorder.Start()

	a.orch = conversation.New(a.store, a.ref, a.recorder, a.recorder,
		conversation.WithVerifier(verifier),
		conversation.WithCompletionPolicy(policy),
		conversation.WithMetrics(a.metrics),
	)
	return a, nil
}

func (a *app) openDatabase(ctx context.Context) error {
	pool, err := database.NewPool(a.cfg.Database)
	if err != nil {
		return err
	}
	a.pool = pool
	if err := pool.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func (a *app) loadReference(ctx context.Context) (*data.ReferenceData, error) {
	if a.cfg.Reference.Source != "mysql" {
		return data.Load()
	}
	ref, err := database.NewQueries(a.pool).LoadReference(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	return ref, nil
}

func (a *app) openStore(ctx context.Context) error {
	opts := []session.StoreOption{session.WithIdleTimeout(a.cfg.Session.IdleTimeout)}

	if session.StoreType(a.cfg.Session.Store) == session.StoreTypeRedis {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.Redis.Addr, err)
		}
		opts = append(opts, session.WithRedisClient(a.redis), session.WithKeyPrefix(a.cfg.Redis.KeyPrefix))
	}

	store, err := session.NewStore(session.StoreType(a.cfg.Session.Store), opts...)
	if err != nil {
		return err
	}
	a.store = store

	if mem, ok := store.(*session.MemoryStore); ok && a.cfg.Session.SweepInterval > 0 {
		janitorCtx, cancel := context.WithCancel(context.Background())
		a.stopJanitor = cancel
		go mem.RunJanitor(janitorCtx, a.cfg.Session.SweepInterval)
	}
	return nil
}

func (a *app) recorderBackend() recorder.Backend {
	if a.cfg.Audit.Backend == "mysql" {
		return database.NewQueries(a.pool)
	}
	return recorder.NewLogBackend(a.auditLog)
}

// serverOptions returns health checks for every external dependency
func (a *app) serverOptions() []server.Option {
	opts := []server.Option{server.WithGatherer(a.registry)}
	if rs, ok := a.store.(*session.RedisStore); ok {
		opts = append(opts, server.WithHealthCheck("redis", rs.Ping))
	}
	if a.pool != nil {
		opts = append(opts, server.WithHealthCheck("mysql", a.pool.Connect))
	}
	return opts
}

// Close flushes the recorder and releases every connection
func (a *app) Close() error {
	var errs []error

	a.stopJanitor()
	if a.recorder != nil {
		if err := a.recorder.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("recorder: %w", err))
		}
		stats := a.recorder.GetStats()
		slog.Info("cmd.app: recorder stopped",
			"written", stats.Written, "dropped", stats.Dropped, "write_errors", stats.WriteErrors)
	}
	// The store owns the redis client once created
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session store: %w", err))
		}
	} else if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
