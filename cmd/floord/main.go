// Command floord serves the restaurant floor ledger over HTTP and websockets.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/api"
	audit_hook "github.com/gastroflow/ledger/audit_hook"
	"github.com/gastroflow/ledger/auth"
	"github.com/gastroflow/ledger/internal/config"
	"github.com/gastroflow/ledger/internal/jobs"
	"github.com/gastroflow/ledger/internal/logging"
	"github.com/gastroflow/ledger/observability"
	"github.com/gastroflow/ledger/relay"
	"github.com/gastroflow/ledger/relay/kafka"
	"github.com/gastroflow/ledger/relay/redis"
	"github.com/gastroflow/ledger/store"
	"github.com/gastroflow/ledger/store/memory"
	"github.com/gastroflow/ledger/store/postgres"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/transport/ws"
	"github.com/gastroflow/ledger/user"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "floord:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s store: %w", cfg.Store.Kind, err)
	}
	if err := seedTenants(ctx, s, cfg.Tenants); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithPluginTimeout(cfg.PluginTimeout),
		ledger.WithTracer(otel.Tracer("github.com/gastroflow/ledger")),
		// Migrate already ran above, before tenants were seeded.
		ledger.WithoutMigrate(),
	}
	if cfg.EnableMetrics {
		opts = append(opts, ledger.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))))
	}
	if cfg.EnableAudit {
		opts = append(opts, ledger.WithPlugin(audit_hook.New(audit_hook.SlogRecorder(logger), audit_hook.WithLogger(logger))))
	}
	relays, err := openRelays(ctx, cfg, logger)
	if err != nil {
		return err
	}
	for _, r := range relays {
		opts = append(opts, ledger.WithPlugin(r))
	}

	l := ledger.New(s, opts...)
	if err := l.Start(ctx); err != nil {
		return fmt.Errorf("start ledger: %w", err)
	}
	defer func() {
		if err := l.Stop(); err != nil {
			logger.Error("floord: stop ledger", "error", err)
		}
	}()

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL)
	if err := bootstrapAdmins(ctx, l, tokens, cfg.TenantIDs(), logger); err != nil {
		return err
	}

	scheduler := jobs.NewScheduler(l, cfg.TenantIDs(), logger)
	if cfg.Jobs.StockSweep != "" {
		if err := scheduler.ScheduleStockSweep(cfg.Jobs.StockSweep); err != nil {
			return err
		}
	}
	scheduler.Start()

	gin.SetMode(cfg.Server.Mode)
	corsConfig := api.DefaultCORS()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	router := newRouter(l, tokens, corsConfig, reg, logger)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("floord: listening", "addr", cfg.Server.Addr, "store", cfg.Store.Kind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("floord: shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("floord: http shutdown", "error", err)
	}
	scheduler.Stop(shutdownCtx)
	return nil
}

func newRouter(l *ledger.Ledger, tokens *auth.Manager, corsConfig cors.Config, reg *prometheus.Registry, logger *slog.Logger) *gin.Engine {
	router := api.New(l, tokens, api.WithLogger(logger)).Router(corsConfig)

	events := ws.NewServer(l, tokens,
		ws.WithLogger(logger),
		ws.WithAllowedOrigins(corsConfig.AllowOrigins...),
	)
	router.GET("/ws", gin.WrapH(events))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	router.GET("/health", func(c *gin.Context) {
		if err := l.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_connections": events.Active()})
	})
	return router
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Kind {
	case config.StorePostgres:
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.New(db), nil
	default:
		return memory.New(), nil
	}
}

func openRelays(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]*relay.Relay, error) {
	var relays []*relay.Relay
	if cfg.Redis.Addr != "" {
		r, err := redis.NewRelay(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, relay.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		relays = append(relays, r)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		relays = append(relays, kafka.NewRelay(cfg.Kafka.Brokers, cfg.Kafka.Topic, relay.WithLogger(logger)))
	}
	return relays, nil
}

// seedTenants provisions the configured tenants. Existing tenants are left
// as they are.
func seedTenants(ctx context.Context, s store.Store, seeds []config.TenantSeed) error {
	for _, seed := range seeds {
		err := s.CreateTenant(ctx, &tenant.Tenant{ID: seed.ID, Name: seed.ID, Plan: seed.Plan})
		if err != nil && !errors.Is(err, ledger.ErrAlreadyExists) {
			return fmt.Errorf("seed tenant %s: %w", seed.ID, err)
		}
	}
	return nil
}

// bootstrapAdmins gives every tenant without users an admin account and logs
// a token for it.
func bootstrapAdmins(ctx context.Context, l *ledger.Ledger, tokens *auth.Manager, tenantIDs []string, logger *slog.Logger) error {
	for _, tenantID := range tenantIDs {
		users, err := l.ListUsers(ctx, tenantID, user.ListOpts{})
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", tenantID, err)
		}
		if len(users) > 0 {
			continue
		}
		admin, err := l.InsertUser(ctx, tenantID, user.CreateRequest{
			Name:  "Administrador",
			Email: "admin@" + tenantID + ".local",
			Role:  user.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", tenantID, err)
		}
		token, err := tokens.Issue(admin)
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", tenantID, err)
		}
		logger.Warn("floord: created admin user", "tenant_id", tenantID, "user_id", admin.ID.String(), "token", token)
	}
	return nil
}
