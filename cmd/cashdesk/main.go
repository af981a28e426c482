package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cashdesk/cashdesk/internal/auth"
	"github.com/cashdesk/cashdesk/internal/cache"
	"github.com/cashdesk/cashdesk/internal/clock"
	"github.com/cashdesk/cashdesk/internal/config"
	"github.com/cashdesk/cashdesk/internal/email"
	"github.com/cashdesk/cashdesk/internal/heldsale"
	httpx "github.com/cashdesk/cashdesk/internal/http"
	"github.com/cashdesk/cashdesk/internal/http/router"
	"github.com/cashdesk/cashdesk/internal/infra/cachefactory"
	"github.com/cashdesk/cashdesk/internal/observability/logger"
	"github.com/cashdesk/cashdesk/internal/store/core"
	"github.com/cashdesk/cashdesk/internal/store/memory"
	"github.com/cashdesk/cashdesk/internal/store/pg"
	"github.com/cashdesk/cashdesk/internal/tenant"
	"github.com/cashdesk/cashdesk/migrations"
)

func main() {
	// .env es opcional; en prod la config viene del entorno real.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "cashdesk",
		Short:         "Backend multi-tenant de punto de venta",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path al YAML de config (opcional)")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(migrateCmd(&configPath))
	root.AddCommand(cleanupCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "cashdesk"})
	return cfg, nil
}

func openRepo(ctx context.Context, cfg *config.Config) (core.Repository, error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.L().Warn("storage driver memory: solo para dev, nada persiste")
		return memory.New(), nil
	case "postgres":
		return pg.New(ctx, cfg.Storage.DSN, pg.PoolConfig{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("storage driver desconocido: %q", cfg.Storage.Driver)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servicio HTTP y el cleaner de ventas expiradas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret requerido (env AUTH_JWT_SECRET)")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repo, err := openRepo(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			counts := cachefactory.New(cache.Config{
				Kind:   cfg.Cache.Kind,
				Addr:   cfg.Cache.Redis.Addr,
				DB:     cfg.Cache.Redis.DB,
				Prefix: cfg.Cache.Redis.Prefix,
				TTL:    cfg.MemoryCacheTTL(),
			})
			defer counts.Close()

			clk := clock.System()
			issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, 0)

			tenants := tenant.NewService(repo, clk)
			if cfg.SMTP.Enabled {
				tenants = tenants.WithWelcomer(email.NewSMTPWelcomer(
					cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From))
			}
			heldSales := heldsale.NewService(repo, clk, cfg.Retention()).WithCountCache(counts)

			handler, err := router.New(router.Deps{
				Repo:        repo,
				Tenants:     tenants,
				HeldSales:   heldSales,
				Issuer:      issuer,
				CORSOrigins: cfg.Server.CORSAllowedOrigins,
			})
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.L().Info("http server listening", zap.String("addr", cfg.Server.Addr))
				return httpx.Serve(gctx, cfg.Server.Addr, handler)
			})
			g.Go(func() error {
				return heldsale.NewCleaner(heldSales, cfg.CleanupInterval()).Run(gctx)
			})

			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			logger.L().Info("shutdown complete")
			return err
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas contra PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres")
			}

			ctx := context.Background()
			store, err := pg.New(ctx, cfg.Storage.DSN, pg.PoolConfig{})
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RunMigrations(ctx, migrations.FS, "postgres"); err != nil {
				return err
			}
			logger.L().Info("migrations applied")
			return nil
		},
	}
}

func cleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-held-sales",
		Short: "Purga una sola vez las ventas en espera expiradas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := context.Background()
			repo, err := openRepo(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := heldsale.NewService(repo, clock.System(), cfg.Retention())
			n, err := svc.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", n)
			return nil
		},
	}
}
