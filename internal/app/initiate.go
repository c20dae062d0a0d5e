package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	goredislib "github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/shandysiswandi/goledger/internal/ledger/store"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goledger/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewTimeUUID()

	nodeID := int64(-1)
	if a.config.GetString("snowflake.node") != "" {
		nodeID = a.config.GetInt("snowflake.node")
	}

	sf, err := pkguid.NewSnowflake(nodeID)
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = sf
}

func (a *App) initResources() {
	if dsn := a.config.GetString("database.url"); dsn != "" {
		if dir := a.config.GetString("database.migrations.path"); dir != "" {
			if err := store.Migrate(dsn, dir); err != nil {
				slog.Error("failed to migrate database", "error", err)
				os.Exit(1)
			}
		}

		ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
		defer cancel()

		//nolint:gosec // bounded by config
		pool, err := store.NewPool(ctx, dsn, int32(a.config.GetInt("database.max_conns")))
		if err != nil {
			slog.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		a.pool = pool
		slog.Info("database connected")
	}

	if addr := a.config.GetString("redis.address"); addr != "" {
		client := goredislib.NewClient(&goredislib.Options{Addr: addr})

		ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect redis", "error", err)
			os.Exit(1)
		}
		a.redis = client
		slog.Info("redis connected", "address", addr)
	}
}

func (a *App) initHTTPServer() {
	var opts []pkgrouter.Option
	if a.pool != nil {
		opts = append(opts, pkgrouter.WithHealthCheck("database", a.pool.Ping))
	}
	if a.redis != nil {
		opts = append(opts, pkgrouter.WithHealthCheck("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}))
	}
	a.router = pkgrouter.NewRouter(a.uuid, opts...)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// initClosers registers the shared resources. It runs after initModules so
// module closers are already queued ahead of them.
func (a *App) initClosers() {
	if a.pool != nil {
		a.addCloser("Database", func(context.Context) error {
			a.pool.Close()
			return nil
		})
	}
	if a.redis != nil {
		a.addCloser("Redis", func(context.Context) error {
			return a.redis.Close()
		})
	}
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})
}
