package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sqlimport/internal/config"
	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/ddl"
	"github.com/JonMunkholm/sqlimport/internal/loader"
	"github.com/JonMunkholm/sqlimport/internal/logging"
	"github.com/JonMunkholm/sqlimport/internal/web"
)

func main() {
	// Overload lets a local .env win over inherited variables.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.Database.Enabled(),
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"import_max_rows", cfg.Import.MaxRows,
		"dialect", cfg.Import.Dialect,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	catalog := core.NewSchemaCatalog()
	if len(cfg.Import.SchemaFiles) > 0 {
		tables, err := ddl.ParseFiles(cfg.Import.SchemaFiles...)
		if err != nil {
			slog.Error("failed to load schema files", "error", err)
			os.Exit(1)
		}
		catalog.PutAll(tables)
		slog.Info("schemas preloaded", "files", len(cfg.Import.SchemaFiles), "tables", catalog.Len())

		if cfg.Import.SchemaReloadInterval > 0 {
			go ddl.NewReloader(catalog, cfg.Import.SchemaFiles...).Run(ctx, cfg.Import.SchemaReloadInterval)
		}
	}

	opts := []web.Option{web.WithCatalog(catalog)}
	if cfg.Database.Enabled() {
		pool, err := loader.Connect(ctx, loader.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("connected to database", "name", loader.DatabaseName(cfg.Database.URL))

		l := loader.New(pool)
		l.Schema = cfg.Database.Schema
		opts = append(opts, web.WithLoader(l))
	} else {
		slog.Info("no database configured, apply endpoint disabled")
	}

	server := web.NewServer(ctx, cfg, opts...)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
