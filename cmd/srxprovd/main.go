// Srxprovd - JSON HTTP API daemon for SRX configuration automation.
//
// Configuration is taken from the environment:
//
//	SRXPROV_ADDR             listen address (default :8080)
//	SRXPROV_INVENTORY        inventory file path (required)
//	SRXPROV_HISTORY_BACKEND  file | sqlite | redis | memory (default file)
//	SRXPROV_HISTORY_PATH     file/sqlite path (default data/history.jsonl or data/history.db)
//	SRXPROV_REDIS_ADDR       redis address for the redis backend
//	SRXPROV_LOG_LEVEL        logrus level (default info)
//	SRXPROV_LOG_JSON         true for JSON logs
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/srxprov/srxprov/pkg/api"
	"github.com/srxprov/srxprov/pkg/history"
	"github.com/srxprov/srxprov/pkg/inventory"
	"github.com/srxprov/srxprov/pkg/provision"
	"github.com/srxprov/srxprov/pkg/util"
	"github.com/srxprov/srxprov/pkg/version"
)

type config struct {
	Addr           string `env:"SRXPROV_ADDR" envDefault:":8080"`
	InventoryPath  string `env:"SRXPROV_INVENTORY,required"`
	HistoryBackend string `env:"SRXPROV_HISTORY_BACKEND" envDefault:"file"`
	HistoryPath    string `env:"SRXPROV_HISTORY_PATH"`
	RedisAddr      string `env:"SRXPROV_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	LogLevel       string `env:"SRXPROV_LOG_LEVEL" envDefault:"info"`
	LogJSON        bool   `env:"SRXPROV_LOG_JSON" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := util.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.LogJSON {
		util.SetJSONFormat()
	}

	inv, err := inventory.Load(cfg.InventoryPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	exec := provision.NewExecutor(inv, store)
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewServer(exec, store).Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // commits can be slow
		IdleTimeout:  120 * time.Second,
	}

	util.Infof("Starting srxprovd %s on %s (history: %s)", version.Info(), cfg.Addr, cfg.HistoryBackend)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		util.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	exec.Wait() // flush pending history appends
	return nil
}

func openStore(cfg config) (history.Store, error) {
	switch cfg.HistoryBackend {
	case "file":
		path := cfg.HistoryPath
		if path == "" {
			path = "data/history.jsonl"
		}
		return history.NewFileStore(path)
	case "sqlite":
		path := cfg.HistoryPath
		if path == "" {
			path = "data/history.db"
		}
		return history.NewSQLiteStore(path)
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return history.NewRedisStore(ctx, cfg.RedisAddr)
	case "memory":
		return history.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}
