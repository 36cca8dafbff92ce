// Command frostvale runs one world server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frostvale/frostvale/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML configuration file")
		worldName  = flag.String("world", "blizzard", "world to run, as named in the configuration")
	)
	flag.Parse()

	cfg := world.DefaultConfig()
	if *configPath != "" {
		loaded, err := world.LoadConfig(*configPath)
		if err != nil {
			slog.Error("config load failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		cfg = loaded
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var st world.Store
	if cfg.Redis.Addr != "" {
		rst, err := world.NewRedisStore(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Error("redis connect failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		st = rst
		log.Info("using redis store", slog.String("addr", cfg.Redis.Addr))
	} else {
		st = world.NewMemoryStore()
		log.Warn("using in-memory store; state is lost on restart")
	}

	var cat *world.Catalog
	if cfg.CatalogPath != "" {
		loaded, err := world.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Error("catalog load failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		cat = loaded
	}

	srv, err := world.New(cfg, *worldName, st, cat, log)
	if err != nil {
		log.Error("world setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(ctx); err != nil {
		log.Error("world start failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		log.Error("shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
