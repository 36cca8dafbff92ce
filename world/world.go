// Package world provides the public constructors for running a frostvale
// world server. The heavy lifting lives in the internal packages; this
// package wires the dispatch core, the plugin set and the store together.
package world

import (
	"context"
	"log/slog"
	"os"

	"github.com/frostvale/frostvale/internal/catalog"
	"github.com/frostvale/frostvale/internal/config"
	"github.com/frostvale/frostvale/internal/store"
	iworld "github.com/frostvale/frostvale/internal/world"
	"github.com/frostvale/frostvale/internal/world/plugins"
)

// Aliases for the types a caller interacts with.
type (
	Server     = iworld.Server
	Handler    = iworld.Handler
	User       = iworld.User
	Config     = config.Config
	Catalog    = catalog.Catalog
	Store      = store.Store
	UserRecord = store.UserRecord
)

// New builds a ready-to-start world server with the full plugin set
// registered. A nil catalog selects the built-in content; a nil logger
// builds one from the configured level.
func New(cfg *Config, name string, st Store, cat *Catalog, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		}))
	}

	srv, err := iworld.NewServer(cfg, name, st, cat, log)
	if err != nil {
		return nil, err
	}
	plugins.Register(srv.Handler())
	return srv, nil
}

// DefaultConfig returns the single-world development configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultCatalog returns the built-in content set.
func DefaultCatalog() *Catalog {
	return catalog.Default()
}

// LoadCatalog reads a catalog JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	return catalog.Load(path)
}

// NewMemoryStore returns the in-process store, for development and tests.
func NewMemoryStore() Store {
	return store.NewMemory()
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (Store, error) {
	return store.NewRedis(ctx, addr)
}
