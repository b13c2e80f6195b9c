package cli

import (
	"fmt"

	"github.com/roach88/trellis/internal/config"
	"github.com/roach88/trellis/pkg/graph"
	"github.com/roach88/trellis/pkg/storage"
)

// loadConfig layers flag overrides over the config file (or defaults when
// no file is given) and validates the result.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.Backend != "" {
		cfg.Storage.Backend = o.Backend
	}
	if o.DataPath != "" {
		cfg.Storage.Path = o.DataPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openEngine opens the configured storage backend.
func openEngine(cfg *config.Config) (storage.Engine, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		return storage.OpenBadger(storage.BadgerOptions{Dir: cfg.Storage.Path})
	case config.BackendSQLite:
		return storage.OpenSQLite(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// openStore opens the engine and wraps it in a store. The engine handle is
// returned alongside for callers that also need the token keyspace; closing
// the store closes the engine.
func openStore(o *RootOptions) (*graph.Store, storage.Engine, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "loading config", err)
	}

	eng, err := openEngine(cfg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "opening store", err)
	}

	var opts []graph.Option
	if cfg.Storage.AdjacencyIndex {
		opts = append(opts, graph.WithAdjacencyIndex())
	}
	return graph.New(eng, opts...), eng, nil
}