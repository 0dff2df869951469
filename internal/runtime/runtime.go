package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rzbill/lodge/internal/catalog"
	cfgpkg "github.com/rzbill/lodge/internal/config"
	pebblestore "github.com/rzbill/lodge/internal/storage/pebble"
	"github.com/rzbill/lodge/pkg/log"
	"github.com/rzbill/lodge/pkg/logstore"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Outputs are attached to the logger after the console and storage outputs.
	Outputs []log.Output
}

// Runtime owns the logging stack for one process: the logger, the storage
// output with its enable switch, the log store and the optional catalog.
// It replaces process-wide logging globals; callers pass it around.
type Runtime struct {
	config  cfgpkg.Config
	logger  log.Logger
	storage *log.StorageOutput
	store   *logstore.Store
	catalog *catalog.Catalog
}

// Open validates the configuration and wires the logging stack.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime: invalid config: %w", err)
	}

	// Bootstrap logger for storage diagnostics until the full logger exists.
	boot, err := log.ApplyConfig(&log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, err
	}

	rt := &Runtime{config: cfg}
	var observer logstore.Observer
	if cfg.CatalogEnabled {
		c, err := catalog.Open(catalog.Options{
			DataDir: cfg.CatalogPath(),
			Fsync:   pebblestore.ParseFsyncMode(cfg.CatalogFsync),
			Logger:  boot,
		})
		if err != nil {
			// The catalog is an index; logging continues without it.
			boot.Warn("session catalog unavailable", log.Err(err))
		} else {
			rt.catalog = c
			observer = c
		}
	}

	store, err := logstore.Open(logstore.Options{
		Dir:            cfg.Directory,
		Extension:      cfg.Extension,
		MaxFiles:       cfg.MaxFiles,
		FlushThreshold: cfg.FlushThreshold,
		FlushInterval:  cfg.FlushInterval(),
		Logger:         boot,
		Observer:       observer,
	})
	if err != nil {
		if rt.catalog != nil {
			_ = rt.catalog.Close()
		}
		return nil, err
	}
	rt.store = store
	rt.storage = log.NewStorageOutput(store, log.WithStorageEnabled(cfg.StorageEnabled))

	outputs := append([]log.Output{rt.storage}, opts.Outputs...)
	logger, err := log.ApplyConfig(&log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Redact: cfg.Redact}, outputs...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.logger = logger
	rt.storage.SetReporter(logger)
	store.SetLogger(logger)
	return rt, nil
}

// Close flushes and closes the store, then the catalog.
func (r *Runtime) Close() error {
	var result *multierror.Error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if r.catalog != nil {
		if err := r.catalog.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// CheckHealth verifies the storage directory is usable and the catalog
// answers reads.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.store.LogsDirectory(); !ok {
		return fmt.Errorf("%w: %s", logstore.ErrDirectoryUnavailable, r.store.Dir())
	}
	if r.catalog != nil {
		it, err := r.catalog.DB().NewIter(nil)
		if err != nil {
			return err
		}
		it.Close()
	}
	return nil
}

// Logger returns the configured logger.
func (r *Runtime) Logger() log.Logger { return r.logger }

// Storage returns the storage output, which owns the enable switch and the
// read-back facade.
func (r *Runtime) Storage() *log.StorageOutput { return r.storage }

// Store exposes the log store.
func (r *Runtime) Store() *logstore.Store { return r.store }

// Catalog returns the session catalog, or nil when disabled or unavailable.
func (r *Runtime) Catalog() *catalog.Catalog { return r.catalog }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
