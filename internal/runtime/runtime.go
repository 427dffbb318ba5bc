package runtime

import (
	"context"
	"errors"

	cfgpkg "github.com/streamhub/streamhub/internal/config"
	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
	"github.com/streamhub/streamhub/pkg/id"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
}

// Runtime wires storage, config, and ID generation for a single-node
// instance. Every store package (subscription, blacklist, toggles) is
// opened against the same DB handle, the way the teacher's Runtime wires
// eventlog/workqueue/namespace against one pebblestore.DB.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	ids    *id.Generator
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}
	return &Runtime{db: db, config: opts.Config, ids: id.NewGenerator()}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check against the storage layer.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// DB exposes the underlying store for package-level store constructors
// (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// IDs returns the process-wide ID generator used to mint subscription IDs.
func (r *Runtime) IDs() *id.Generator { return r.ids }
