// Package memo is an incremental, persistent memoization core: it lets an
// application register actions (functions with a declared version or
// functor identity, and argument/return fields tagged as source or
// destination files) and Call them over and over across process runs,
// re-running only the ones whose inputs actually changed.
package memo

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/fbuild-go/memo/internal/logx"
	"github.com/fbuild-go/memo/internal/metrics"
)

// DB is a memoization database: the tables tracking what has been computed
// before, a serializer making concurrent access to them safe, and the
// options it was opened with.
type DB struct {
	backend    *Backend
	serializer *Serializer
	opts       Options
	inflight   singleflight.Group
}

// Open creates or loads a database. If opts.path (see WithPath) already
// names a file written by a previous Save, its contents are loaded before
// Open returns; a missing file is treated as an empty, brand-new database.
func Open(opts ...Option) (*DB, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger != nil {
		logx.SetLogger(o.logger)
	}
	if o.registerer != nil {
		if err := metrics.Register(o.registerer); err != nil {
			return nil, err
		}
	}

	if dir := filepath.Dir(o.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	backend := NewBackend(o.mtimeGrace)
	if err := backend.Load(o.path); err != nil {
		return nil, err
	}

	return &DB{
		backend:    backend,
		serializer: NewSerializer(backend),
		opts:       o,
	}, nil
}

// Save persists the database's current state to the path it was opened
// with, using the tmp-file/rename dance described in internal/snapshot so a
// crash mid-write can never leave a half-written database in place.
func (db *DB) Save(ctx context.Context) error {
	_, err := db.serializer.Do(ctx, func(b *Backend) (interface{}, error) {
		return nil, b.Save(db.opts.path, db.opts.compress)
	})
	return err
}

// ClearFunction forgets every call ever cached for name, forcing its next
// Call to recompute regardless of whether its arguments or files changed.
func (db *DB) ClearFunction(ctx context.Context, name string) error {
	_, err := db.serializer.Do(ctx, func(b *Backend) (interface{}, error) {
		b.ClearFunction(name)
		return nil, nil
	})
	return err
}

// ClearFile forgets everything the database knows about path, forcing
// every call that takes it through a src-role argument to be treated as
// dirty next time. A dst is only ever checked for existence, so clearing
// one does not by itself make a call dirty, and path is also dropped from
// every call's recorded external dependencies.
func (db *DB) ClearFile(ctx context.Context, path string) error {
	_, err := db.serializer.Do(ctx, func(b *Backend) (interface{}, error) {
		b.ClearFile(path)
		return nil, nil
	})
	return err
}

// Close stops the database's serializer goroutine. It does not save; call
// Save first if the current state should survive the process exiting.
func (db *DB) Close() error {
	return db.serializer.Close()
}
