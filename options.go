package memo

import (
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/fbuild-go/memo/internal/filereg"
)

// Options configures a DB. Construct one via Open, not directly; its zero
// value is not meaningful.
type Options struct {
	path       string
	mtimeGrace time.Duration
	compress   bool
	registerer prometheus.Registerer
	logger     *logrus.Logger
}

// Option configures an aspect of a DB at Open time.
type Option func(*Options)

// WithPath overrides the file the database is persisted to. The default is
// a path under the user's home directory cache folder.
func WithPath(path string) Option {
	return func(o *Options) { o.path = path }
}

// WithMtimeGrace overrides the file registry's mtime-resolution safety
// window. The default, filereg.DefaultGrace, matches what most filesystems
// need; shortening it trades correctness on coarse-mtime filesystems for
// fewer redundant re-reads.
func WithMtimeGrace(d time.Duration) Option {
	return func(o *Options) { o.mtimeGrace = d }
}

// WithCompression turns on zstd compression of the persisted snapshot.
func WithCompression(enabled bool) Option {
	return func(o *Options) { o.compress = enabled }
}

// WithMetricsRegistry registers the database's Prometheus collectors
// against reg instead of the default registry. Passing nil disables
// registration entirely.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(o *Options) { o.registerer = reg }
}

// WithLogger routes the database's structured log output through l instead
// of logrus.StandardLogger().
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) { o.logger = l }
}

func defaultOptions() Options {
	return Options{
		path:       defaultPath(),
		mtimeGrace: filereg.DefaultGrace,
		registerer: prometheus.DefaultRegisterer,
	}
}

func defaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		// No resolvable home directory (e.g. a minimal container): fall
		// back to a relative path rather than failing Open outright.
		return filepath.Join(".cache", "memo", "memo.db")
	}
	return filepath.Join(home, ".cache", "memo", "memo.db")
}
