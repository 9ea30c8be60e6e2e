package pit

import (
	"log/slog"

	"github.com/itisrmk/pit/pkg/core"
)

// options holds the internal configuration for opening a project.
type options struct {
	store  core.Store
	engine core.DiffEngine
	logger *slog.Logger
}

// Option defines a functional option for configuring a project.
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger. Nil (the default) disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a custom storage adapter (e.g. the memory adapter
// in tests). If provided, the configured driver is ignored.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithDiffEngine replaces the built-in heuristic categorizer with an
// external semantic-analysis provider.
func WithDiffEngine(engine core.DiffEngine) Option {
	return func(o *options) {
		o.engine = engine
	}
}
