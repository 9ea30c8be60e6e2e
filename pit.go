package pit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/itisrmk/pit/pkg/adapters/memory"
	"github.com/itisrmk/pit/pkg/adapters/sqlite"
	"github.com/itisrmk/pit/pkg/bisect"
	"github.com/itisrmk/pit/pkg/core"
	"github.com/itisrmk/pit/pkg/history"
	"github.com/itisrmk/pit/pkg/semdiff"
)

// Version exposes the version of the library.
var Version = "0.1.0"

// Project is an opened pit project rooted at a directory.
type Project struct {
	Root    string
	Config  Config
	Store   core.Store
	Tracker *history.Tracker
	Bisect  *bisect.Manager
	Stash   *history.Stash
	logger  *slog.Logger
}

// Init creates the .pit directory and default configuration under
// root, then opens the project.
func Init(root string, opts ...Option) (*Project, error) {
	if err := os.MkdirAll(filepath.Join(root, SystemDir), 0755); err != nil {
		return nil, fmt.Errorf("create system dir: %w", err)
	}

	if _, err := os.Stat(filepath.Join(root, ConfigFile)); os.IsNotExist(err) {
		if err := DefaultConfig(filepath.Base(absOrSelf(root))).Save(root); err != nil {
			return nil, err
		}
	}
	return Open(root, opts...)
}

// Open loads the configuration and wires the tracker, bisect manager
// and stash over the configured store.
func Open(root string, opts ...Option) (*Project, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := LoadConfig(root)
	if err != nil {
		return nil, err
	}

	store := o.store
	if store == nil {
		switch cfg.Storage.Driver {
		case "", "sqlite":
			store, err = sqlite.New(sqlite.Config{
				Path:   filepath.Join(root, SystemDir, "pit.db"),
				Logger: o.logger,
			})
			if err != nil {
				return nil, err
			}
		case "memory":
			store = memory.New()
		default:
			return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
		}
	}
	if err := store.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	engine := o.engine
	if engine == nil {
		engine = semdiff.New()
	}

	sysDir := filepath.Join(root, SystemDir)
	p := &Project{
		Root:    root,
		Config:  cfg,
		Store:   store,
		Tracker: history.New(store, engine, o.logger),
		Bisect:  bisect.NewManager(store, sysDir, o.logger),
		Stash:   history.NewStash(store, sysDir, o.logger),
		logger:  o.logger,
	}
	return p, nil
}

// IsInitialized reports whether root contains a pit project.
func IsInitialized(root string) bool {
	info, err := os.Stat(filepath.Join(root, SystemDir))
	return err == nil && info.IsDir()
}

// Close releases the underlying store.
func (p *Project) Close() error {
	return p.Store.Close()
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
