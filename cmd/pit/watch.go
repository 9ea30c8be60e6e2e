package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/itisrmk/pit"
	"github.com/itisrmk/pit/pkg/core"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Auto-commit prompt files on change",
	Long: `Watch the project directory and commit matching files as new versions
when they change. Patterns and debounce come from the watch section of
.pit.yaml. The artifact name is the file path relative to the project
root. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		defer project.Close()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			fatal("Failed to create watcher", err)
		}
		defer watcher.Close()

		if err := watchDirs(watcher, project.Root); err != nil {
			fatal("Failed to watch project", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		w := &watchLoop{
			project:  project,
			watcher:  watcher,
			debounce: debounceInterval(project.Config),
			pending:  make(map[string]*time.Timer),
		}

		fmt.Printf("Watching %s for %s\n", project.Root, strings.Join(project.Config.Watch.Globs, ", "))
		lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
			slog.Default().Error("watch loop failed", "error", err)
			cancel()
		}))

		<-ctx.Done()
		w.flush()
		fmt.Println("Watch stopped.")
	},
}

func debounceInterval(cfg pit.Config) time.Duration {
	if cfg.Watch.DebounceMillis > 0 {
		return time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
	}
	return 500 * time.Millisecond
}

// watchDirs registers root and every subdirectory, skipping the system
// and VCS directories.
func watchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (name == pit.SystemDir || name == ".git") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchLoop debounces filesystem events per file and commits once a
// file settles.
type watchLoop struct {
	project  *pit.Project
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func (w *watchLoop) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			slog.Default().Error("fsnotify error", "error", err)
		}
	}
}

func (w *watchLoop) handle(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	rel, err := filepath.Rel(w.project.Root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.matches(rel) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[rel]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[rel] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, rel)
		w.mu.Unlock()
		w.commit(ctx, rel)
	})
}

func (w *watchLoop) matches(rel string) bool {
	for _, glob := range w.project.Config.Watch.Globs {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *watchLoop) commit(ctx context.Context, rel string) {
	data, err := os.ReadFile(filepath.Join(w.project.Root, rel))
	if err != nil {
		slog.Default().Error("read changed file", "path", rel, "error", err)
		return
	}

	// Editors fire write events without content changes; skip those.
	if a, err := w.project.Tracker.Artifact(ctx, rel); err == nil && a.Head > 0 {
		if head, err := w.project.Store.Version(ctx, rel, a.Head); err == nil &&
			head.Fingerprint == core.ComputeFingerprint(data) {
			return
		}
	}

	v, err := w.project.Tracker.Commit(ctx, rel, string(data),
		"auto-commit from watch", w.project.Config.Project.DefaultAuthor)
	if err != nil {
		slog.Default().Error("auto-commit failed", "artifact", rel, "error", err)
		return
	}
	fmt.Printf("[%s v%d] auto-committed (%s)\n", rel, v.Sequence, v.Fingerprint.Short())
}

// flush cancels pending timers so no commit fires after shutdown.
func (w *watchLoop) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for rel, timer := range w.pending {
		timer.Stop()
		delete(w.pending, rel)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
