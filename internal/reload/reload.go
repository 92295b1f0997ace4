// Package reload turns changes to the config file into published config
// updates.
package reload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/zjrosen/eventlink/internal/cachemanager"
	"github.com/zjrosen/eventlink/internal/config"
	"github.com/zjrosen/eventlink/internal/event"
	"github.com/zjrosen/eventlink/internal/log"
	"github.com/zjrosen/eventlink/internal/watcher"
)

// Update describes one applied reload.
type Update struct {
	Previous config.Config
	Config   config.Config
	Diff     string // changed YAML lines, see config.Diff
}

// Failure describes a reload that could not be applied.
type Failure struct {
	Path   string
	Digest string
	Err    error
}

// Reloader owns the current config and republishes it whenever the file
// changes. It is driven from a single goroutine and must not be copied after
// first use.
type Reloader struct {
	path    string
	current config.Config
	window  time.Duration
	failed  cachemanager.CacheManager[string, time.Time]

	// Applied is dispatched after a reload changed the config.
	Applied event.Handler[Update]

	// Failed is dispatched when the file cannot be read or is invalid. The
	// same broken content is reported once per dedup window.
	Failed event.Handler[Failure]
}

// New creates a reloader for path, starting from initial.
func New(path string, initial config.Config) *Reloader {
	window := initial.Watch.DedupWindow
	return &Reloader{
		path:    path,
		current: initial,
		window:  window,
		failed:  cachemanager.NewInMemoryCacheManager[string, time.Time]("reload-failures", window, cleanupInterval(window)),
	}
}

func cleanupInterval(window time.Duration) time.Duration {
	if window <= 0 {
		return cachemanager.DefaultCleanupInterval
	}
	return 2 * window
}

// Current returns the config most recently applied.
func (r *Reloader) Current() config.Config {
	return r.current
}

// Reload reads the file once. It reports whether a changed config was
// applied and published. Unchanged content applies nothing.
func (r *Reloader) Reload(ctx context.Context) (bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return false, r.fail(ctx, "", fmt.Errorf("reading config: %w", err))
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	next, err := config.Load(r.path)
	if err != nil {
		return false, r.fail(ctx, digest, err)
	}

	diff, err := config.Diff(r.current, next)
	if err != nil {
		return false, r.fail(ctx, digest, err)
	}
	if diff == "" {
		log.Debug(log.CatConfig, "Config unchanged", "path", r.path)
		return false, nil
	}

	prev := r.current
	r.current = next
	log.Info(log.CatConfig, "Config reloaded", "path", r.path, "digest", digest[:12])
	r.Applied.Dispatch(Update{Previous: prev, Config: next, Diff: diff})
	return true, nil
}

func (r *Reloader) fail(ctx context.Context, digest string, err error) error {
	f := Failure{Path: r.path, Digest: digest, Err: err}
	if r.window > 0 && digest != "" && !r.failed.Add(ctx, digest, time.Now(), r.window) {
		log.Debug(log.CatConfig, "Suppressed repeated reload failure", "path", r.path)
		return err
	}
	log.ErrorErr(log.CatConfig, "Config reload failed", err, "path", r.path)
	r.Failed.Dispatch(f)
	return err
}

// Run watches the file and reloads after every debounced change until ctx
// is cancelled. Reload failures are published, not returned.
func (r *Reloader) Run(ctx context.Context) error {
	w, err := watcher.New(watcher.Config{
		Path:        r.path,
		DebounceDur: r.current.Watch.Debounce,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			_, _ = r.Reload(ctx)
		}
	}
}

// Close drops every listener of the reloader's handlers.
func (r *Reloader) Close() {
	r.Applied.Close()
	r.Failed.Close()
}
