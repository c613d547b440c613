// Package refresh keeps device status current in the background. It
// combines a slow periodic poll with a filesystem watch on the daemon
// state file so external changes (a mount operation from another shell,
// a daemon restart) show up without the user pressing refresh.
package refresh

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

const pollInterval = 60 * time.Second

// Loader is the subset of the store the refresher drives.
type Loader interface {
	LoadStatus(ctx context.Context)
}

// Service watches the daemon state file and polls on a timer.
type Service struct {
	loader    Loader
	statePath string
	watcher   *fsnotify.Watcher
	// The daemon rewrites its state file on every mount event; a burst
	// of module operations must not turn into a burst of status loads.
	limiter *rate.Limiter
}

// New creates a refresher for the given daemon state file.
func New(loader Loader, statePath string) *Service {
	return &Service{
		loader:    loader,
		statePath: statePath,
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Start runs the poll loop and the file watch until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("refresh: could not create fsnotify watcher", "err", err)
	} else {
		s.watcher = watcher
		defer watcher.Close()
		// Watch the directory, not the file: the daemon writes via
		// rename, which replaces the watched inode.
		if err := watcher.Add(filepath.Dir(s.statePath)); err != nil {
			slog.Warn("refresh: could not watch state dir", "path", s.statePath, "err", err)
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.trigger(ctx)
		case event, ok := <-s.events():
			if !ok {
				return
			}
			if event.Name == s.statePath && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				s.trigger(ctx)
			}
		case err, ok := <-s.errors():
			if !ok {
				return
			}
			slog.Warn("refresh: watcher error", "err", err)
		case <-ctx.Done():
			return
		}
	}
}

// trigger runs a status load unless one ran too recently.
func (s *Service) trigger(ctx context.Context) {
	if !s.limiter.Allow() {
		slog.Debug("refresh: throttled")
		return
	}
	s.loader.LoadStatus(ctx)
}

func (s *Service) events() <-chan fsnotify.Event {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Events
}

func (s *Service) errors() <-chan error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Errors
}
