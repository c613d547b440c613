// Package store implements the console's state container, the single
// owner of all UI-visible state. It drives the command bridge, surfaces
// results through the toast slot, and publishes a snapshot on the event
// bus whenever a state slice is replaced.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hybrid-mount/hmconsole/internal/bridge"
	"github.com/hybrid-mount/hmconsole/internal/events"
	"github.com/hybrid-mount/hmconsole/internal/locale"
	"github.com/hybrid-mount/hmconsole/internal/models"
	"github.com/hybrid-mount/hmconsole/internal/prefs"
	"github.com/hybrid-mount/hmconsole/internal/toast"
)

// Store owns all mutable application state. It is constructed explicitly
// with its dependencies injected; there is no ambient singleton.
type Store struct {
	mu      sync.Mutex
	bridge  bridge.Bridge
	locales *locale.Registry
	prefs   *prefs.Store
	bus     *events.Bus
	toasts  *toast.Slot

	config      models.Config
	savedConfig models.Config // last successfully loaded/saved snapshot
	hasConfig   bool
	modules     []models.Module
	device      models.DeviceInfo
	system      models.SystemInfo
	storage     models.StorageStatus
	version     models.VersionInfo
	language    string
	expertMode  bool
	flags       models.Flags
}

// New creates a store around the given backend and collaborators.
func New(b bridge.Bridge, reg *locale.Registry, pr *prefs.Store, bus *events.Bus) *Store {
	s := &Store{
		bridge:   b,
		locales:  reg,
		prefs:    pr,
		bus:      bus,
		config:   models.DefaultConfig(),
		device:   models.DefaultDeviceInfo(),
		system:   models.DefaultSystemInfo(),
		storage:  models.DefaultStorageStatus(),
		language: locale.BaseCode,
	}
	s.savedConfig = s.config.Clone()
	s.toasts = toast.NewSlot(func(models.Toast) { s.publish() })
	return s
}

// Init resolves the persisted language and UI preference, applies them,
// then triggers the initial config load, blocking on it; the status load
// is non-critical and runs in the background.
func (s *Store) Init(ctx context.Context) error {
	p := s.prefs.Load()

	s.mu.Lock()
	if p.Language != "" {
		s.language = s.locales.Resolve(p.Language).Code
	}
	s.expertMode = p.ExpertMode
	s.mu.Unlock()
	s.publish()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.LoadConfig(ctx)
	}()
	go s.LoadStatus(ctx)

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Snapshot returns a deep copy of the full store state. Derived values
// (mode stats, config dirty flag) are recomputed on every call.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Snapshot{
		Config:      s.config.Clone(),
		ConfigDirty: s.hasConfig && !s.config.Equal(s.savedConfig),
		Modules:     models.CloneModules(s.modules),
		ModeStats:   models.CountModes(s.modules),
		Device:      s.device.Clone(),
		System:      s.system,
		Storage:     s.storage,
		Version:     s.version,
		Language:    s.language,
		ExpertMode:  s.expertMode,
		Live:        s.bridge.IsLive(),
		Toast:       s.toasts.Current(),
		Flags:       s.flags,
	}
}

// ModeStats recomputes the per-mode counts of mounted modules.
func (s *Store) ModeStats() models.ModeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CountModes(s.modules)
}

// Toasts exposes the toast slot (the UI dismiss action goes through it).
func (s *Store) Toasts() *toast.Slot { return s.toasts }

// Languages lists the available locale bundles, base language first.
func (s *Store) Languages() []*locale.Bundle { return s.locales.Bundles() }

// SetLanguage activates a bundle (falling back to the base language for
// unknown codes) and persists the choice.
func (s *Store) SetLanguage(code string) {
	resolved := s.locales.Resolve(code).Code

	s.mu.Lock()
	s.language = resolved
	expert := s.expertMode
	s.mu.Unlock()
	s.publish()

	if err := s.prefs.Save(prefs.Prefs{Language: resolved, ExpertMode: expert}); err != nil {
		slog.Warn("store: persisting language failed", "err", err)
	}
}

// SetExpertMode flips the persisted UI preference.
func (s *Store) SetExpertMode(on bool) {
	s.mu.Lock()
	s.expertMode = on
	lang := s.language
	s.mu.Unlock()
	s.publish()

	if err := s.prefs.Save(prefs.Prefs{Language: lang, ExpertMode: on}); err != nil {
		slog.Warn("store: persisting expert mode failed", "err", err)
	}
}

// UpdateConfig applies a local mutation to the configuration. The change
// is not persisted; the dirty flag derives from comparison against the
// last saved snapshot until SaveConfig is called.
func (s *Store) UpdateConfig(mutate func(*models.Config)) {
	s.mu.Lock()
	mutate(&s.config)
	s.mu.Unlock()
	s.publish()
}

// SetMountSource updates the free-form mount source label.
func (s *Store) SetMountSource(v string) {
	s.UpdateConfig(func(c *models.Config) { c.MountSource = v })
}

// SetModuleDir updates the module directory path.
func (s *Store) SetModuleDir(v string) {
	s.UpdateConfig(func(c *models.Config) { c.ModuleDir = v })
}

// SetPartitions replaces the extra partition list.
func (s *Store) SetPartitions(parts []string) {
	s.UpdateConfig(func(c *models.Config) {
		c.Partitions = append([]string(nil), parts...)
	})
}

// publish pushes a fresh snapshot to the bus. Never called with the store
// lock held.
func (s *Store) publish() {
	if s.bus != nil {
		s.bus.Publish(s.Snapshot())
	}
}

// text resolves a localized message for the active language.
func (s *Store) text(key string) string {
	s.mu.Lock()
	lang := s.language
	s.mu.Unlock()
	return s.locales.Text(lang, key)
}

func (s *Store) toastError(key string) {
	s.toasts.Show(s.text(key), models.ToastError)
}

func (s *Store) toastSuccess(key string) {
	s.toasts.Show(s.text(key), models.ToastSuccess)
}
