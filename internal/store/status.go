package store

import (
	"context"
	"log/slog"

	"github.com/hybrid-mount/hmconsole/internal/models"
)

// LoadStatus refreshes the device snapshot, daemon version, storage status
// and system info sequentially. Each sub-load tolerates failure on its own
// (the previous slice is kept); an unexpected panic anywhere aborts the
// remaining steps silently instead of crashing the UI. A module scan is
// triggered only when no modules are held yet, so a pure status tick never
// forces a redundant refresh.
func (s *Store) LoadStatus(ctx context.Context) {
	s.setFlag(func(f *models.Flags) { f.LoadingStatus = true })
	defer s.setFlag(func(f *models.Flags) { f.LoadingStatus = false })

	defer func() {
		if r := recover(); r != nil {
			slog.Error("store: status refresh aborted", "panic", r)
		}
	}()

	if dev, err := s.bridge.GetDeviceInfo(ctx); err == nil {
		s.mu.Lock()
		s.device = dev
		s.mu.Unlock()
		s.publish()
		s.applyEnforcementRule()
	} else {
		slog.Warn("store: device refresh failed", "err", err)
	}

	if v, err := s.bridge.GetVersion(ctx); err == nil {
		s.mu.Lock()
		s.version = v
		s.mu.Unlock()
		s.publish()
	} else {
		slog.Warn("store: version refresh failed", "err", err)
	}

	if st, err := s.bridge.GetStorage(ctx); err == nil {
		s.mu.Lock()
		s.storage = st
		s.mu.Unlock()
		s.publish()
	} else {
		slog.Warn("store: storage refresh failed", "err", err)
	}

	if sys, err := s.bridge.GetSystemInfo(ctx); err == nil {
		s.mu.Lock()
		s.system = sys
		s.mu.Unlock()
		s.publish()
	} else {
		slog.Warn("store: system refresh failed", "err", err)
	}

	s.mu.Lock()
	needScan := len(s.modules) == 0
	s.mu.Unlock()
	if needScan {
		s.ScanModules(ctx)
	}
}

// applyEnforcementRule forces disable_umount on whenever Zygisksu
// enforcement is active and coexistence is not allowed. This is reactive,
// not user-triggered: the flag flips locally and the change surfaces via
// the dirty flag until the next save.
func (s *Store) applyEnforcementRule() {
	s.mu.Lock()
	forced := s.device.ZygisksuEnforce && !s.config.AllowUmountCoexist && !s.config.DisableUmount
	if forced {
		s.config.DisableUmount = true
	}
	s.mu.Unlock()

	if forced {
		slog.Info("store: umount disabled by Zygisksu enforcement")
		s.publish()
	}
}
