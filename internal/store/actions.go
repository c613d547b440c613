package store

import (
	"context"
	"log/slog"

	"github.com/hybrid-mount/hmconsole/internal/bridge"
	"github.com/hybrid-mount/hmconsole/internal/models"
)

// Async action pattern: set the loading/saving flag, invoke the bridge, on
// success replace the state slice wholesale, on failure keep the previous
// slice and surface a localized error toast. The flag is cleared via defer
// regardless of outcome; the terminal state is always idle.

// LoadConfig refreshes the configuration from the daemon.
func (s *Store) LoadConfig(ctx context.Context) {
	s.setFlag(func(f *models.Flags) { f.LoadingConfig = true })
	defer s.setFlag(func(f *models.Flags) { f.LoadingConfig = false })

	cfg, err := s.bridge.LoadConfig(ctx)
	if err != nil {
		slog.Warn("store: config load failed", "err", err)
		s.toastError("toast.config_load_failed")
		return
	}

	s.mu.Lock()
	s.config = cfg.Clone()
	s.savedConfig = cfg.Clone()
	s.hasConfig = true
	s.mu.Unlock()
	s.publish()
}

// SaveConfig persists the current configuration through the bridge.
func (s *Store) SaveConfig(ctx context.Context) error {
	s.setFlag(func(f *models.Flags) { f.SavingConfig = true })
	defer s.setFlag(func(f *models.Flags) { f.SavingConfig = false })

	s.mu.Lock()
	cfg := s.config.Clone()
	s.mu.Unlock()

	if err := s.bridge.SaveConfig(ctx, cfg); err != nil {
		slog.Warn("store: config save failed", "err", err)
		s.toastError("toast.config_save_failed")
		return err
	}

	s.mu.Lock()
	s.savedConfig = cfg
	s.hasConfig = true
	s.mu.Unlock()
	s.publish()
	s.toastSuccess("toast.config_saved")
	return nil
}

// ResetConfig regenerates the daemon's default configuration and reloads
// it into the store.
func (s *Store) ResetConfig(ctx context.Context) error {
	s.setFlag(func(f *models.Flags) { f.SavingConfig = true })
	defer s.setFlag(func(f *models.Flags) { f.SavingConfig = false })

	if err := s.bridge.ResetConfig(ctx); err != nil {
		slog.Warn("store: config reset failed", "err", err)
		s.toastError("toast.config_reset_failed")
		return err
	}

	cfg, err := s.bridge.LoadConfig(ctx)
	if err != nil {
		// Reset succeeded but the re-read did not; keep the previous
		// slice and let the next load converge.
		slog.Warn("store: config reload after reset failed", "err", err)
		s.toastError("toast.config_load_failed")
		return err
	}

	s.mu.Lock()
	s.config = cfg.Clone()
	s.savedConfig = cfg.Clone()
	s.hasConfig = true
	s.mu.Unlock()
	s.publish()
	s.toastSuccess("toast.config_reset")
	return nil
}

// ScanModules replaces the module list wholesale from a fresh scan.
func (s *Store) ScanModules(ctx context.Context) {
	s.setFlag(func(f *models.Flags) { f.LoadingModules = true })
	defer s.setFlag(func(f *models.Flags) { f.LoadingModules = false })

	mods, err := s.bridge.ScanModules(ctx)
	if err != nil {
		slog.Warn("store: module scan failed", "err", err)
		s.toastError("toast.modules_load_failed")
		return
	}

	s.mu.Lock()
	s.modules = mods
	s.mu.Unlock()
	s.publish()
}

// SaveModuleRules persists a module's rule set and mirrors it locally.
func (s *Store) SaveModuleRules(ctx context.Context, moduleID string, rules models.ModuleRules) error {
	s.setFlag(func(f *models.Flags) { f.SavingRules = true })
	defer s.setFlag(func(f *models.Flags) { f.SavingRules = false })

	if err := s.bridge.SaveModuleRules(ctx, moduleID, rules); err != nil {
		slog.Warn("store: rules save failed", "module", moduleID, "err", err)
		s.toastError("toast.rules_save_failed")
		return err
	}

	s.mu.Lock()
	if s.config.Rules == nil {
		s.config.Rules = make(map[string]models.ModuleRules)
	}
	s.config.Rules[moduleID] = rules.Clone()
	// The daemon wrote the rules into its config file, so the saved
	// snapshot moves with the local copy.
	if s.savedConfig.Rules == nil {
		s.savedConfig.Rules = make(map[string]models.ModuleRules)
	}
	s.savedConfig.Rules[moduleID] = rules.Clone()
	for i := range s.modules {
		if s.modules[i].ID == moduleID {
			s.modules[i].Rules = rules.Clone()
			s.modules[i].Mode = rules.DefaultMode
		}
	}
	s.mu.Unlock()
	s.publish()
	s.toastSuccess("toast.rules_saved")
	return nil
}

// ReadLogs tails the daemon log configured in the current config.
func (s *Store) ReadLogs(ctx context.Context, lines int) (string, error) {
	s.mu.Lock()
	path := s.config.LogFile
	s.mu.Unlock()

	out, err := s.bridge.ReadLogs(ctx, path, lines)
	if err != nil {
		slog.Warn("store: log read failed", "err", err)
		s.toastError("toast.logs_load_failed")
		return "", err
	}
	return out, nil
}

// GetConflicts fetches the daemon's conflict report. Read-only, no state.
func (s *Store) GetConflicts(ctx context.Context) ([]models.Conflict, error) {
	return s.bridge.GetConflicts(ctx)
}

// GetDiagnostics fetches the daemon's diagnostics report. Read-only.
func (s *Store) GetDiagnostics(ctx context.Context) ([]models.DiagnosticIssue, error) {
	return s.bridge.GetDiagnostics(ctx)
}

// OpenLink asks the device to open an external URL.
func (s *Store) OpenLink(ctx context.Context, url string) error {
	if err := s.bridge.OpenLink(ctx, url); err != nil {
		s.toastError("toast.link_failed")
		return err
	}
	return nil
}

// Reboot reboots the device. Not idempotent; invoked once per user action.
func (s *Store) Reboot(ctx context.Context) error {
	if err := s.bridge.Reboot(ctx); err != nil {
		s.toastError("toast.reboot_failed")
		return err
	}
	return nil
}

// AuxAction performs a PoaceaeFS action. Gated by the capability flag from
// the storage snapshot: when the subsystem is absent the bridge is never
// called.
func (s *Store) AuxAction(ctx context.Context, req bridge.AuxRequest) error {
	s.mu.Lock()
	available := s.storage.AuxAvailable
	s.mu.Unlock()

	if !available {
		s.toasts.Show(s.text("toast.aux_unavailable"), models.ToastWarning)
		return nil
	}
	if err := s.bridge.AuxAction(ctx, req); err != nil {
		s.toastError("toast.aux_failed")
		return err
	}
	return nil
}

func (s *Store) setFlag(mutate func(*models.Flags)) {
	s.mu.Lock()
	mutate(&s.flags)
	s.mu.Unlock()
	s.publish()
}
