package store

import (
	"context"
	"log/slog"

	"github.com/hybrid-mount/hmconsole/internal/models"
)

// Optimistic toggle protocol: capture the current value, apply the negated
// value locally so the UI reflects it immediately, persist the full
// configuration through the bridge, and on failure revert to the captured
// value and surface an error toast.

// ToggleDisableUmount flips the disable_umount flag. Turning it off is
// refused while Zygisksu enforcement is active and coexistence is not
// allowed; the precondition is checked before any local mutation and the
// bridge is never called.
func (s *Store) ToggleDisableUmount(ctx context.Context) error {
	s.mu.Lock()
	prev := s.config.DisableUmount
	guarded := prev && s.device.ZygisksuEnforce && !s.config.AllowUmountCoexist
	if guarded {
		s.mu.Unlock()
		s.toasts.Show(s.text("toast.umount_guard"), models.ToastWarning)
		return nil
	}
	s.config.DisableUmount = !prev
	cfg := s.config.Clone()
	s.mu.Unlock()
	s.publish()

	if err := s.bridge.SaveConfig(ctx, cfg); err != nil {
		slog.Warn("store: disable_umount toggle failed, reverting", "err", err)
		s.mu.Lock()
		s.config.DisableUmount = prev
		s.mu.Unlock()
		s.publish()
		s.toastError("toast.toggle_failed")
		return err
	}

	s.mu.Lock()
	s.savedConfig = cfg
	s.hasConfig = true
	s.mu.Unlock()
	s.publish()
	return nil
}

// ToggleUmountCoexistence flips allow_umount_coexistence. Turning it off
// may immediately re-trigger the enforcement rule, in which case the
// forced disable_umount value is persisted in the same save.
func (s *Store) ToggleUmountCoexistence(ctx context.Context) error {
	s.mu.Lock()
	prevCoexist := s.config.AllowUmountCoexist
	prevDisable := s.config.DisableUmount
	s.config.AllowUmountCoexist = !prevCoexist
	if s.device.ZygisksuEnforce && !s.config.AllowUmountCoexist && !s.config.DisableUmount {
		s.config.DisableUmount = true
	}
	cfg := s.config.Clone()
	s.mu.Unlock()
	s.publish()

	if err := s.bridge.SaveConfig(ctx, cfg); err != nil {
		slog.Warn("store: coexistence toggle failed, reverting", "err", err)
		s.mu.Lock()
		s.config.AllowUmountCoexist = prevCoexist
		s.config.DisableUmount = prevDisable
		s.mu.Unlock()
		s.publish()
		s.toastError("toast.toggle_failed")
		return err
	}

	s.mu.Lock()
	s.savedConfig = cfg
	s.hasConfig = true
	s.mu.Unlock()
	s.publish()
	return nil
}
