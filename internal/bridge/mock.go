package bridge

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hybrid-mount/hmconsole/internal/models"
)

// defaultMockDelay simulates the command round trip so loading states are
// exercised during development.
const defaultMockDelay = 150 * time.Millisecond

// Mock is the synthetic in-process backend. It answers every operation
// from generated data after an artificial delay and never fails unless a
// test configures failure injection.
type Mock struct {
	mu      sync.Mutex
	delay   time.Duration
	cfg     models.Config
	mods    []models.Module
	failOps map[string]bool
	logs    []string
}

// NewMock creates a synthetic backend with a plausible module inventory.
func NewMock() *Mock {
	m := &Mock{
		delay:   defaultMockDelay,
		cfg:     models.DefaultConfig(),
		failOps: make(map[string]bool),
		logs: []string{
			"[info] daemon started",
			"[info] storage mode: tmpfs",
			"[info] mounted 2 modules",
		},
	}
	m.mods = []models.Module{
		{
			ID: "zygisk_lsposed", Name: "LSPosed", Version: "v1.9.2", Author: "LSPosed Developers",
			Description: "Modern Xposed framework", Mode: models.ModeOverlay, Mounted: true,
			Rules: models.ModuleRules{DefaultMode: models.ModeOverlay},
		},
		{
			ID: "hosts_adblock", Name: "Systemless Hosts", Version: "1.1", Author: "topjohnwu",
			Description: "Systemless hosts file support", Mode: models.ModeMagic, Mounted: true,
			Rules: models.ModuleRules{DefaultMode: models.ModeMagic},
		},
		{
			ID: "font_pack", Name: "Font Pack", Version: "3.0", Author: "example",
			Description: "Replacement system fonts", Mode: models.ModeOverlay, Mounted: false,
			Rules: models.ModuleRules{DefaultMode: models.ModeOverlay},
		},
	}
	return m
}

// SetDelay overrides the artificial delay (tests use zero).
func (m *Mock) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetFail configures the named operation to fail. Used by tests to
// exercise error paths; a zero-value Mock never fails.
func (m *Mock) SetFail(op string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOps[op] = fail
}

func (m *Mock) IsLive() bool { return false }

// wait sleeps for the configured delay, honoring ctx, then reports any
// injected failure for op.
func (m *Mock) wait(ctx context.Context, op string) error {
	m.mu.Lock()
	delay := m.delay
	fail := m.failOps[op]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return &OpError{Op: op, Status: 1, Detail: "mock: failure injected"}
	}
	return nil
}

func (m *Mock) LoadConfig(ctx context.Context) (models.Config, error) {
	if err := m.wait(ctx, "show-config"); err != nil {
		return models.Config{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone(), nil
}

func (m *Mock) SaveConfig(ctx context.Context, cfg models.Config) error {
	if err := m.wait(ctx, "save-config"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg.Clone()
	return nil
}

func (m *Mock) ResetConfig(ctx context.Context) error {
	if err := m.wait(ctx, "gen-config"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = models.DefaultConfig()
	return nil
}

func (m *Mock) ScanModules(ctx context.Context) ([]models.Module, error) {
	if err := m.wait(ctx, "modules"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneModules(m.mods), nil
}

func (m *Mock) SaveModuleRules(ctx context.Context, moduleID string, rules models.ModuleRules) error {
	if err := m.wait(ctx, "save-module-rules"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.Rules == nil {
		m.cfg.Rules = make(map[string]models.ModuleRules)
	}
	m.cfg.Rules[moduleID] = rules.Clone()
	for i := range m.mods {
		if m.mods[i].ID == moduleID {
			m.mods[i].Rules = rules.Clone()
			m.mods[i].Mode = rules.DefaultMode
		}
	}
	return nil
}

func (m *Mock) ReadLogs(ctx context.Context, path string, lines int) (string, error) {
	if err := m.wait(ctx, "read-logs"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.logs, "\n") + "\n", nil
}

func (m *Mock) GetStorage(ctx context.Context) (models.StorageStatus, error) {
	if err := m.wait(ctx, "storage"); err != nil {
		return models.StorageStatus{}, err
	}
	return models.StorageStatus{
		Mode:         "tmpfs",
		UsedBytes:    96 << 20,
		TotalBytes:   512 << 20,
		AuxAvailable: true,
		AuxVersion:   "1.2.0",
	}, nil
}

func (m *Mock) GetSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	if err := m.wait(ctx, "system-info"); err != nil {
		return models.SystemInfo{}, err
	}
	return models.SystemInfo{
		AndroidVersion: "15",
		BuildID:        "AP4A.250105.002",
		Arch:           "aarch64",
	}, nil
}

func (m *Mock) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	if err := m.wait(ctx, "device-info"); err != nil {
		return models.DeviceInfo{}, err
	}
	info := models.DeviceInfo{
		Model:        "Pixel 9 Pro",
		Kernel:       hostKernel(),
		SELinux:      "Enforcing",
		MountBase:    models.DefaultMountDir,
		ActiveMounts: []string{"zygisk_lsposed", "hosts_adblock"},
		TmpfsXattr:   true,
	}
	return info, nil
}

func (m *Mock) GetVersion(ctx context.Context) (models.VersionInfo, error) {
	if err := m.wait(ctx, "version"); err != nil {
		return models.VersionInfo{}, err
	}
	return models.VersionInfo{Version: "v2.1.0", VersionCode: "210"}, nil
}

func (m *Mock) GetConflicts(ctx context.Context) ([]models.Conflict, error) {
	if err := m.wait(ctx, "conflicts"); err != nil {
		return nil, err
	}
	return []models.Conflict{}, nil
}

func (m *Mock) GetDiagnostics(ctx context.Context) ([]models.DiagnosticIssue, error) {
	if err := m.wait(ctx, "diagnostics"); err != nil {
		return nil, err
	}
	return []models.DiagnosticIssue{}, nil
}

func (m *Mock) OpenLink(ctx context.Context, url string) error {
	return m.wait(ctx, "open-link")
}

func (m *Mock) Reboot(ctx context.Context) error {
	return m.wait(ctx, "reboot")
}

func (m *Mock) AuxStatus(ctx context.Context) (AuxStatus, error) {
	if err := m.wait(ctx, "aux-status"); err != nil {
		return AuxStatus{}, err
	}
	return AuxStatus{Available: true, Version: "1.2.0"}, nil
}

func (m *Mock) AuxAction(ctx context.Context, req AuxRequest) error {
	return m.wait(ctx, "poaceae")
}

// hostKernel reports the development host's kernel release so the mock
// shows real data where it cheaply can.
func hostKernel() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "5.15.0-mock"
	}
	return unix.ByteSliceToString(uts.Release[:])
}
