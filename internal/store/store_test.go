package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hybrid-mount/hmconsole/internal/bridge"
	"github.com/hybrid-mount/hmconsole/internal/events"
	"github.com/hybrid-mount/hmconsole/internal/locale"
	"github.com/hybrid-mount/hmconsole/internal/models"
	"github.com/hybrid-mount/hmconsole/internal/prefs"
	"github.com/hybrid-mount/hmconsole/internal/store"
)

// stubBridge is a fully controllable Bridge implementation for store tests.
type stubBridge struct {
	mu        sync.Mutex
	cfg       models.Config
	mods      []models.Module
	device    models.DeviceInfo
	storage   models.StorageStatus
	system    models.SystemInfo
	version   models.VersionInfo
	loadErr   error
	saveErr   error
	resetErr  error
	scanErr   error
	rulesErr  error
	deviceErr error
	storErr   error
	sysErr    error
	verErr    error
	auxErr    error

	saveGate  chan struct{} // when non-nil, SaveConfig blocks until closed
	saveCalls int
	auxCalls  int
}

func newStubBridge() *stubBridge {
	return &stubBridge{
		cfg:     models.DefaultConfig(),
		device:  models.DefaultDeviceInfo(),
		storage: models.DefaultStorageStatus(),
		system:  models.DefaultSystemInfo(),
		version: models.VersionInfo{Version: "v2.1.0"},
	}
}

func (b *stubBridge) IsLive() bool { return false }

func (b *stubBridge) LoadConfig(ctx context.Context) (models.Config, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return models.Config{}, b.loadErr
	}
	return b.cfg.Clone(), nil
}

func (b *stubBridge) SaveConfig(ctx context.Context, cfg models.Config) error {
	b.mu.Lock()
	gate := b.saveGate
	b.saveCalls++
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.cfg = cfg.Clone()
	return nil
}

func (b *stubBridge) ResetConfig(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resetErr != nil {
		return b.resetErr
	}
	b.cfg = models.DefaultConfig()
	return nil
}

func (b *stubBridge) ScanModules(ctx context.Context) ([]models.Module, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scanErr != nil {
		return nil, b.scanErr
	}
	return models.CloneModules(b.mods), nil
}

func (b *stubBridge) SaveModuleRules(ctx context.Context, id string, r models.ModuleRules) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rulesErr
}

func (b *stubBridge) ReadLogs(ctx context.Context, path string, lines int) (string, error) {
	return "log line\n", nil
}

func (b *stubBridge) GetStorage(ctx context.Context) (models.StorageStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.storErr != nil {
		return models.StorageStatus{}, b.storErr
	}
	return b.storage, nil
}

func (b *stubBridge) GetSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sysErr != nil {
		return models.SystemInfo{}, b.sysErr
	}
	return b.system, nil
}

func (b *stubBridge) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deviceErr != nil {
		return models.DeviceInfo{}, b.deviceErr
	}
	return b.device.Clone(), nil
}

func (b *stubBridge) GetVersion(ctx context.Context) (models.VersionInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.verErr != nil {
		return models.VersionInfo{}, b.verErr
	}
	return b.version, nil
}

func (b *stubBridge) GetConflicts(ctx context.Context) ([]models.Conflict, error) {
	return nil, nil
}

func (b *stubBridge) GetDiagnostics(ctx context.Context) ([]models.DiagnosticIssue, error) {
	return nil, nil
}

func (b *stubBridge) OpenLink(ctx context.Context, url string) error { return nil }
func (b *stubBridge) Reboot(ctx context.Context) error               { return nil }

func (b *stubBridge) AuxStatus(ctx context.Context) (bridge.AuxStatus, error) {
	return bridge.AuxStatus{Available: true}, nil
}

func (b *stubBridge) AuxAction(ctx context.Context, req bridge.AuxRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auxCalls++
	return b.auxErr
}

var _ bridge.Bridge = (*stubBridge)(nil)

// toastCollector drains bus snapshots and records distinct visible toasts.
type toastCollector struct {
	mu  sync.Mutex
	ids map[string]models.Toast
}

func collectToasts(t *testing.T, bus *events.Bus) *toastCollector {
	t.Helper()
	c := &toastCollector{ids: make(map[string]models.Toast)}
	ch := bus.Subscribe("test-collector")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range ch {
			if snap.Toast.Visible {
				c.mu.Lock()
				c.ids[snap.Toast.ID] = snap.Toast
				c.mu.Unlock()
			}
		}
	}()
	t.Cleanup(func() {
		bus.Unsubscribe("test-collector")
		<-done
	})
	return c
}

func (c *toastCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

func (c *toastCollector) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, t := range c.ids {
		out = append(out, t.Text)
	}
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestStore(t *testing.T, b bridge.Bridge) (*store.Store, *events.Bus) {
	t.Helper()
	reg, err := locale.New()
	if err != nil {
		t.Fatalf("locale registry: %v", err)
	}
	bus := events.NewBus()
	return store.New(b, reg, prefs.NewStore(t.TempDir()), bus), bus
}

func TestLoadConfigReplacesSlice(t *testing.T) {
	sb := newStubBridge()
	sb.cfg.MountSource = "APatch"
	s, _ := newTestStore(t, sb)

	s.LoadConfig(context.Background())

	snap := s.Snapshot()
	if snap.Config.MountSource != "APatch" {
		t.Errorf("config not replaced: %+v", snap.Config)
	}
	if snap.ConfigDirty {
		t.Error("freshly loaded config must not be dirty")
	}
	if snap.Flags.LoadingConfig {
		t.Error("loading flag not cleared")
	}
}

func TestLoadConfigFailureKeepsPreviousSlice(t *testing.T) {
	sb := newStubBridge()
	s, _ := newTestStore(t, sb)
	s.LoadConfig(context.Background())
	before := s.Snapshot().Config

	sb.mu.Lock()
	sb.loadErr = &bridge.OpError{Op: "show-config", Status: 1, Detail: "boom"}
	sb.mu.Unlock()
	s.LoadConfig(context.Background())

	after := s.Snapshot()
	if !after.Config.Equal(before) {
		t.Error("failed load must leave previous config untouched")
	}
	if !after.Toast.Visible || after.Toast.Severity != models.ToastError {
		t.Errorf("expected visible error toast, got %+v", after.Toast)
	}
	if after.Flags.LoadingConfig {
		t.Error("loading flag not cleared on failure")
	}
}

func TestSaveConfigFailureKeepsSavedSnapshot(t *testing.T) {
	sb := newStubBridge()
	s, _ := newTestStore(t, sb)
	s.LoadConfig(context.Background())

	s.SetMountSource("Magisk")
	if !s.Snapshot().ConfigDirty {
		t.Fatal("local edit must mark config dirty")
	}

	sb.mu.Lock()
	sb.saveErr = &bridge.OpError{Op: "save-config", Status: 1, Detail: "denied"}
	sb.mu.Unlock()
	if err := s.SaveConfig(context.Background()); err == nil {
		t.Fatal("expected save error")
	}

	snap := s.Snapshot()
	if !snap.ConfigDirty {
		t.Error("failed save must not move the saved snapshot")
	}
	if snap.Config.MountSource != "Magisk" {
		t.Error("failed save must not revert local edits")
	}
}

func TestOptimisticToggleAppliesImmediately(t *testing.T) {
	sb := newStubBridge()
	sb.saveGate = make(chan struct{})
	s, _ := newTestStore(t, sb)
	s.LoadConfig(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ToggleDisableUmount(context.Background()) }()

	// The local state must reflect the flip before the backend resolves.
	deadline := time.After(2 * time.Second)
	for !s.Snapshot().Config.DisableUmount {
		select {
		case <-deadline:
			t.Fatal("optimistic update not visible before backend resolved")
		case <-time.After(time.Millisecond):
		}
	}

	close(sb.saveGate)
	if err := <-done; err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	snap := s.Snapshot()
	if !snap.Config.DisableUmount {
		t.Error("toggle lost after confirmation")
	}
	if snap.ConfigDirty {
		t.Error("confirmed toggle must not leave config dirty")
	}
}

func TestOptimisticToggleRevertsOnFailure(t *testing.T) {
	sb := newStubBridge()
	s, bus := newTestStore(t, sb)
	s.LoadConfig(context.Background())
	collector := collectToasts(t, bus)

	sb.mu.Lock()
	sb.saveErr = &bridge.OpError{Op: "save-config", Status: 1, Detail: "denied"}
	sb.mu.Unlock()

	if err := s.ToggleDisableUmount(context.Background()); err == nil {
		t.Fatal("expected toggle error")
	}
	if s.Snapshot().Config.DisableUmount {
		t.Error("failed toggle must revert to the captured value")
	}
	waitFor(t, func() bool { return collector.count() == 1 }, "error toast never arrived")
	time.Sleep(10 * time.Millisecond)
	if got := collector.count(); got != 1 {
		t.Errorf("expected exactly one error toast, got %d (%v)", got, collector.texts())
	}
}

func TestGuardRefusesToggleOff(t *testing.T) {
	sb := newStubBridge()
	sb.cfg.DisableUmount = true
	sb.device.ZygisksuEnforce = true
	s, bus := newTestStore(t, sb)
	s.LoadConfig(context.Background())
	s.LoadStatus(context.Background())
	collector := collectToasts(t, bus)

	sb.mu.Lock()
	callsBefore := sb.saveCalls
	sb.mu.Unlock()

	if err := s.ToggleDisableUmount(context.Background()); err != nil {
		t.Fatalf("guarded toggle must not error: %v", err)
	}

	sb.mu.Lock()
	callsAfter := sb.saveCalls
	sb.mu.Unlock()
	if callsAfter != callsBefore {
		t.Error("guarded toggle must not call the bridge")
	}
	if !s.Snapshot().Config.DisableUmount {
		t.Error("guarded flag must stay on")
	}
	waitFor(t, func() bool { return collector.count() == 1 }, "guard toast never arrived")
}

func TestGuardAllowsToggleOnWithCoexistence(t *testing.T) {
	sb := newStubBridge()
	sb.cfg.DisableUmount = true
	sb.cfg.AllowUmountCoexist = true
	sb.device.ZygisksuEnforce = true
	s, _ := newTestStore(t, sb)
	s.LoadConfig(context.Background())
	s.LoadStatus(context.Background())

	if err := s.ToggleDisableUmount(context.Background()); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if s.Snapshot().Config.DisableUmount {
		t.Error("coexistence-allowed toggle off must succeed")
	}
}

func TestReactiveRuleForcesFlagOn(t *testing.T) {
	sb := newStubBridge()
	sb.device.ZygisksuEnforce = true
	s, _ := newTestStore(t, sb)
	s.LoadConfig(context.Background())

	if s.Snapshot().Config.DisableUmount {
		t.Fatal("precondition: flag starts false")
	}
	s.LoadStatus(context.Background())

	if !s.Snapshot().Config.DisableUmount {
		t.Error("enforcement signal must force disable_umount on")
	}
}

func TestModeStats(t *testing.T) {
	sb := newStubBridge()
	sb.mods = []models.Module{
		{ID: "a", Mounted: true, Mode: models.ModeOverlay},
		{ID: "b", Mounted: true, Mode: models.ModeMagic},
		{ID: "c", Mounted: false, Mode: models.ModeOverlay},
	}
	s, _ := newTestStore(t, sb)
	s.ScanModules(context.Background())

	stats := s.ModeStats()
	if stats.Overlay != 1 {
		t.Errorf("overlay count: got %d want 1 (unmounted excluded)", stats.Overlay)
	}
	if stats.Magic != 1 {
		t.Errorf("magic count: got %d want 1", stats.Magic)
	}
}

func TestLoadStatusDegradesPerSubLoad(t *testing.T) {
	sb := newStubBridge()
	sb.deviceErr = &bridge.OpError{Op: "device-info", Detail: "gone"}
	sb.storage = models.StorageStatus{Mode: "erofs", AuxAvailable: true}
	s, _ := newTestStore(t, sb)

	s.LoadStatus(context.Background())

	snap := s.Snapshot()
	if snap.Device.Model != "Unknown" {
		t.Errorf("failed device sub-load must keep the fallback, got %+v", snap.Device)
	}
	if snap.Storage.Mode != "erofs" {
		t.Errorf("storage sub-load lost: %+v", snap.Storage)
	}
	if snap.Flags.LoadingStatus {
		t.Error("status flag not cleared")
	}
}

func TestLoadStatusScansOnlyWhenEmpty(t *testing.T) {
	sb := newStubBridge()
	sb.mods = []models.Module{{ID: "a", Mounted: true, Mode: models.ModeOverlay}}
	s, _ := newTestStore(t, sb)

	s.LoadStatus(context.Background())
	if len(s.Snapshot().Modules) != 1 {
		t.Fatal("initial status load must trigger a scan")
	}

	// A later scan result disappearing from the stub must not be picked
	// up by a pure status tick.
	sb.mu.Lock()
	sb.mods = nil
	sb.mu.Unlock()
	s.LoadStatus(context.Background())
	if len(s.Snapshot().Modules) != 1 {
		t.Error("status tick must not rescan while modules are held")
	}
}

func TestSaveModuleRulesFailureKeepsModules(t *testing.T) {
	sb := newStubBridge()
	sb.mods = []models.Module{{ID: "a", Mounted: true, Mode: models.ModeOverlay}}
	s, _ := newTestStore(t, sb)
	s.ScanModules(context.Background())
	before := s.Snapshot().Modules

	sb.mu.Lock()
	sb.rulesErr = &bridge.OpError{Op: "save-module-rules", Status: 1, Detail: "denied"}
	sb.mu.Unlock()

	rules := models.ModuleRules{DefaultMode: models.ModeIgnore}
	if err := s.SaveModuleRules(context.Background(), "a", rules); err == nil {
		t.Fatal("expected error")
	}

	after := s.Snapshot().Modules
	if len(after) != len(before) || after[0].Mode != before[0].Mode {
		t.Error("failed rules save must leave the module list unchanged")
	}
}

func TestInitAppliesPersistedPrefs(t *testing.T) {
	sb := newStubBridge()
	reg, err := locale.New()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	pr := prefs.NewStore(dir)
	if err := pr.Save(prefs.Prefs{Language: "zh-CN", ExpertMode: true}); err != nil {
		t.Fatal(err)
	}

	s := store.New(sb, reg, pr, events.NewBus())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	snap := s.Snapshot()
	if snap.Language != "zh-CN" || !snap.ExpertMode {
		t.Errorf("prefs not applied: lang=%q expert=%v", snap.Language, snap.ExpertMode)
	}
}

func TestSetLanguageFallsBackAndPersists(t *testing.T) {
	sb := newStubBridge()
	reg, err := locale.New()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	s := store.New(sb, reg, prefs.NewStore(dir), events.NewBus())

	s.SetLanguage("xx")
	if got := s.Snapshot().Language; got != locale.BaseCode {
		t.Errorf("unknown code must resolve to base, got %q", got)
	}

	s.SetLanguage("de")
	if got := prefs.NewStore(dir).Load().Language; got != "de" {
		t.Errorf("language not persisted: %q", got)
	}
}

func TestAuxActionGatedByCapability(t *testing.T) {
	sb := newStubBridge()
	sb.storage = models.StorageStatus{Mode: "tmpfs", AuxAvailable: false}
	s, _ := newTestStore(t, sb)
	s.LoadStatus(context.Background())

	if err := s.AuxAction(context.Background(), bridge.AuxRequest{Action: "hide", Name: "x"}); err != nil {
		t.Fatalf("gated action must not error: %v", err)
	}
	sb.mu.Lock()
	calls := sb.auxCalls
	sb.mu.Unlock()
	if calls != 0 {
		t.Error("aux action must not reach the bridge when unavailable")
	}
}
