package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hybrid-mount/hmconsole/internal/api"
	"github.com/hybrid-mount/hmconsole/internal/bridge"
	"github.com/hybrid-mount/hmconsole/internal/events"
	"github.com/hybrid-mount/hmconsole/internal/locale"
	"github.com/hybrid-mount/hmconsole/internal/models"
	"github.com/hybrid-mount/hmconsole/internal/prefs"
	"github.com/hybrid-mount/hmconsole/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	mock := bridge.NewMock()
	mock.SetDelay(0)
	reg, err := locale.New()
	if err != nil {
		t.Fatalf("locale registry: %v", err)
	}
	bus := events.NewBus()
	st := store.New(mock, reg, prefs.NewStore(t.TempDir()), bus)
	srv := httptest.NewServer(api.NewRouter(st, bus))
	t.Cleanup(srv.Close)
	return srv, st
}

func getSnapshot(t *testing.T, srv *httptest.Server) models.Snapshot {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api")
	if err != nil {
		t.Fatalf("GET /api: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api status %d", resp.StatusCode)
	}
	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func post(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := http.Post(srv.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestGetStateDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	snap := getSnapshot(t, srv)
	if snap.Config.ModuleDir != models.DefaultModuleDir {
		t.Errorf("unexpected default config: %+v", snap.Config)
	}
	if snap.Live {
		t.Error("mock-backed store must report live=false")
	}
	if snap.Language != locale.BaseCode {
		t.Errorf("default language: got %q", snap.Language)
	}
}

func TestConfigLoadAndPatch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/api/config/load", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("config load status %d", resp.StatusCode)
	}

	src := "Magisk"
	body := models.ConfigUpdate{MountSource: &src}
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/config", encodeBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	snap := getSnapshot(t, srv)
	if snap.Config.MountSource != "Magisk" {
		t.Errorf("patch not applied: %q", snap.Config.MountSource)
	}
	if !snap.ConfigDirty {
		t.Error("patched config must be dirty before save")
	}

	resp = post(t, srv, "/api/config/save", nil)
	resp.Body.Close()
	if getSnapshot(t, srv).ConfigDirty {
		t.Error("saved config must not stay dirty")
	}
}

func encodeBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestModulesScanAndStats(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/api/modules/scan", nil)
	defer resp.Body.Close()
	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Modules) == 0 {
		t.Fatal("scan returned no modules")
	}
	total := snap.ModeStats.Auto + snap.ModeStats.Overlay + snap.ModeStats.Magic + snap.ModeStats.Ignore
	mounted := 0
	for _, m := range snap.Modules {
		if m.Mounted {
			mounted++
		}
	}
	if total != mounted {
		t.Errorf("mode stats cover %d modules, want %d mounted", total, mounted)
	}
}

func TestToggleEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	post(t, srv, "/api/config/load", nil).Body.Close()

	resp := post(t, srv, "/api/config/toggle/disable_umount", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status %d", resp.StatusCode)
	}
	if !getSnapshot(t, srv).Config.DisableUmount {
		t.Error("toggle not reflected in state")
	}

	resp = post(t, srv, "/api/config/toggle/nonsense", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown toggle: got %d want 400", resp.StatusCode)
	}
}

func TestPrefsPatch(t *testing.T) {
	srv, _ := newTestServer(t)

	lang := "de"
	on := true
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/prefs",
		encodeBody(t, models.PrefsUpdate{Language: &lang, ExpertMode: &on}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	snap := getSnapshot(t, srv)
	if snap.Language != "de" || !snap.ExpertMode {
		t.Errorf("prefs not applied: %+v", snap)
	}
}

func TestLogsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/logs?lines=10")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body["logs"], "daemon started") {
		t.Errorf("unexpected logs: %q", body["logs"])
	}

	resp, err = http.Get(srv.URL + "/api/logs?lines=abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad lines param: got %d want 400", resp.StatusCode)
	}
}

func TestSSEStreamsSnapshots(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/subscribe")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() models.Snapshot {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read SSE: %v", err)
			}
			if strings.HasPrefix(line, "data: ") {
				var snap models.Snapshot
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
					t.Fatalf("decode SSE payload: %v", err)
				}
				return snap
			}
		}
	}

	// Initial snapshot arrives immediately on subscribe.
	first := readEvent()
	if first.Config.ModuleDir == "" {
		t.Error("initial snapshot empty")
	}

	// A store mutation produces a follow-up event.
	go func() {
		time.Sleep(10 * time.Millisecond)
		st.SetMountSource("KernelSU")
	}()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("mutation never arrived on SSE stream")
		}
		if readEvent().Config.MountSource == "KernelSU" {
			break
		}
	}
}

func TestAuxEndpointGated(t *testing.T) {
	srv, st := newTestServer(t)

	// No status load yet: capability flag is false, action is refused
	// quietly with a toast and no error.
	resp := post(t, srv, "/api/aux", bridge.AuxRequest{Action: "hide", Name: "x"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("aux status %d", resp.StatusCode)
	}
	if st.Snapshot().Storage.AuxAvailable {
		t.Fatal("precondition: aux must start unavailable")
	}
}
