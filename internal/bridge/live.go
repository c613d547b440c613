package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hybrid-mount/hmconsole/internal/codec"
	"github.com/hybrid-mount/hmconsole/internal/models"
)

const defaultLogLines = 500

// Live is the privileged backend. Every operation builds exactly one
// command-line invocation against the executor; a non-zero status becomes
// an *OpError carrying the executor's diagnostic text.
type Live struct {
	exec      Executor
	bin       string // path to the meta-hybrid binary
	statePath string
	propPath  string
}

// NewLive creates the live backend for the given executor and daemon
// binary path.
func NewLive(exec Executor, bin string) *Live {
	return &Live{
		exec:      exec,
		bin:       bin,
		statePath: models.DaemonStateFile,
		propPath:  models.DaemonPropFile,
	}
}

func (l *Live) IsLive() bool { return true }

// run executes one command line and maps the result: non-zero status or a
// transport failure becomes an *OpError, success returns stdout.
func (l *Live) run(ctx context.Context, op, commandLine string) (string, error) {
	res, err := l.exec.Exec(ctx, commandLine)
	if err != nil {
		return "", &OpError{Op: op, Detail: "executor unavailable", Err: err}
	}
	if res.Status != 0 {
		detail := firstLine(res.Stderr)
		if detail == "" {
			detail = "command failed"
		}
		return "", &OpError{Op: op, Status: res.Status, Detail: detail}
	}
	return res.Stdout, nil
}

// probe is run for sub-commands inside multi-probe operations. Failures
// are returned as *ProbeError for the caller to tolerate.
func (l *Live) probe(ctx context.Context, name, commandLine string) (string, error) {
	out, err := l.run(ctx, name, commandLine)
	if err != nil {
		return "", &ProbeError{Probe: name, Err: err}
	}
	return strings.TrimSpace(out), nil
}

func (l *Live) LoadConfig(ctx context.Context) (models.Config, error) {
	out, err := l.run(ctx, "show-config", l.bin+" show-config")
	if err != nil {
		return models.Config{}, err
	}
	var cfg models.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		return models.Config{}, &OpError{Op: "show-config", Detail: "malformed config reply", Err: err}
	}
	return cfg, nil
}

func (l *Live) SaveConfig(ctx context.Context, cfg models.Config) error {
	token, err := codec.Encode(cfg)
	if err != nil {
		return err
	}
	_, err = l.run(ctx, "save-config", fmt.Sprintf("%s save-config --payload %s", l.bin, token))
	return err
}

func (l *Live) ResetConfig(ctx context.Context) error {
	_, err := l.run(ctx, "gen-config", l.bin+" gen-config")
	return err
}

func (l *Live) ScanModules(ctx context.Context) ([]models.Module, error) {
	out, err := l.run(ctx, "modules", l.bin+" modules")
	if err != nil {
		return nil, err
	}
	var mods []models.Module
	if err := json.Unmarshal([]byte(out), &mods); err != nil {
		return nil, &OpError{Op: "modules", Detail: "malformed module list", Err: err}
	}
	return mods, nil
}

func (l *Live) SaveModuleRules(ctx context.Context, moduleID string, rules models.ModuleRules) error {
	if !validModuleID(moduleID) {
		return &OpError{Op: "save-module-rules", Detail: "invalid module id: " + moduleID}
	}
	token, err := codec.Encode(rules)
	if err != nil {
		return err
	}
	_, err = l.run(ctx, "save-module-rules",
		fmt.Sprintf("%s save-module-rules --module %s --payload %s", l.bin, moduleID, token))
	return err
}

func (l *Live) ReadLogs(ctx context.Context, path string, lines int) (string, error) {
	if path == "" {
		path = models.DefaultLogFile
	}
	if lines <= 0 {
		lines = defaultLogLines
	}
	return l.run(ctx, "read-logs", fmt.Sprintf("tail -n %d %s", lines, shQuote(path)))
}

func (l *Live) GetStorage(ctx context.Context) (models.StorageStatus, error) {
	st := models.DefaultStorageStatus()

	if out, err := l.probe(ctx, "storage", l.bin+" storage"); err == nil {
		var live models.StorageStatus
		if jerr := json.Unmarshal([]byte(out), &live); jerr == nil {
			st = live
		}
	} else if ds, derr := l.readDaemonState(ctx); derr == nil && ds.StorageMode != "" {
		// Older daemons have no storage subcommand; the state file still
		// carries the backing-store mode.
		st.Mode = ds.StorageMode
	}

	if aux, err := l.AuxStatus(ctx); err == nil {
		st.AuxAvailable = aux.Available
		st.AuxVersion = aux.Version
	}
	return st, nil
}

func (l *Live) readDaemonState(ctx context.Context) (models.DaemonState, error) {
	out, err := l.probe(ctx, "daemon-state", "cat "+shQuote(l.statePath))
	if err != nil {
		return models.DaemonState{}, err
	}
	var ds models.DaemonState
	if err := json.Unmarshal([]byte(out), &ds); err != nil {
		return models.DaemonState{}, &ProbeError{Probe: "daemon-state", Err: err}
	}
	return ds, nil
}

// GetDeviceInfo issues several independent sub-probes. Heterogeneous
// facilities may be absent, so each failing probe leaves its field at the
// defined default instead of aborting the whole read.
func (l *Live) GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error) {
	info := models.DefaultDeviceInfo()

	if out, err := l.probe(ctx, "model", "getprop ro.product.model"); err == nil && out != "" {
		info.Model = out
	} else if err != nil {
		slog.Debug("bridge: device probe degraded", "err", err)
	}
	if out, err := l.probe(ctx, "kernel", "uname -r"); err == nil && out != "" {
		info.Kernel = out
	} else if err != nil {
		slog.Debug("bridge: device probe degraded", "err", err)
	}
	if out, err := l.probe(ctx, "selinux", "getenforce"); err == nil && out != "" {
		info.SELinux = out
	} else if err != nil {
		slog.Debug("bridge: device probe degraded", "err", err)
	}

	if ds, err := l.readDaemonState(ctx); err == nil {
		if ds.MountPoint != "" {
			info.MountBase = ds.MountPoint
		}
		info.ActiveMounts = ds.ActiveMounts
		info.ZygisksuEnforce = ds.ZygisksuEnforce
		info.TmpfsXattr = ds.TmpfsXattr
	} else {
		slog.Debug("bridge: device probe degraded", "err", err)
	}

	return info, nil
}

func (l *Live) GetSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	info := models.DefaultSystemInfo()

	if out, err := l.probe(ctx, "android-version", "getprop ro.build.version.release"); err == nil && out != "" {
		info.AndroidVersion = out
	}
	if out, err := l.probe(ctx, "build-id", "getprop ro.build.display.id"); err == nil && out != "" {
		info.BuildID = out
	}
	if out, err := l.probe(ctx, "arch", "uname -m"); err == nil && out != "" {
		info.Arch = out
	}
	return info, nil
}

func (l *Live) GetVersion(ctx context.Context) (models.VersionInfo, error) {
	out, err := l.run(ctx, "version", "cat "+shQuote(l.propPath))
	if err != nil {
		return models.VersionInfo{}, err
	}
	var v models.VersionInfo
	for _, line := range strings.Split(out, "\n") {
		k, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch k {
		case "version":
			v.Version = val
		case "versionCode":
			v.VersionCode = val
		}
	}
	if v.Version == "" {
		return models.VersionInfo{}, &OpError{Op: "version", Detail: "module.prop carries no version"}
	}
	return v, nil
}

func (l *Live) GetConflicts(ctx context.Context) ([]models.Conflict, error) {
	out, err := l.run(ctx, "conflicts", l.bin+" conflicts")
	if err != nil {
		return nil, err
	}
	var conflicts []models.Conflict
	if err := json.Unmarshal([]byte(out), &conflicts); err != nil {
		return nil, &OpError{Op: "conflicts", Detail: "malformed conflict report", Err: err}
	}
	return conflicts, nil
}

func (l *Live) GetDiagnostics(ctx context.Context) ([]models.DiagnosticIssue, error) {
	out, err := l.run(ctx, "diagnostics", l.bin+" diagnostics")
	if err != nil {
		return nil, err
	}
	var issues []models.DiagnosticIssue
	if err := json.Unmarshal([]byte(out), &issues); err != nil {
		return nil, &OpError{Op: "diagnostics", Detail: "malformed diagnostics report", Err: err}
	}
	return issues, nil
}

func (l *Live) OpenLink(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return &OpError{Op: "open-link", Detail: "refusing non-http url: " + url}
	}
	_, err := l.run(ctx, "open-link",
		"am start -a android.intent.action.VIEW -d "+shQuote(url))
	return err
}

func (l *Live) Reboot(ctx context.Context) error {
	_, err := l.run(ctx, "reboot", "svc power reboot || reboot")
	return err
}

func (l *Live) AuxStatus(ctx context.Context) (AuxStatus, error) {
	if _, err := l.probe(ctx, "aux-present", "grep -q poaceaefs /proc/filesystems"); err != nil {
		return AuxStatus{}, nil
	}
	st := AuxStatus{Available: true}
	if out, err := l.probe(ctx, "aux-version", "cat /sys/fs/poaceaefs/version"); err == nil {
		st.Version = out
	}
	return st, nil
}

func (l *Live) AuxAction(ctx context.Context, req AuxRequest) error {
	var args string
	switch req.Action {
	case "hide":
		args = "hide " + shQuote(req.Name)
	case "unhide":
		args = "unhide " + shQuote(req.Name)
	case "redirect":
		args = fmt.Sprintf("redirect %s --dst %s", shQuote(req.Src), shQuote(req.Dst))
	case "unredirect":
		args = "unredirect " + shQuote(req.Src)
	case "trust":
		args = "trust " + strconv.FormatUint(uint64(req.GID), 10)
	default:
		return &OpError{Op: "poaceae", Detail: "unknown aux action: " + req.Action}
	}
	_, err := l.run(ctx, "poaceae", fmt.Sprintf("%s poaceae %s", l.bin, args))
	return err
}

// validModuleID mirrors the daemon's module id validation: the id is
// embedded in a command line, so anything outside the safe set is refused.
func validModuleID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// shQuote single-quotes s for safe embedding in a shell command line.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
