// Package bridge turns typed console operations into commands against the
// privileged meta-hybrid executor and parses the replies. It provides two
// interchangeable backends behind one interface: Live, which shells out
// through an Executor, and Mock, which answers from generated in-memory
// data after an artificial delay. The backend is selected once at startup
// and never re-selected.
package bridge

import (
	"context"
	"fmt"

	"github.com/hybrid-mount/hmconsole/internal/models"
)

// AuxRequest is one action against the auxiliary PoaceaeFS subsystem.
type AuxRequest struct {
	Action string `json:"action"` // "hide" | "unhide" | "redirect" | "unredirect" | "trust"
	Name   string `json:"name,omitempty"`
	Src    string `json:"src,omitempty"`
	Dst    string `json:"dst,omitempty"`
	GID    uint32 `json:"gid,omitempty"`
}

// AuxStatus reports the auxiliary subsystem's availability.
type AuxStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// Bridge is the fixed catalogue of operations the console can perform
// against the daemon. Load/scan/get operations are idempotent; save,
// reset, reboot, and aux actions are invoked at most once per user action.
type Bridge interface {
	LoadConfig(ctx context.Context) (models.Config, error)
	SaveConfig(ctx context.Context, cfg models.Config) error
	ResetConfig(ctx context.Context) error
	ScanModules(ctx context.Context) ([]models.Module, error)
	SaveModuleRules(ctx context.Context, moduleID string, rules models.ModuleRules) error
	ReadLogs(ctx context.Context, path string, lines int) (string, error)
	GetStorage(ctx context.Context) (models.StorageStatus, error)
	GetSystemInfo(ctx context.Context) (models.SystemInfo, error)
	GetDeviceInfo(ctx context.Context) (models.DeviceInfo, error)
	GetVersion(ctx context.Context) (models.VersionInfo, error)
	GetConflicts(ctx context.Context) ([]models.Conflict, error)
	GetDiagnostics(ctx context.Context) ([]models.DiagnosticIssue, error)
	OpenLink(ctx context.Context, url string) error
	Reboot(ctx context.Context) error
	AuxStatus(ctx context.Context) (AuxStatus, error)
	AuxAction(ctx context.Context, req AuxRequest) error

	// IsLive reports whether this is the privileged out-of-process backend.
	IsLive() bool
}

// OpError reports a failed bridge operation: the executor returned a
// non-zero status or its output could not be parsed.
type OpError struct {
	Op     string // operation name, e.g. "save-config"
	Status int    // executor status code, 0 when the failure is local
	Detail string // executor stderr or a generic message
	Err    error  // underlying parse/exec error, if any
}

func (e *OpError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("bridge: %s failed (status %d): %s", e.Op, e.Status, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("bridge: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("bridge: %s failed: %s", e.Op, e.Detail)
}

func (e *OpError) Unwrap() error { return e.Err }

// ProbeError marks a failed sub-probe inside a multi-probe operation. It
// is tolerated at the probe site: the enclosing operation keeps the
// field's default and returns a best-effort composite.
type ProbeError struct {
	Probe string
	Err   error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("bridge: probe %s failed: %v", e.Probe, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }
