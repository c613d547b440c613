package models

// DeviceInfo is a read-only snapshot of device facts gathered by the
// bridge's multi-probe device status operation. It is replaced wholesale on
// each refresh; individual probe failures leave the field at its default.
type DeviceInfo struct {
	Model           string   `json:"model"`
	Kernel          string   `json:"kernel"`
	SELinux         string   `json:"selinux"`
	MountBase       string   `json:"mount_base"`
	ActiveMounts    []string `json:"active_mounts"`
	ZygisksuEnforce bool     `json:"zygisksu_enforce"`
	TmpfsXattr      bool     `json:"tmpfs_xattr_supported"`
}

// Clone returns a deep copy of the device info.
func (d DeviceInfo) Clone() DeviceInfo {
	cp := d
	cp.ActiveMounts = append([]string(nil), d.ActiveMounts...)
	return cp
}

// SystemInfo holds build-level facts about the host, probed independently
// of the device snapshot.
type SystemInfo struct {
	AndroidVersion string `json:"android_version"`
	BuildID        string `json:"build_id"`
	Arch           string `json:"arch"`
}

// StorageStatus describes the daemon's backing store plus the auxiliary
// PoaceaeFS capability. Treated as a single atomic value object.
type StorageStatus struct {
	Mode         string `json:"mode"` // "tmpfs" | "ext4" | "erofs" | "unknown"
	UsedBytes    int64  `json:"used_bytes"`
	TotalBytes   int64  `json:"total_bytes"`
	AuxAvailable bool   `json:"aux_available"`
	AuxVersion   string `json:"aux_version,omitempty"`
}

// VersionInfo is the daemon version read from its module.prop.
type VersionInfo struct {
	Version     string `json:"version"`
	VersionCode string `json:"versionCode,omitempty"`
}

// DaemonState mirrors the daemon's runtime state file
// (/data/adb/meta-hybrid/run/daemon_state.json). Absence or parse failure
// degrades to the zero value per field.
type DaemonState struct {
	Timestamp       int64    `json:"timestamp"`
	PID             int      `json:"pid"`
	StorageMode     string   `json:"storage_mode"`
	MountPoint      string   `json:"mount_point"`
	OverlayModules  []string `json:"overlay_modules"`
	MagicModules    []string `json:"magic_modules"`
	ActiveMounts    []string `json:"active_mounts"`
	ZygisksuEnforce bool     `json:"zygisksu_enforce"`
	TmpfsXattr      bool     `json:"tmpfs_xattr_supported"`
}

// Conflict is one overlapping-path report from the daemon's planner.
type Conflict struct {
	Path    string   `json:"path"`
	Modules []string `json:"modules"`
}

// DiagnosticIssue is one entry of the daemon's diagnostics report.
type DiagnosticIssue struct {
	Level   string `json:"level"` // "Warning" | "Critical"
	Context string `json:"context"`
	Message string `json:"message"`
}
