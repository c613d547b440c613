package models

// Well-known daemon paths. These mirror the metamodule's install layout.
const (
	DefaultModuleDir  = "/data/adb/modules"
	DefaultMountDir   = "/debug_ramdisk"
	DaemonStateFile   = "/data/adb/meta-hybrid/run/daemon_state.json"
	DaemonPropFile    = "/data/adb/modules/meta-hybrid/module.prop"
	DefaultLogFile    = "/data/adb/meta-hybrid/daemon.log"
	StorageModeUnknown = "unknown"
)

// DefaultConfig returns the configuration the daemon generates when no
// config file exists.
func DefaultConfig() Config {
	return Config{
		ModuleDir:      DefaultModuleDir,
		MountSource:    "KSU",
		Partitions:     []string{},
		OverlayMode:    OverlayTmpfs,
		Backup:         BackupConfig{MaxBackups: 20},
		HybridMountDir: DefaultMountDir,
		DefaultMode:    ModeOverlay,
		Rules:          map[string]ModuleRules{},
	}
}

// DefaultDeviceInfo is the fallback snapshot when every device probe fails.
func DefaultDeviceInfo() DeviceInfo {
	return DeviceInfo{
		Model:     "Unknown",
		Kernel:    "Unknown",
		SELinux:   "Unknown",
		MountBase: DefaultMountDir,
	}
}

// DefaultSystemInfo is the fallback when every system probe fails.
func DefaultSystemInfo() SystemInfo {
	return SystemInfo{AndroidVersion: "Unknown", BuildID: "Unknown", Arch: "Unknown"}
}

// DefaultStorageStatus is the fallback when the daemon state file is
// missing or unreadable.
func DefaultStorageStatus() StorageStatus {
	return StorageStatus{Mode: StorageModeUnknown}
}
