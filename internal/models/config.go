// Package models defines the data structures shared across the console.
// JSON field names match the meta-hybrid daemon's serialization exactly for
// wire compatibility.
package models

// MountMode is the strategy by which a module's files are integrated into
// the system view.
type MountMode string

const (
	ModeAuto    MountMode = "auto"    // daemon picks per its default policy
	ModeOverlay MountMode = "overlay" // overlayfs-style mount
	ModeMagic   MountMode = "magic"   // bind-style "magic" mount
	ModeIgnore  MountMode = "ignore"  // module excluded from mounting
)

// OverlayMode selects the backing store for overlay mounts.
type OverlayMode string

const (
	OverlayTmpfs OverlayMode = "tmpfs"
	OverlayExt4  OverlayMode = "ext4"
	OverlayErofs OverlayMode = "erofs"
)

// BackupConfig controls the daemon's config backup retention.
type BackupConfig struct {
	MaxBackups    int   `json:"max_backups"`
	RetentionDays int64 `json:"retention_days"`
}

// ModuleRules holds the mount rules for one module: a default mode plus
// per-path overrides keyed by relative path.
type ModuleRules struct {
	DefaultMode MountMode            `json:"default_mode"`
	Paths       map[string]MountMode `json:"paths"`
}

// ModeFor returns the mode for a relative path, falling back to the default.
func (r ModuleRules) ModeFor(relPath string) MountMode {
	if m, ok := r.Paths[relPath]; ok {
		return m
	}
	return r.DefaultMode
}

// Clone returns a deep copy of the rules.
func (r ModuleRules) Clone() ModuleRules {
	cp := ModuleRules{DefaultMode: r.DefaultMode}
	if r.Paths != nil {
		cp.Paths = make(map[string]MountMode, len(r.Paths))
		for k, v := range r.Paths {
			cp.Paths[k] = v
		}
	}
	return cp
}

// Config is the daemon configuration as exposed by `show-config` and
// accepted by `save-config`. It is owned exclusively by the store.
type Config struct {
	ModuleDir             string                 `json:"moduledir"`
	MountSource           string                 `json:"mountsource"`
	Partitions            []string               `json:"partitions"`
	OverlayMode           OverlayMode            `json:"overlay_mode"`
	DisableUmount         bool                   `json:"disable_umount"`
	AllowUmountCoexist    bool                   `json:"allow_umount_coexistence"`
	Backup                BackupConfig           `json:"backup"`
	HybridMountDir        string                 `json:"hybrid_mnt_dir"`
	DefaultMode           MountMode              `json:"default_mode"`
	Rules                 map[string]ModuleRules `json:"rules"`
	LogFile               string                 `json:"logfile,omitempty"`
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	cp := c
	cp.Partitions = append([]string(nil), c.Partitions...)
	if c.Rules != nil {
		cp.Rules = make(map[string]ModuleRules, len(c.Rules))
		for id, r := range c.Rules {
			cp.Rules[id] = r.Clone()
		}
	}
	return cp
}

// Equal reports structural equality. The store derives the config dirty
// flag by comparing against the last loaded or saved snapshot.
func (c Config) Equal(o Config) bool {
	if c.ModuleDir != o.ModuleDir ||
		c.MountSource != o.MountSource ||
		c.OverlayMode != o.OverlayMode ||
		c.DisableUmount != o.DisableUmount ||
		c.AllowUmountCoexist != o.AllowUmountCoexist ||
		c.Backup != o.Backup ||
		c.HybridMountDir != o.HybridMountDir ||
		c.DefaultMode != o.DefaultMode ||
		c.LogFile != o.LogFile {
		return false
	}
	if len(c.Partitions) != len(o.Partitions) {
		return false
	}
	for i := range c.Partitions {
		if c.Partitions[i] != o.Partitions[i] {
			return false
		}
	}
	if len(c.Rules) != len(o.Rules) {
		return false
	}
	for id, r := range c.Rules {
		or, ok := o.Rules[id]
		if !ok || !rulesEqual(r, or) {
			return false
		}
	}
	return true
}

func rulesEqual(a, b ModuleRules) bool {
	if a.DefaultMode != b.DefaultMode || len(a.Paths) != len(b.Paths) {
		return false
	}
	for k, v := range a.Paths {
		if b.Paths[k] != v {
			return false
		}
	}
	return true
}
