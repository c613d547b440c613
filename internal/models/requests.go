package models

// ConfigUpdate is a partial update to the UI-bound configuration fields.
// Nil fields are left untouched.
type ConfigUpdate struct {
	ModuleDir   *string      `json:"moduledir,omitempty"`
	MountSource *string      `json:"mountsource,omitempty"`
	Partitions  *[]string    `json:"partitions,omitempty"`
	OverlayMode *OverlayMode `json:"overlay_mode,omitempty"`
	DefaultMode *MountMode   `json:"default_mode,omitempty"`
	LogFile     *string      `json:"logfile,omitempty"`
}

// Apply merges the non-nil fields into cfg.
func (u ConfigUpdate) Apply(cfg *Config) {
	if u.ModuleDir != nil {
		cfg.ModuleDir = *u.ModuleDir
	}
	if u.MountSource != nil {
		cfg.MountSource = *u.MountSource
	}
	if u.Partitions != nil {
		cfg.Partitions = append([]string(nil), *u.Partitions...)
	}
	if u.OverlayMode != nil {
		cfg.OverlayMode = *u.OverlayMode
	}
	if u.DefaultMode != nil {
		cfg.DefaultMode = *u.DefaultMode
	}
	if u.LogFile != nil {
		cfg.LogFile = *u.LogFile
	}
}

// PrefsUpdate is a partial update to the persisted UI preferences.
type PrefsUpdate struct {
	Language   *string `json:"language,omitempty"`
	ExpertMode *bool   `json:"expert_mode,omitempty"`
}

// LinkRequest asks the device to open an external URL.
type LinkRequest struct {
	URL string `json:"url"`
}
