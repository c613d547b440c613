package models

// ToastSeverity classifies a toast for the UI.
type ToastSeverity string

const (
	ToastInfo    ToastSeverity = "info"
	ToastSuccess ToastSeverity = "success"
	ToastWarning ToastSeverity = "warning"
	ToastError   ToastSeverity = "error"
)

// Toast is the single-slot notification surfaced to the UI. At most one
// toast is visible at a time.
type Toast struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Severity ToastSeverity `json:"severity"`
	Visible  bool          `json:"visible"`
}

// Flags are the per-resource loading/saving indicators. Each flag is true
// strictly between the start and end of its owning async action.
type Flags struct {
	LoadingConfig  bool `json:"loading_config"`
	SavingConfig   bool `json:"saving_config"`
	LoadingModules bool `json:"loading_modules"`
	SavingRules    bool `json:"saving_rules"`
	LoadingStatus  bool `json:"loading_status"`
}

// Snapshot is a deep copy of the full store state, published on the event
// bus whenever a state slice is replaced.
type Snapshot struct {
	Config      Config        `json:"config"`
	ConfigDirty bool          `json:"config_dirty"`
	Modules     []Module      `json:"modules"`
	ModeStats   ModeStats     `json:"mode_stats"`
	Device      DeviceInfo    `json:"device"`
	System      SystemInfo    `json:"system"`
	Storage     StorageStatus `json:"storage"`
	Version     VersionInfo   `json:"version"`
	Language    string        `json:"language"`
	ExpertMode  bool          `json:"expert_mode"`
	Live        bool          `json:"live"`
	Toast       Toast         `json:"toast"`
	Flags       Flags         `json:"flags"`
}
