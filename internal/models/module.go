package models

// Module is one entry of the daemon's module inventory as printed by the
// `modules` subcommand. The list is replaced wholesale on every scan.
type Module struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Mode        MountMode   `json:"mode"`
	Mounted     bool        `json:"is_mounted"`
	Rules       ModuleRules `json:"rules"`
}

// Clone returns a deep copy of the module.
func (m Module) Clone() Module {
	cp := m
	cp.Rules = m.Rules.Clone()
	return cp
}

// CloneModules deep-copies a module list.
func CloneModules(mods []Module) []Module {
	if mods == nil {
		return nil
	}
	cp := make([]Module, len(mods))
	for i, m := range mods {
		cp[i] = m.Clone()
	}
	return cp
}

// ModeStats counts mounted modules per mount mode. Unmounted modules are
// excluded. Recomputed from the module list on every read.
type ModeStats struct {
	Auto    int `json:"auto"`
	Overlay int `json:"overlay"`
	Magic   int `json:"magic"`
	Ignore  int `json:"ignore"`
}

// CountModes computes ModeStats from a module list.
func CountModes(mods []Module) ModeStats {
	var s ModeStats
	for _, m := range mods {
		if !m.Mounted {
			continue
		}
		switch m.Mode {
		case ModeAuto:
			s.Auto++
		case ModeOverlay:
			s.Overlay++
		case ModeMagic:
			s.Magic++
		case ModeIgnore:
			s.Ignore++
		}
	}
	return s
}
