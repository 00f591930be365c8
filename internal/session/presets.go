package session

import "time"

// AllPresets is the registry of built-in interval session presets.
var AllPresets = []PhaseConfig{
	{
		Name:             "Classic 5x3",
		ActiveDuration:   3 * time.Minute,
		RecoveryDuration: 3 * time.Minute,
		TotalIntervals:   5,
		WarmupDuration:   5 * time.Minute,
		WarmupEnabled:    true,
		CooldownDuration: 5 * time.Minute,
		CooldownEnabled:  true,
	},
	{
		Name:             "No Frills 5x3",
		ActiveDuration:   3 * time.Minute,
		RecoveryDuration: 3 * time.Minute,
		TotalIntervals:   5,
	},
	{
		Name:             "Beginner 8x1",
		ActiveDuration:   1 * time.Minute,
		RecoveryDuration: 2 * time.Minute,
		TotalIntervals:   8,
		WarmupDuration:   5 * time.Minute,
		WarmupEnabled:    true,
		CooldownDuration: 5 * time.Minute,
		CooldownEnabled:  true,
	},
	{
		Name:             "Pyramid 6x2",
		ActiveDuration:   2 * time.Minute,
		RecoveryDuration: 90 * time.Second,
		TotalIntervals:   6,
		WarmupDuration:   3 * time.Minute,
		WarmupEnabled:    true,
		CooldownDuration: 3 * time.Minute,
		CooldownEnabled:  true,
	},
	{
		Name:             "Sprint 10x30s",
		ActiveDuration:   30 * time.Second,
		RecoveryDuration: 90 * time.Second,
		TotalIntervals:   10,
		WarmupDuration:   5 * time.Minute,
		WarmupEnabled:    true,
		CooldownDuration: 5 * time.Minute,
		CooldownEnabled:  true,
	},
}

// PresetByName returns the preset with the given name.
func PresetByName(name string) (PhaseConfig, bool) {
	for _, p := range AllPresets {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseConfig{}, false
}
