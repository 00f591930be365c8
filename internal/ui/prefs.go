package ui

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

type prefsData struct {
	LastPreset string `json:"last_preset"`
}

// Prefs persists UI preferences as JSON under the user's home directory.
// Session state is never persisted; only cosmetic choices live here.
type Prefs struct {
	filePath string
	data     prefsData
	logger   *log.Logger
}

func NewPrefs(logger *log.Logger) *Prefs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewPrefsAt(filepath.Join(homeDir, ".interval-pacer", "ui_state.json"), logger)
}

// NewPrefsAt creates a Prefs backed by an explicit file path.
func NewPrefsAt(filePath string, logger *log.Logger) *Prefs {
	p := &Prefs{filePath: filePath, logger: logger}
	p.load()
	return p
}

func (p *Prefs) LastPreset() string {
	p.logger.Printf("Prefs: lastPreset -> %q", p.data.LastPreset)
	return p.data.LastPreset
}

func (p *Prefs) SetLastPreset(name string) {
	p.logger.Printf("Prefs: setLastPreset %q", name)
	p.data.LastPreset = name
	p.save()
}

func (p *Prefs) load() {
	p.data = prefsData{}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("Prefs: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("Prefs: load %s failed to parse: %v", p.filePath, err)
		return
	}
	p.logger.Printf("Prefs: load %s -> %+v", p.filePath, p.data)
}

func (p *Prefs) save() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("Prefs: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("Prefs: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("Prefs: save %s failed: %v", p.filePath, err)
		return
	}
	p.logger.Printf("Prefs: save %s -> %+v", p.filePath, p.data)
}
