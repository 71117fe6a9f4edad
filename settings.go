// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

// settings.go is the structured counterpart to config_writer.go: a
// gopkg.in/yaml.v3 round-trippable snapshot of the engine's own knobs
// (rubix geometry, frame budget, gamedir), for tools and tests that want a
// parsed value instead of console-command text. The teacher already
// depends on yaml.v3; this is where that dependency earns its place in a
// module with no other persistence format of its own.

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is a yaml-serializable snapshot of the engine's non-script
// configuration.
type Settings struct {
	GameDir     string        `yaml:"game_dir"`
	FrameBudget time.Duration `yaml:"frame_budget"`
	Rubix       RubixSettings `yaml:"rubix"`
}

// RubixSettings is the overlay geometry portion of Settings.
type RubixSettings struct {
	NumCells int `yaml:"num_cells"`
	CellSize int `yaml:"cell_size"`
	PadSize  int `yaml:"pad_size"`
}

// Settings returns a snapshot of the engine's current configuration.
func (e *Engine) Settings() Settings {
	return Settings{
		GameDir:     e.cfg.gameDir,
		FrameBudget: e.cfg.frameBudget,
		Rubix: RubixSettings{
			NumCells: e.rubix.NumCells,
			CellSize: e.rubix.CellSize,
			PadSize:  e.rubix.PadSize,
		},
	}
}

// EncodeSettings marshals s to YAML.
func EncodeSettings(s Settings) ([]byte, error) { return yaml.Marshal(s) }

// DecodeSettings parses YAML bytes into a Settings value.
func DecodeSettings(data []byte) (Settings, error) {
	var s Settings
	err := yaml.Unmarshal(data, &s)
	return s, err
}

// ApplyTo returns the Attr list that configures an engine with the values
// of a decoded Settings snapshot, for passing to New. It changes nothing
// itself.
func (s Settings) ApplyTo() []Attr {
	return []Attr{
		GameDir(s.GameDir),
		FrameBudget(s.FrameBudget),
		RubixGeometry(s.Rubix.NumCells, s.Rubix.CellSize, s.Rubix.PadSize),
	}
}
