// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

// config_writer.go emits the console-command text spec §6 "Config
// persistence" describes, in the exact order named there, so that replaying
// the written file against the command interpreter reproduces the current
// FOV mode, lens, globe, and rubix geometry.

import (
	"fmt"
	"io"

	"github.com/gazed/fisheye/lens"
	"github.com/gazed/fisheye/math/lin"
)

// WriteConfig writes the current engine configuration as console commands,
// one per line, in the order: the active FOV command (hfov/vfov/hfit/vfit/
// fit), `fisheye <0|1>`, `lens "<name>"`, `globe "<name>"`, and
// `rubixgrid <n> <c> <p>`.
func (e *Engine) WriteConfig(w io.Writer) error {
	lines := e.configLines()
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}
	return nil
}

func (e *Engine) configLines() []string {
	var lines []string
	if fov := e.fovCommandLine(); fov != "" {
		lines = append(lines, fov)
	}
	on := 0
	if e.On {
		on = 1
	}
	lines = append(lines, fmt.Sprintf("fisheye %d", on))
	if e.Lens != nil {
		lines = append(lines, fmt.Sprintf("lens %q", e.Lens.Name))
	}
	if e.Globe != nil {
		lines = append(lines, fmt.Sprintf("globe %q", e.Globe.Name))
	}
	lines = append(lines, fmt.Sprintf("rubixgrid %d %d %d", e.rubix.NumCells, e.rubix.CellSize, e.rubix.PadSize))
	return lines
}

func (e *Engine) fovCommandLine() string {
	switch e.fov.Mode {
	case lens.FOVExplicitH:
		return fmt.Sprintf("hfov %.4f", lin.Deg(e.fov.HFOV))
	case lens.FOVExplicitV:
		return fmt.Sprintf("vfov %.4f", lin.Deg(e.fov.VFOV))
	case lens.FOVHFit:
		return "hfit"
	case lens.FOVVFit:
		return "vfit"
	case lens.FOVFit:
		return "fit"
	default:
		return ""
	}
}
