// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

// commands.go implements the console command surface of spec §6. Each
// method mirrors one named command; arity and effect match the spec table
// exactly. The lens and globe commands load their script immediately; every
// command then only sets engine state and change flags -- the lens-map
// rebuild happens in Update (orchestrator.go), same separation the teacher
// draws between Director callbacks and frame.go.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gazed/fisheye/globe"
	"github.com/gazed/fisheye/lens"
	"github.com/gazed/fisheye/math/lin"
)

// Fisheye toggles the addon on or off.
func (e *Engine) Fisheye(on bool) { e.On = on }

// SetLens implements the "lens <name>" command: load
// <gamedir>/../lenses/<name>.lua as the active lens.
func (e *Engine) SetLens(name string) error {
	path := e.lensScriptPath(name)
	numPlates := 0
	if e.Globe != nil {
		numPlates = len(e.Globe.Plates)
	}
	l, err := lens.Load(e.host, name, path, numPlates)
	if err != nil {
		return fmt.Errorf("lens %q: %w", name, err)
	}
	e.Lens = l
	e.lensPath = path
	e.state.LensChanged = true
	e.runOnload(l)
	return nil
}

// runOnload dispatches l's onload string through e.Commands, if both are
// present, after a successful lens load (spec §4.3 step 6). A failure is
// logged, not returned: the lens itself already loaded successfully.
func (e *Engine) runOnload(l *lens.Lens) {
	if l.Onload == "" || e.Commands == nil {
		return
	}
	if err := e.Commands.RunCommand(l.Onload); err != nil {
		logBuildFailure(fmt.Sprintf("lens %q onload", l.Name), err)
	}
}

// SetGlobe implements the "globe <name>" command: load
// <gamedir>/../globes/<name>.lua as the active globe.
func (e *Engine) SetGlobe(name string) error {
	path := e.globeScriptPath(name)
	g, err := globe.Load(e.host, name, path)
	if err != nil {
		return fmt.Errorf("globe %q: %w", name, err)
	}
	e.Globe = g
	e.globePath = path
	e.state.GlobeChanged = true
	e.rebuildTintTables()
	return nil
}

// HFOV sets an explicit horizontal field of view in degrees.
func (e *Engine) HFOV(deg float64) {
	e.fov = lens.FOVRequest{Mode: lens.FOVExplicitH, HFOV: lin.Rad(deg)}
	e.state.FOVChanged = true
}

// VFOV sets an explicit vertical field of view in degrees.
func (e *Engine) VFOV(deg float64) {
	e.fov = lens.FOVRequest{Mode: lens.FOVExplicitV, VFOV: lin.Rad(deg)}
	e.state.FOVChanged = true
}

// HFit fits the lens horizontally to lens_width.
func (e *Engine) HFit() {
	e.fov = lens.FOVRequest{Mode: lens.FOVHFit}
	e.state.FOVChanged = true
}

// VFit fits the lens vertically to lens_height.
func (e *Engine) VFit() {
	e.fov = lens.FOVRequest{Mode: lens.FOVVFit}
	e.state.FOVChanged = true
}

// Fit fits the lens to whichever of lens_width/lens_height is the tighter
// constraint.
func (e *Engine) Fit() {
	e.fov = lens.FOVRequest{Mode: lens.FOVFit}
	e.state.FOVChanged = true
}

// Rubix toggles the diagnostic grid overlay.
func (e *Engine) Rubix() { e.rubixOn = !e.rubixOn }

// RubixGrid sets the overlay's cell geometry.
func (e *Engine) RubixGrid(numCells, cellSize, padSize int) {
	e.rubix.NumCells, e.rubix.CellSize, e.rubix.PadSize = numCells, cellSize, padSize
}

// SaveGlobe schedules a screenshot of every globe plate as name<index>.pcx,
// dispatched on the next Update (spec §4.7 step 7).
func (e *Engine) SaveGlobe(name string, withMargins bool) {
	e.pendingSaveGlobe = name
	e.pendingSaveMargins = withMargins
}

// DumpPal writes the active RGB palette to a file named "palette" as 256
// raw RGB triples.
func (e *Engine) DumpPal() error {
	return dumpPalette(e.Palette, "palette")
}

// LensNames lists the *.lua files in the lenses directory, for command
// completion.
func (e *Engine) LensNames() []string { return scriptNames(filepath.Join(e.cfg.gameDir, "..", "lenses")) }

// GlobeNames lists the *.lua files in the globes directory, for command
// completion.
func (e *Engine) GlobeNames() []string { return scriptNames(filepath.Join(e.cfg.gameDir, "..", "globes")) }

func (e *Engine) lensScriptPath(name string) string {
	return filepath.Join(e.cfg.gameDir, "..", "lenses", name+".lua")
}

func (e *Engine) globeScriptPath(name string) string {
	return filepath.Join(e.cfg.gameDir, "..", "globes", name+".lua")
}

// scriptNames returns the base names (without extension) of every .lua file
// directly under dir, sorted.
func scriptNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.EqualFold(filepath.Ext(ent.Name()), ".lua") {
			continue
		}
		names = append(names, strings.TrimSuffix(ent.Name(), filepath.Ext(ent.Name())))
	}
	sort.Strings(names)
	return names
}
