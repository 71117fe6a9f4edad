// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package fisheye renders a spherical view of a scene as a set of flat
// perspective shots ("plates") taken by a host 3D renderer, composited
// through a scripted lens projection. The engine owns no window, no scene
// graph, and no GPU context; it asks a render.HostRenderer collaborator for
// one perspective render per displayed plate each frame and does the rest
// of the work (plate selection, lens projection, compositing) on the CPU.
package fisheye

import (
	"fmt"
	"image/color"
	"log"

	"github.com/gazed/fisheye/globe"
	"github.com/gazed/fisheye/lens"
	"github.com/gazed/fisheye/lensmap"
	"github.com/gazed/fisheye/palette"
	"github.com/gazed/fisheye/render"
	"github.com/gazed/fisheye/script"
)

// CommandRunner is implemented by the host application's console, not by
// this module. A Lens script's optional onload string is dispatched through
// it after a successful load (spec §4.3 step 6).
type CommandRunner interface {
	RunCommand(cmd string) error
}

// Engine drives the fisheye addon: the loaded globe and lens scripts, the
// resumable lens-map builder, and the per-frame compositing pass that fills
// Framebuffer. Host supplies perspective renders on request.
type Engine struct {
	cfg  Config
	host *script.Host
	gc   render.HostRenderer

	state  State
	timing Timing

	On bool // fisheye command toggle (spec §6 "fisheye <0|1>").

	Globe *globe.Globe
	Lens  *lens.Lens
	fov   lens.FOVRequest

	lensPath, globePath string

	builder lensmap.Builder
	view    *fisheyeView

	rubix   lensmap.RubixConfig
	rubixOn bool

	Palette color.Palette // active RGB palette; used for rubix tints and PCX output.

	// Commands dispatches a Lens script's onload string (spec §4.3 step 6).
	// Nil means onload strings are parsed but silently not run.
	Commands CommandRunner

	pendingSaveGlobe   string
	pendingSaveMargins bool

	// Framebuffer is the viewport-sized, palette-indexed output of the
	// last Update call, row-major, origin top-left.
	Framebuffer []byte
	Background  byte
}

// New creates an Engine bound to a host renderer and initializes it.
func New(gc render.HostRenderer, attrs ...Attr) (*Engine, error) {
	cfg := configDefaults
	for _, attr := range attrs {
		attr(&cfg)
	}
	if err := gc.Init(); err != nil {
		return nil, fmt.Errorf("fisheye: host renderer init: %w", err)
	}
	e := &Engine{
		cfg:     cfg,
		host:    script.NewHost(),
		gc:      gc,
		view:    newFisheyeView(),
		rubix:   lensmap.RubixConfig{NumCells: cfg.rubixCells, CellSize: cfg.rubixCell, PadSize: cfg.rubixPad},
		Palette: grayscalePalette(),
	}
	return e, nil
}

// Close releases the script host's Lua state.
func (e *Engine) Close() {
	if e.host != nil {
		e.host.Close()
	}
}

// Spin adjusts the view's yaw/pitch, same convention as the teacher's
// camera.Spin.
func (e *Engine) Spin(yawDelta, pitchDelta float64) {
	e.view.Spin(yawDelta, pitchDelta)
}

// SetPalette installs the host's active RGB palette, used for rubix tints,
// dumppal, and PCX output, and rebuilds the per-plate tint tables against
// it (spec §2, §3 "Lifecycle": "palette tables built once at startup",
// generalized here to "once per palette or globe change" since a host may
// swap its palette or globe after startup).
func (e *Engine) SetPalette(pal color.Palette) {
	e.Palette = pal
	e.rebuildTintTables()
}

// rebuildTintTables derives a fresh tint table per plate from the active
// palette and assigns it into each Plate.Palette, where the rubix overlay
// in composite (orchestrator.go) remaps through it. A no-op until a globe
// is loaded.
func (e *Engine) rebuildTintTables() {
	if e.Globe == nil || !e.Globe.Valid {
		return
	}
	tables := palette.BuildTintTables(e.Palette, len(e.Globe.Plates))
	for i := range e.Globe.Plates {
		e.Globe.Plates[i].Palette = tables[i]
	}
}

// Timing returns the builder timing numbers from the most recent Update.
func (e *Engine) Timing() Timing { return e.timing }

// State returns the engine's current size and change-flag state.
func (e *Engine) State() State { return e.state }

// grayscalePalette is the engine's default active palette before any
// host-specific palette is set: 256 equal steps of gray, so dumppal and the
// rubix overlay have something sane to work with out of the box.
func grayscalePalette() color.Palette {
	pal := make(color.Palette, 256)
	for i := range pal {
		v := uint8(i)
		pal[i] = color.RGBA{R: v, G: v, B: v, A: 0xFF}
	}
	return pal
}

// logBuildFailure is the one-line, log-and-continue policy for per-frame
// build failures (spec §7): never panic, never retry automatically.
func logBuildFailure(context string, err error) {
	log.Printf("fisheye: %s: %v", context, err)
}
