// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package lensmap computes, for every output screen pixel, which globe
// plate and plate texel supplies its color (SPEC_FULL.md §4.6). It is the
// core of the fisheye addon: building the map means inverting the
// Lens/Globe projection function per pixel (or sampling it forward and
// rasterizing quads), sliced across frames under a wall-clock budget so it
// never blocks the game loop.
package lensmap

import (
	"time"

	"github.com/gazed/fisheye/globe"
	"github.com/gazed/fisheye/lens"
	"github.com/gazed/fisheye/script"
)

// Phase is the builder's coarse state: which algorithm (if any) is
// currently resuming.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInverse
	PhaseForward
	PhaseDone
)

// RubixConfig is the geometry of the diagnostic grid overlay set by the
// rubixgrid command (spec §6).
type RubixConfig struct {
	NumCells int
	CellSize int
	PadSize  int
}

// screenPoint is an output-pixel-space coordinate produced by a forward
// lens_forward probe, NaN when the probe returned skip.
type screenPoint struct{ X, Y float64 }

// Builder is the resumable cursor described by spec §3 "Lens-map build
// state" and §9's "coroutine control flow" design note: a state struct
// plus a Resume operation, holding only what is needed to continue.
//
// Resume checks its budget only at the head of the outer loop, so it
// interrupts a build at exactly a row boundary (inverse) or a plate-row
// boundary (forward) and pick it back up next frame from the same cursor
// (spec §5).
type Builder struct {
	phase Phase

	invRow int // next output row to process, height_px-1 down to 0.

	fwdPlate int  // current plate index.
	fwdRow   int  // next plate row to process, platesize-1 down to 0; -1 means "needs (re)init".
	fwdTop   []screenPoint
	fwdBot   []screenPoint
	fwdInit  bool
}

// Working reports whether a build is in progress (started but not yet
// finished or idle).
func (b *Builder) Working() bool { return b.phase == PhaseInverse || b.phase == PhaseForward }

// Start resets the cursor and selects the algorithm named by l.MapType. A
// lens with MapNone immediately finishes with an empty lens-map.
func (b *Builder) Start(l *lens.Lens) {
	switch l.MapType {
	case lens.MapInverse:
		b.phase = PhaseInverse
		b.invRow = l.HeightPx - 1
	case lens.MapForward:
		b.phase = PhaseForward
		b.fwdPlate = 0
		b.fwdRow = -1
		b.fwdInit = false
	default:
		b.phase = PhaseDone
	}
}

// Resume advances the build by as much work as fits in budget, starting
// from wherever the cursor last yielded. It returns working=true if the
// budget ran out before the build finished (call Resume again next frame);
// working=false means the build is complete (or was aborted by err).
func (b *Builder) Resume(host *script.Host, g *globe.Globe, l *lens.Lens, rubix RubixConfig, budget time.Duration) (working bool, err error) {
	start := time.Now()
	switch b.phase {
	case PhaseInverse:
		return b.resumeInverse(host, g, l, rubix, start, budget)
	case PhaseForward:
		return b.resumeForward(host, g, l, rubix, start, budget)
	default:
		return false, nil
	}
}

func clampTexel(t, size int) int {
	switch {
	case t < 0:
		return 0
	case t >= size:
		return size - 1
	default:
		return t
	}
}

// pixelToLens is the inverse-build domain map of spec §4.6: output pixel
// (lx, ly) to lens-space (x, y).
func pixelToLens(lx, ly int, l *lens.Lens) (x, y float64) {
	x = (float64(lx) - float64(l.WidthPx)/2) * l.Scale
	y = -(float64(ly) - float64(l.HeightPx)/2) * l.Scale
	return x, y
}

// lensToPixel is the forward-build counterpart: lens-space (x, y) to
// output pixel-space (lx, ly), inverting pixelToLens.
func lensToPixel(x, y float64, l *lens.Lens) (lx, ly float64) {
	lx = x/l.Scale + float64(l.WidthPx)/2
	ly = float64(l.HeightPx)/2 - y/l.Scale
	return lx, ly
}
