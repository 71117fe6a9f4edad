// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

// orchestrator.go turns the engine's loaded globe/lens and the host
// renderer's plate shots into a composited viewport framebuffer. The
// numbered steps below follow spec §4.7 directly.

import (
	"fmt"
	"time"

	"github.com/gazed/fisheye/globe"
	"github.com/gazed/fisheye/lens"
	"github.com/gazed/fisheye/math/lin"
	"github.com/gazed/fisheye/render"
)

// Update runs one frame of the fisheye addon against a widthPx x heightPx
// viewport, leaving the result in e.Framebuffer. It never returns an error
// for per-frame rendering failures (spec §7): those are logged and leave
// the viewport blank instead.
func (e *Engine) Update(widthPx, heightPx int) {
	frameStart := time.Now()
	e.timing.Zero()
	defer func() { e.timing.Elapsed = time.Since(frameStart) }()

	if !e.On {
		return
	}

	// Step 1/2: compute platesize, detect and apply a resize.
	e.state.setSize(widthPx, heightPx)
	if e.state.SizeChanged {
		if e.Globe != nil {
			e.Globe.Resize(e.state.PlateSize)
		}
		if e.Lens != nil {
			e.Lens.Resize(widthPx, heightPx)
		}
		e.resizeFramebuffer(widthPx, heightPx)
	}

	// Step 3/4: (re)start or resume the lens-map build.
	if e.state.Changed() {
		e.startBuild()
	} else if e.builder.Working() {
		e.resumeBuild()
	}

	// Step 5: world-space view basis.
	viewForward, viewUp, viewRight := e.view.Basis()

	// Step 6: render each displayed plate and copy it into globe.pixels.
	if e.Globe != nil && e.Globe.Valid {
		for p := range e.Globe.Plates {
			plate := &e.Globe.Plates[p]
			if !plate.Display {
				continue
			}
			forward, up, right := ComposePlateBasis(viewForward, viewUp, viewRight, *plate)
			req := render.PlateRequest{Forward: forward, Up: up, Right: right, FOV: plate.FOV, Size: e.Globe.PlateSize}
			pixels, err := e.gc.RenderPlate(req)
			if err != nil {
				logBuildFailure(fmt.Sprintf("render plate %d", p), err)
				continue
			}
			e.copyPlatePixels(p, pixels)
		}
	}

	// Step 7: dispatch a pending save-globe request.
	if e.pendingSaveGlobe != "" {
		if err := saveGlobePlates(e.Globe, e.Palette, e.pendingSaveGlobe, e.pendingSaveMargins); err != nil {
			logBuildFailure("saveglobe", err)
		}
		e.pendingSaveGlobe = ""
	}

	// Step 8: clear the viewport.
	for i := range e.Framebuffer {
		e.Framebuffer[i] = e.Background
	}

	// Step 9: composite.
	e.composite()

	// Step 10: clear change flags.
	e.state.clearChangeFlags()
}

// resizeFramebuffer (re)allocates the output buffer to the new viewport
// size, matching the lens/globe reallocation of spec §4.7 step 2.
func (e *Engine) resizeFramebuffer(widthPx, heightPx int) {
	e.Framebuffer = make([]byte, widthPx*heightPx)
}

// startBuild reloads the lens script (so numplates-dependent globals are
// re-evaluated, and its onload runs again), resets every plate's display
// flag, and starts a fresh lens-map build (spec §4.7 step 3). If the reload
// fails, the previously loaded lens is kept.
func (e *Engine) startBuild() {
	if e.Lens == nil || !e.Lens.Valid || e.Globe == nil || !e.Globe.Valid {
		return
	}
	if e.lensPath != "" {
		if reloaded, err := lens.Load(e.host, e.Lens.Name, e.lensPath, len(e.Globe.Plates)); err != nil {
			logBuildFailure("reload lens on change", err) // spec §7: keep the last valid lens.
		} else {
			reloaded.Resize(e.state.WidthPx, e.state.HeightPx)
			e.Lens = reloaded
			e.runOnload(reloaded)
		}
	}
	for i := range e.Globe.Plates {
		e.Globe.Plates[i].Display = false
	}
	if err := e.Lens.DetermineScale(e.host, e.fov, e.state.WidthPx, e.state.HeightPx); err != nil {
		logBuildFailure("determine lens scale", err)
		return // spec §7 "FOV infeasible": scale stays <= 0, build is skipped below.
	}
	e.Lens.ClearBuffers()
	e.builder.Start(e.Lens)
	e.resumeBuild()
}

// resumeBuild advances the builder by one frame's budget, recording the
// time spent into e.timing.
func (e *Engine) resumeBuild() {
	if e.Lens == nil || e.Lens.Scale <= 0 {
		return
	}
	resumeStart := time.Now()
	_, err := e.builder.Resume(e.host, e.Globe, e.Lens, e.rubix, e.cfg.frameBudget)
	e.timing.recordResume(time.Since(resumeStart))
	if err != nil {
		logBuildFailure("lens-map build", err)
	}
}

// copyPlatePixels writes a freshly rendered plate's pixels into globe.pixels
// at plate p's slot. TexelIndex(p, 0, 0) through TexelIndex(p, size-1,
// size-1) is one contiguous, row-major block, matching the host renderer's
// output layout directly.
func (e *Engine) copyPlatePixels(p int, pixels []byte) {
	size := e.Globe.PlateSize
	start := e.Globe.TexelIndex(p, 0, 0)
	n := copy(e.Globe.Pixels[start:start+size*size], pixels)
	if n < size*size {
		logBuildFailure(fmt.Sprintf("plate %d render", p), fmt.Errorf("got %d pixels, want %d", len(pixels), size*size))
	}
}

// composite is spec §4.7 step 9: copy each non-null lens pixel from
// globe.pixels into the framebuffer, applying the rubix tint remap when the
// overlay is active and the pixel isn't a grid line.
func (e *Engine) composite() {
	if e.Lens == nil || e.Globe == nil {
		return
	}
	for i, entry := range e.Lens.Pixels {
		if entry == -1 {
			continue
		}
		c := e.Globe.Pixels[entry]
		if e.rubixOn {
			if tint := e.Lens.PixelTints[i]; tint != 255 && int(tint) < len(e.Globe.Plates) {
				c = e.Globe.Plates[tint].Palette[c]
			}
		}
		e.Framebuffer[i] = c
	}
}

// ComposePlateBasis combines the view's world-space basis with a plate's
// globe-local basis by linear combination (spec §4.7 step 6): the plate's
// local forward/up/right vectors are each expressed as a mix of the view's
// world-space forward/up/right, exactly as a change of basis.
func ComposePlateBasis(viewForward, viewUp, viewRight lin.V3, plate globe.Plate) (forward, up, right lin.V3) {
	transform := func(local lin.V3) lin.V3 {
		return lin.V3{
			X: viewRight.X*local.X + viewUp.X*local.Y + viewForward.X*local.Z,
			Y: viewRight.Y*local.X + viewUp.Y*local.Y + viewForward.Y*local.Z,
			Z: viewRight.Z*local.X + viewUp.Z*local.Y + viewForward.Z*local.Z,
		}
	}
	return transform(plate.Forward), transform(plate.Up), transform(plate.Right)
}
