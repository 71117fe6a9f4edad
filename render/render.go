// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package render defines the narrow contract the fisheye core consumes
// from the host's 3D renderer: render a single perspective view into a
// linear, palette-indexed framebuffer on demand. The host renderer itself
// is out of scope (SPEC_FULL.md §1, "specified only as collaborator
// contracts") — this package only describes the shape fisheye expects.
package render

import "github.com/gazed/fisheye/math/lin"

// PlateRequest is the per-plate camera frame and field of view the frame
// orchestrator hands to the host renderer for one perspective shot
// (SPEC_FULL.md §4.7 step 6). Forward/Up/Right are already composed into
// world space; the host renderer does not need to know about globe-local
// plate bases.
type PlateRequest struct {
	Forward, Up, Right lin.V3
	FOV                float64 // full field of view, radians.
	Size               int     // render a Size x Size square.
}

// HostRenderer is implemented by the host engine's 3D renderer, not by
// this module. The expected usage is:
//   - Call Init once at startup.
//   - Call RenderPlate once per displayed plate, every frame.
type HostRenderer interface {
	Init() error

	// RenderPlate renders a single perspective view per req and returns a
	// req.Size*req.Size slice of palette-indexed bytes, row-major, origin
	// top-left. The returned slice is only valid until the next call.
	RenderPlate(req PlateRequest) ([]byte, error)
}
