// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

// state.go tracks the change flags the frame orchestrator consults at the
// top of every frame (spec §4.7 steps 2-3): whether the viewport size, the
// requested FOV, the active lens, or the active globe changed since the
// last frame, each of which forces a reallocation and/or a fresh lens-map
// build.

// State communicates the engine's current size and change status to the
// frame orchestrator. It is refreshed each update.
type State struct {
	WidthPx, HeightPx int // current viewport size in pixels.
	PlateSize         int // min(WidthPx, HeightPx), per spec §4.7 step 1.

	SizeChanged  bool // viewport size differs from last frame.
	FOVChanged   bool // an hfov/vfov/hfit/vfit/fit command landed this frame.
	LensChanged  bool // a lens command landed this frame.
	GlobeChanged bool // a globe command landed this frame.
}

// Screen is a convenience method returning the current viewport size.
func (s *State) Screen() (widthPx, heightPx, plateSize int) {
	return s.WidthPx, s.HeightPx, s.PlateSize
}

// Changed reports whether any flag that forces a fresh lens-map build is
// set (spec §4.7 step 3).
func (s *State) Changed() bool {
	return s.SizeChanged || s.FOVChanged || s.LensChanged || s.GlobeChanged
}

// setSize updates the tracked viewport size, setting SizeChanged when it
// differs from the previous value.
func (s *State) setSize(widthPx, heightPx int) {
	plateSize := widthPx
	if heightPx < plateSize {
		plateSize = heightPx
	}
	if widthPx != s.WidthPx || heightPx != s.HeightPx {
		s.SizeChanged = true
	}
	s.WidthPx, s.HeightPx, s.PlateSize = widthPx, heightPx, plateSize
}

// clearChangeFlags resets the per-frame change flags (spec §4.7 step 10).
func (s *State) clearChangeFlags() {
	s.SizeChanged, s.FOVChanged, s.LensChanged, s.GlobeChanged = false, false, false, false
}
