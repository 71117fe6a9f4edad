// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

import (
	"math"

	"github.com/gazed/fisheye/math/lin"
)

// fisheyeView is the camera's world-space orientation, used by the frame
// orchestrator (spec §4.7 step 5) to derive the basis each plate renders
// against. Unlike the teacher's pov/camera pair, there is no position, no
// quaternion, and no projection matrix: the lens-map builder and the host
// renderer only ever need a forward/up/right triple, so the view is kept to
// the two angles that produce one.
type fisheyeView struct {
	yaw, pitch float64 // radians; yaw about world up, pitch about world right.
}

// newFisheyeView returns a level view looking down +Z.
func newFisheyeView() *fisheyeView { return &fisheyeView{} }

// SetYawPitch sets the view orientation directly, wrapping yaw to [-π, π]
// and clamping pitch so the view never tips past straight up or down.
func (v *fisheyeView) SetYawPitch(yaw, pitch float64) {
	v.yaw = lin.Nang(yaw)
	v.pitch = lin.Clamp(pitch, -math.Pi/2, math.Pi/2)
}

// Spin adjusts yaw and pitch by the given deltas, both in radians.
func (v *fisheyeView) Spin(yawDelta, pitchDelta float64) {
	v.SetYawPitch(v.yaw+yawDelta, v.pitch+pitchDelta)
}

// Basis returns the view's orthonormal forward/up/right triple in world
// space. Forward is derived from yaw/pitch directly; up and right are
// re-derived from forward and the world up vector each call, the same
// re-orthogonalization the globe plate basis uses (spec §4.2), so a view
// basis and a plate basis combine consistently in ComposePlateBasis.
func (v *fisheyeView) Basis() (forward, up, right lin.V3) {
	cy, sy := math.Cos(v.yaw), math.Sin(v.yaw)
	cp, sp := math.Cos(v.pitch), math.Sin(v.pitch)
	forward = lin.V3{X: sy * cp, Y: sp, Z: cy * cp}

	worldUp := lin.V3{X: 0, Y: 1, Z: 0}
	if math.Abs(forward.Dot(&worldUp)) > 1-lin.Epsilon {
		worldUp = lin.V3{X: 0, Y: 0, Z: 1} // looking straight up/down: pick another reference.
	}
	right = *lin.NewV3().Cross(&worldUp, &forward)
	right.Unit()
	up = *lin.NewV3().Cross(&forward, &right)
	up.Unit()
	return forward, up, right
}
