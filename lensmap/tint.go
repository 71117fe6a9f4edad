// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package lensmap

import (
	"math"

	"github.com/gazed/fisheye/lens"
)

// applyTint writes plate into l.PixelTints[idx] unless (tx, ty) falls on a
// rubix grid line, per spec §4.6. The grid test runs unconditionally
// during the build; whether the overlay is actually drawn is a compositor
// concern (rubix.NumCells <= 0 means no grid geometry was ever set, so
// every texel is tinted).
func applyTint(l *lens.Lens, idx, plate int, platesize, tx, ty int, rubix RubixConfig) {
	if rubix.NumCells <= 0 {
		l.PixelTints[idx] = byte(plate)
		return
	}
	period := float64(rubix.PadSize + rubix.CellSize)
	unit := float64(platesize) / float64(rubix.NumCells*(rubix.PadSize+rubix.CellSize)+rubix.PadSize)
	ux := float64(tx) / unit
	uy := float64(ty) / unit
	if math.Mod(ux, period) < float64(rubix.PadSize) || math.Mod(uy, period) < float64(rubix.PadSize) {
		return // grid line: leave the tint at its default, 255.
	}
	l.PixelTints[idx] = byte(plate)
}
