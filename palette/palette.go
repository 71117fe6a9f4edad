// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package palette builds the per-plate tint remap tables used by the rubix
// diagnostic overlay (SPEC_FULL.md §2, §4.6): given a 256-entry RGB
// palette, it derives one 256→256 byte remap per plate that nudges that
// plate's colors toward a distinct fixed hue.
package palette

import (
	"image/color"

	"golang.org/x/image/colornames"
)

// MaxTints is the number of fixed tint hues available, one per cube-globe
// face (spec §3 "Plate: palette: ... one of six fixed tints").
const MaxTints = 6

// tintHues are the six fixed colors the rubix overlay cycles through,
// named the way colornames exports them.
var tintHues = [MaxTints]color.Color{
	colornames.Red,
	colornames.Lime,
	colornames.Blue,
	colornames.Yellow,
	colornames.Cyan,
	colornames.Magenta,
}

// BuildTintTables derives one 256-entry remap table per plate from the
// active RGB palette, blending each palette entry toward tintHues[i%6].
// The returned slice has one [256]byte per plate, in plate order.
func BuildTintTables(pal color.Palette, numPlates int) [][256]byte {
	tables := make([][256]byte, numPlates)
	for p := 0; p < numPlates; p++ {
		hue := tintHues[p%MaxTints]
		tables[p] = buildTintTable(pal, hue)
	}
	return tables
}

// buildTintTable blends every entry of pal 50/50 toward hue, then
// remaps each blended color back to its nearest index in pal so the
// result stays within the original 256-color budget.
func buildTintTable(pal color.Palette, hue color.Color) [256]byte {
	var table [256]byte
	hr, hg, hb, _ := hue.RGBA()
	for i, c := range pal {
		if i >= 256 {
			break
		}
		r, g, b, a := c.RGBA()
		blend := color.RGBA64{
			R: uint16((r + hr) / 2),
			G: uint16((g + hg) / 2),
			B: uint16((b + hb) / 2),
			A: uint16(a),
		}
		table[i] = byte(pal.Index(blend))
	}
	return table
}
