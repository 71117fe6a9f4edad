// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package lensmap

import (
	"fmt"
	"math"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/gazed/fisheye/globe"
	"github.com/gazed/fisheye/lens"
	"github.com/gazed/fisheye/script"
)

// maxQuadSpan is the forward-build wraparound guard of spec §4.6: a quad
// whose screen-space bounding box exceeds this many pixels in either
// dimension straddles a lens discontinuity (e.g. the ±180° seam) and is
// dropped rather than drawn. The value is an unexplained magic number in
// the source spec (§9, Open Question #3) and is kept as-is.
const maxQuadSpan = 20

// resumeForward is the forward build of spec §4.6: one lens_forward probe
// per plate texel corner, rasterizing a quad between adjacent samples
// rather than one probe per output pixel. Plates are processed in order;
// within a plate, rows run from platesize-1 down to 0.
func (b *Builder) resumeForward(host *script.Host, g *globe.Globe, l *lens.Lens, rubix RubixConfig, start time.Time, budget time.Duration) (bool, error) {
	fn, ok := l.ForwardFn()
	if !ok {
		b.phase = PhaseDone
		return false, fmt.Errorf("forward build requires lens_forward")
	}
	size := g.PlateSize

	for ; b.fwdPlate < len(g.Plates); b.fwdPlate++ {
		if b.fwdRow < 0 {
			b.fwdRow = size - 1
			b.fwdInit = false
		}
		for ; b.fwdRow >= 0; b.fwdRow-- {
			if time.Since(start) > budget {
				return true, nil
			}
			py := b.fwdRow
			if err := b.ensureScanlines(host, fn, g, l, b.fwdPlate, py, size); err != nil {
				b.phase = PhaseDone
				return false, err
			}
			for px := 0; px < size; px++ {
				u := (float64(px) + 0.5) / float64(size)
				v := (float64(py) + 0.5) / float64(size)
				ray := g.PlateUVToRay(b.fwdPlate, u, v)
				if g.RayToPlateIndex(ray) != b.fwdPlate {
					continue // overlap culling: another plate owns this ray.
				}
				quad := [4]screenPoint{
					b.fwdTop[px], b.fwdTop[px+1], b.fwdBot[px+1], b.fwdBot[px],
				}
				texelIdx := int32(g.TexelIndex(b.fwdPlate, px, py))
				rasterizeQuad(quad, l, texelIdx, b.fwdPlate, size, px, py, rubix)
				g.Plates[b.fwdPlate].Display = true
			}
		}
		b.fwdRow = -1
	}
	b.phase = PhaseDone
	return false, nil
}

// ensureScanlines keeps b.fwdTop/b.fwdBot holding the screen-space
// projections of the texel grid boundaries above and below row py,
// reusing the previous row's top boundary as this row's bottom boundary
// (spec §4.6 step 1).
func (b *Builder) ensureScanlines(host *script.Host, fn *lua.LFunction, g *globe.Globe, l *lens.Lens, plate, py, size int) error {
	if !b.fwdInit {
		bot, err := computeBoundaryRow(host, fn, g, l, plate, py+1, size)
		if err != nil {
			return err
		}
		b.fwdBot = bot
		b.fwdInit = true
	} else {
		b.fwdBot = b.fwdTop
	}
	top, err := computeBoundaryRow(host, fn, g, l, plate, py, size)
	if err != nil {
		return err
	}
	b.fwdTop = top
	return nil
}

// computeBoundaryRow projects the size+1 texel-grid boundary points along
// plate row boundary rowIdx (0..size) into screen space.
func computeBoundaryRow(host *script.Host, fn *lua.LFunction, g *globe.Globe, l *lens.Lens, plate, rowIdx, size int) ([]screenPoint, error) {
	v := float64(rowIdx) / float64(size)
	row := make([]screenPoint, size+1)
	for px := 0; px <= size; px++ {
		u := float64(px) / float64(size)
		ray := g.PlateUVToRay(plate, u, v)
		x, y, result, err := host.CallForward(fn, ray)
		switch result {
		case script.CallErr:
			return nil, fmt.Errorf("lens_forward build aborted: %w", err)
		case script.CallSkip:
			row[px] = screenPoint{X: math.NaN(), Y: math.NaN()}
			continue
		}
		lx, ly := lensToPixel(x, y, l)
		row[px] = screenPoint{X: lx, Y: ly}
	}
	return row, nil
}

// rasterizeQuad fills the screen-space quadrilateral (clockwise: top-left,
// top-right, bottom-right, bottom-left) with texelIdx, per spec §4.6 step
// 3 and the quad rasterization rules that follow it.
func rasterizeQuad(quad [4]screenPoint, l *lens.Lens, texelIdx int32, plate, platesize, px, py int, rubix RubixConfig) {
	for _, c := range quad {
		if math.IsNaN(c.X) || math.IsNaN(c.Y) {
			return // a corner probe returned skip; leave these pixels untouched.
		}
	}
	minX, maxX, minY, maxY := quad[0].X, quad[0].X, quad[0].Y, quad[0].Y
	for _, c := range quad[1:] {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	if maxX-minX > maxQuadSpan || maxY-minY > maxQuadSpan {
		return
	}

	yStart, yEnd := int(math.Floor(minY)), int(math.Ceil(maxY))
	for y := yStart; y <= yEnd; y++ {
		if y < 0 || y >= l.HeightPx {
			continue
		}
		x0, x1, ok := scanlineIntersect(quad, float64(y)+0.5)
		if !ok {
			continue
		}
		lo, hi := int(math.Round(x0)), int(math.Round(x1))
		if lo > hi {
			lo, hi = hi, lo
		}
		for x := lo; x <= hi; x++ {
			if x < 0 || x >= l.WidthPx {
				continue
			}
			idx := y*l.WidthPx + x
			l.Pixels[idx] = texelIdx
			applyTint(l, idx, plate, platesize, px, py, rubix)
		}
	}
}

// scanlineIntersect finds where the quad's boundary crosses the horizontal
// line y=yline, returning the leftmost and rightmost crossings. Degenerate
// quads (a point, or a horizontal/vertical line) produce zero or one
// crossing; a single crossing is returned as both x0 and x1, filling a
// one-pixel-wide span.
func scanlineIntersect(quad [4]screenPoint, yline float64) (x0, x1 float64, ok bool) {
	edges := [4][2]screenPoint{
		{quad[0], quad[1]}, {quad[1], quad[2]}, {quad[2], quad[3]}, {quad[3], quad[0]},
	}
	var xs []float64
	for _, e := range edges {
		a, b := e[0], e[1]
		if a.Y == b.Y {
			continue
		}
		lo, hi := a.Y, b.Y
		if lo > hi {
			lo, hi = hi, lo
		}
		if yline < lo || yline > hi {
			continue
		}
		t := (yline - a.Y) / (b.Y - a.Y)
		xs = append(xs, a.X+t*(b.X-a.X))
	}
	switch len(xs) {
	case 0:
		return 0, 0, false
	case 1:
		return xs[0], xs[0], true
	default:
		sort.Float64s(xs)
		return xs[0], xs[len(xs)-1], true
	}
}
