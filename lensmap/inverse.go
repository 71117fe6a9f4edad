// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package lensmap

import (
	"fmt"
	"time"

	"github.com/gazed/fisheye/globe"
	"github.com/gazed/fisheye/lens"
	"github.com/gazed/fisheye/script"
)

// resumeInverse is the inverse build of spec §4.6: one lens_inverse call
// per output pixel, walking rows from the bottom of the viewport to the
// top so the cursor (b.invRow) can resume exactly where it yielded.
func (b *Builder) resumeInverse(host *script.Host, g *globe.Globe, l *lens.Lens, rubix RubixConfig, start time.Time, budget time.Duration) (bool, error) {
	fn, ok := l.InverseFn()
	if !ok {
		b.phase = PhaseDone
		return false, fmt.Errorf("inverse build requires lens_inverse")
	}

	for ; b.invRow >= 0; b.invRow-- {
		if time.Since(start) > budget {
			return true, nil
		}
		ly := b.invRow
		for lx := 0; lx < l.WidthPx; lx++ {
			x, y := pixelToLens(lx, ly, l)
			ray, result, err := host.CallInverse(fn, x, y)
			switch result {
			case script.CallErr:
				b.phase = PhaseDone
				return false, fmt.Errorf("lens_inverse build aborted: %w", err)
			case script.CallSkip:
				continue
			}

			plate := g.RayToPlateIndex(ray)
			u, v, inside := g.RayToPlateUV(plate, ray)
			if !inside {
				continue
			}
			tx := clampTexel(int(u*float64(g.PlateSize)), g.PlateSize)
			ty := clampTexel(int(v*float64(g.PlateSize)), g.PlateSize)

			idx := ly*l.WidthPx + lx
			l.Pixels[idx] = int32(g.TexelIndex(plate, tx, ty))
			g.Plates[plate].Display = true
			applyTint(l, idx, plate, g.PlateSize, tx, ty, rubix)
		}
	}
	b.phase = PhaseDone
	return false, nil
}
