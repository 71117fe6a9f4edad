// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package globe models the arrangement of flat perspective plates that
// cover a sphere around the viewer (SPEC_FULL.md §4.2, §4.5). A globe is
// loaded from a script that supplies each plate's forward/up basis vectors
// and field of view; this package re-derives a right-handed, mutually
// perpendicular frame from them (without renormalizing the vectors) and
// answers ray-to-plate and plate-to-uv queries.
package globe

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/gazed/fisheye/math/lin"
	"github.com/gazed/fisheye/script"
)

// MaxPlates is the largest globe this package will load, matching the six
// faces of a cube globe (spec §3 "Globe").
const MaxPlates = 6

// Plate is one flat perspective shot contributing to the globe.
type Plate struct {
	Forward lin.V3 // unit forward vector in globe-local space.
	Up      lin.V3 // re-orthogonalized up vector, forward x right.
	Right   lin.V3 // up x forward.
	FOV     float64
	Dist    float64 // camera-to-plate distance, 0.5/tan(FOV/2).
	Palette [256]byte // tint remap, filled in by package palette.
	Display bool      // set by the frame orchestrator when a pixel maps here.
}

// Globe is the full set of loaded plates plus the per-plate pixel storage
// the frame orchestrator fills in with host renderer output.
type Globe struct {
	Name   string
	Valid  bool
	Plates []Plate

	// Pixels is platesize*platesize bytes per plate, indexed as
	// Pixels[p*PlateSize*PlateSize + y*PlateSize + x] (spec §3).
	Pixels    []byte
	PlateSize int

	host       *script.Host
	globePlate *lua.LFunction
}

// Load runs the Globe script at path and builds a new Globe from its
// plates table. On any load or parse error the returned error describes
// the failure and no Globe is returned; the caller is expected to keep
// whatever globe was previously valid (spec §4.2, §7).
func Load(host *script.Host, name, path string) (*Globe, error) {
	host.ClearGlobal("plates")
	host.ClearGlobal("globe_plate")
	host.SetNumberGlobal("numplates", 0)

	if err := host.LoadFile(path); err != nil {
		return nil, fmt.Errorf("globe %q: %w", name, err)
	}

	g := &Globe{Name: name, host: host}
	if fn, ok := host.GetFunction("globe_plate"); ok {
		g.globePlate = fn
	}

	table, ok := host.GetTable("plates")
	if !ok {
		return nil, fmt.Errorf("globe %q: plates table is missing or not a sequence", name)
	}
	plates, err := parsePlates(table)
	if err != nil {
		return nil, fmt.Errorf("globe %q: %w", name, err)
	}
	g.Plates = plates
	g.Valid = true
	host.SetNumberGlobal("numplates", float64(len(plates)))
	return g, nil
}

// parsePlates reads the {forward, up, fov_degrees} sequence described in
// spec §4.2/§6: each plate is itself a 3-entry sequence, not a keyed table.
// Scripts must supply unit forward/up vectors: they are used as given and
// not renormalized.
func parsePlates(t *lua.LTable) ([]Plate, error) {
	n := t.Len()
	if n < 1 || n > MaxPlates {
		return nil, fmt.Errorf("plates must have 1 to %d entries, got %d", MaxPlates, n)
	}
	plates := make([]Plate, n)
	for i := 1; i <= n; i++ {
		entry, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("plate %d: expected a table", i)
		}
		forward, err := readVector(entry, 1)
		if err != nil {
			return nil, fmt.Errorf("plate %d forward: %w", i, err)
		}
		up, err := readVector(entry, 2)
		if err != nil {
			return nil, fmt.Errorf("plate %d up: %w", i, err)
		}
		fovDeg, ok := entry.RawGetInt(3).(lua.LNumber)
		if !ok || float64(fovDeg) <= 0 {
			return nil, fmt.Errorf("plate %d: fov_degrees must be a positive number", i)
		}
		fov := lin.Rad(float64(fovDeg))
		if fov <= 0 || fov >= lin.PI {
			return nil, fmt.Errorf("plate %d: fov %.4f out of range (0, pi)", i, fov)
		}

		// right = up x forward; up is re-derived as forward x right so the
		// triple stays right-handed even if the script's up wasn't quite
		// perpendicular to forward. No renormalization is applied beyond
		// that (spec §4.2 step 5, Open Question #1).
		right := lin.NewV3().Cross(&up, &forward)
		reUp := lin.NewV3().Cross(&forward, right)

		plates[i-1] = Plate{
			Forward: forward,
			Up:      *reUp,
			Right:   *right,
			FOV:     fov,
			Dist:    0.5 / math.Tan(fov/2),
		}
	}
	return plates, nil
}

func readVector(t *lua.LTable, idx int) (lin.V3, error) {
	vt, ok := t.RawGetInt(idx).(*lua.LTable)
	if !ok {
		return lin.V3{}, fmt.Errorf("expected a 3-number sequence")
	}
	x, ok1 := vt.RawGetInt(1).(lua.LNumber)
	y, ok2 := vt.RawGetInt(2).(lua.LNumber)
	z, ok3 := vt.RawGetInt(3).(lua.LNumber)
	if !ok1 || !ok2 || !ok3 {
		return lin.V3{}, fmt.Errorf("expected 3 numbers, got a non-number element")
	}
	return lin.V3{X: float64(x), Y: float64(y), Z: float64(z)}, nil
}

// RayToPlateIndex implements the Voronoi plate selection of spec §4.5: the
// scripted globe_plate escape hatch if one was defined, else argmax of the
// dot product against each plate's forward vector, ties broken by the
// lowest index.
func (g *Globe) RayToPlateIndex(ray lin.V3) int {
	if g.globePlate != nil {
		return g.host.CallGlobePlate(g.globePlate, ray)
	}
	best, bestDot := 0, math.Inf(-1)
	for i := range g.Plates {
		if d := ray.Dot(&g.Plates[i].Forward); d > bestDot {
			bestDot, best = d, i
		}
	}
	return best
}

// RayToPlateUV projects ray onto plateIndex's camera frame, per spec §4.5.
// v is already inverted (texture-space v increases downward).
func (g *Globe) RayToPlateUV(plateIndex int, ray lin.V3) (u, v float64, inside bool) {
	if plateIndex < 0 || plateIndex >= len(g.Plates) {
		return 0, 0, false
	}
	p := &g.Plates[plateIndex]
	x := p.Right.Dot(&ray)
	y := p.Up.Dot(&ray)
	z := p.Forward.Dot(&ray)
	u = x*p.Dist/z + 0.5
	v = -y*p.Dist/z + 0.5
	inside = u >= 0 && u <= 1 && v >= 0 && v <= 1
	return u, v, inside
}

// PlateUVToRay is the inverse of RayToPlateUV (spec §4.5): it forms the
// non-normalized ray through the plate's image plane at (u, v) and
// normalizes it.
func (g *Globe) PlateUVToRay(plateIndex int, u, v float64) lin.V3 {
	p := &g.Plates[plateIndex]
	ray := lin.V3{
		X: p.Dist*p.Forward.X + (u-0.5)*p.Right.X + (0.5-v)*p.Up.X,
		Y: p.Dist*p.Forward.Y + (u-0.5)*p.Right.Y + (0.5-v)*p.Up.Y,
		Z: p.Dist*p.Forward.Z + (u-0.5)*p.Right.Z + (0.5-v)*p.Up.Z,
	}
	return *ray.Unit()
}

// TexelIndex returns the offset into Pixels for plate p, texel (x, y).
func (g *Globe) TexelIndex(p, x, y int) int {
	return p*g.PlateSize*g.PlateSize + y*g.PlateSize + x
}

// Resize reallocates Pixels for the given per-plate edge length, per spec
// §4.7 step 2 ("size changed" branch).
func (g *Globe) Resize(plateSize int) {
	g.PlateSize = plateSize
	g.Pixels = make([]byte, len(g.Plates)*plateSize*plateSize)
}
