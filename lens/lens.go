// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package lens models the scripted 2D projection between screen pixels and
// direction rays (SPEC_FULL.md §4.3, §4.4): which of the forward/inverse
// scripted maps to prefer, and the lens scale (lens units per output
// pixel) that the chosen FOV request or fit mode implies.
package lens

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/gazed/fisheye/math/lin"
	"github.com/gazed/fisheye/script"
)

// MapType selects which scripted projection direction the lens-map builder
// should use (spec §4.3 step 4).
type MapType int

const (
	MapNone MapType = iota
	MapInverse
	MapForward
)

func (m MapType) String() string {
	switch m {
	case MapInverse:
		return "lens_inverse"
	case MapForward:
		return "lens_forward"
	default:
		return "none"
	}
}

// Lens holds the globals parsed from a lens script plus the derived scale
// and output buffers the builder fills in.
type Lens struct {
	Name    string
	Valid   bool
	Changed bool
	MapType MapType

	// Width/Height are the lens domain extents in abstract lens units; 0
	// means "not provided" (spec §3).
	Width, Height float64

	// Scale is lens units per output pixel; only usable when > 0.
	Scale float64

	WidthPx, HeightPx int

	// Pixels holds, per output pixel, an index into globe.Pixels, or -1 for
	// "no source texel yet" (spec §9's pointer-into-buffer design note).
	Pixels []int32
	// PixelTints holds a plate index per output pixel, or 255 for "no
	// tint" (spec §4.6 rubix grid tinting).
	PixelTints []byte

	// MaxHFOV/MaxVFOV are in radians, 0 if absent.
	MaxHFOV, MaxVFOV float64

	// Onload is the console command string to run after a successful load,
	// or "" if the script did not define one (spec §4.3 step 6).
	Onload string

	inverseFn *lua.LFunction
	forwardFn *lua.LFunction
}

// Load runs the Lens script at path, parses its globals, and selects the
// preferred MapType. numPlates is exposed to the script as the numplates
// global before the script body runs (spec §4.3 step 2).
func Load(host *script.Host, name, path string, numPlates int) (*Lens, error) {
	for _, g := range []string{"lens_inverse", "lens_forward", "map", "max_hfov", "max_vfov", "lens_width", "lens_height", "onload"} {
		host.ClearGlobal(g)
	}
	host.SetNumberGlobal("numplates", float64(numPlates))

	if err := host.LoadFile(path); err != nil {
		return nil, fmt.Errorf("lens %q: %w", name, err)
	}

	l := &Lens{Name: name}
	l.inverseFn, _ = host.GetFunction("lens_inverse")
	l.forwardFn, _ = host.GetFunction("lens_forward")
	l.MapType = selectMapType(host, l.inverseFn, l.forwardFn)

	if deg, ok := host.GetNumber("max_hfov"); ok {
		l.MaxHFOV = lin.Rad(deg)
	}
	if deg, ok := host.GetNumber("max_vfov"); ok {
		l.MaxVFOV = lin.Rad(deg)
	}
	l.Width, _ = host.GetNumber("lens_width")
	l.Height, _ = host.GetNumber("lens_height")
	l.Onload, _ = host.GetString("onload")

	l.Valid = true
	return l, nil
}

func selectMapType(host *script.Host, inverseFn, forwardFn *lua.LFunction) MapType {
	if pref, ok := host.GetString("map"); ok {
		switch {
		case pref == "lens_inverse" && inverseFn != nil:
			return MapInverse
		case pref == "lens_forward" && forwardFn != nil:
			return MapForward
		}
	}
	switch {
	case inverseFn != nil:
		return MapInverse
	case forwardFn != nil:
		return MapForward
	default:
		return MapNone
	}
}

// InverseFn and ForwardFn expose the resolved script handles to the
// lens-map builder, pre-resolved at load time per spec §9's "amortize
// per-pixel overhead" design note.
func (l *Lens) InverseFn() (*lua.LFunction, bool) { return l.inverseFn, l.inverseFn != nil }
func (l *Lens) ForwardFn() (*lua.LFunction, bool) { return l.forwardFn, l.forwardFn != nil }

// FOVMode names the one active member of the FOV state described in
// spec §3: exactly one of these is in effect, chosen by the last hfov/
// vfov/hfit/vfit/fit command.
type FOVMode int

const (
	FOVNone FOVMode = iota
	FOVExplicitH
	FOVExplicitV
	FOVHFit
	FOVVFit
	FOVFit
)

// FOVRequest is the active FOV state the lens scale is computed from.
// HFOV/VFOV are radians, set only when Mode is the matching explicit mode.
type FOVRequest struct {
	Mode FOVMode
	HFOV float64
	VFOV float64
}

// DetermineScale computes l.Scale per spec §4.4, given the viewport in
// pixels and the currently active FOV request. On failure it returns an
// error and leaves l.Scale at 0 or negative, signalling "unusable" to the
// builder (spec §7 "FOV infeasible").
func (l *Lens) DetermineScale(host *script.Host, req FOVRequest, widthPx, heightPx int) error {
	l.WidthPx, l.HeightPx = widthPx, heightPx
	l.Scale = 0
	switch req.Mode {
	case FOVExplicitH:
		return l.determineExplicit(host, req.HFOV, true, widthPx)
	case FOVExplicitV:
		return l.determineExplicit(host, req.VFOV, false, heightPx)
	case FOVHFit:
		if l.Width <= 0 {
			return fmt.Errorf("hfit requires a positive lens_width")
		}
		l.Scale = l.Width / float64(widthPx)
		return nil
	case FOVVFit:
		if l.Height <= 0 {
			return fmt.Errorf("vfit requires a positive lens_height")
		}
		l.Scale = l.Height / float64(heightPx)
		return nil
	case FOVFit:
		return l.determineFit(widthPx, heightPx)
	default:
		return fmt.Errorf("no FOV mode selected")
	}
}

func (l *Lens) determineExplicit(host *script.Host, fov float64, horizontal bool, framesizePx int) error {
	if l.MaxHFOV <= 0 || l.MaxVFOV <= 0 {
		return fmt.Errorf("lens does not declare both max_hfov and max_vfov")
	}
	maxFov := l.MaxHFOV
	if !horizontal {
		maxFov = l.MaxVFOV
	}
	if fov > maxFov {
		return fmt.Errorf("requested fov %.4f exceeds lens max %.4f", fov, maxFov)
	}
	fn, ok := l.ForwardFn()
	if !ok {
		return fmt.Errorf("explicit fov requires lens_forward")
	}
	var ray lin.V3
	if horizontal {
		ray = script.LatLonToRay(0, fov/2)
	} else {
		ray = script.LatLonToRay(fov/2, 0)
	}
	x, y, result, err := host.CallForward(fn, ray)
	if err != nil || result != script.CallOK {
		return fmt.Errorf("lens_forward probe failed: %v (result=%v)", err, result)
	}
	axis := x
	if !horizontal {
		axis = y
	}
	l.Scale = math.Abs(axis) / (float64(framesizePx) / 2)
	if l.Scale <= 0 {
		return fmt.Errorf("lens_forward probe produced a zero-scale axis coordinate")
	}
	return nil
}

func (l *Lens) determineFit(widthPx, heightPx int) error {
	switch {
	case l.Width > 0 && l.Height > 0:
		hRatio := l.Width / float64(widthPx)
		vRatio := l.Height / float64(heightPx)
		if hRatio > vRatio {
			l.Scale = hRatio
		} else {
			l.Scale = vRatio
		}
		return nil
	case l.Width > 0:
		l.Scale = l.Width / float64(widthPx)
		return nil
	case l.Height > 0:
		l.Scale = l.Height / float64(heightPx)
		return nil
	default:
		return fmt.Errorf("fit requires lens_width or lens_height")
	}
}

// Resize (re)allocates Pixels/PixelTints for a new viewport and resets them
// per spec §4.7 step 2.
func (l *Lens) Resize(widthPx, heightPx int) {
	l.WidthPx, l.HeightPx = widthPx, heightPx
	n := widthPx * heightPx
	l.Pixels = make([]int32, n)
	l.PixelTints = make([]byte, n)
	l.ClearBuffers()
}

// ClearBuffers resets Pixels to null (-1) and PixelTints to "no tint" (255)
// without reallocating, used when a fresh build starts over an existing
// viewport.
func (l *Lens) ClearBuffers() {
	for i := range l.Pixels {
		l.Pixels[i] = -1
	}
	for i := range l.PixelTints {
		l.PixelTints[i] = 255
	}
}
