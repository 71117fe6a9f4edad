// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package script embeds a Lua interpreter and exposes the small surface the
// fisheye Lens and Globe models need: loading a named script, looking up the
// globals and functions it defines, and calling the scripted projection
// functions with the return-value protocol from SPEC_FULL.md §4.1.
//
// Package script is provided as part of the fisheye addon.
package script

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/gazed/fisheye/math/lin"
)

// PlateResolver answers plate_to_ray(plate_index, u, v) for the currently
// loaded globe. It is set by whichever package owns the globe, keeping
// script free of an import on globe.
type PlateResolver func(plateIndex int, u, v float64) (ray lin.V3, ok bool)

// Host wraps one Lua state. A Host is reused across both the Lens and the
// Globe script load (spec never runs them on separate interpreters) so that
// plate_to_ray can see the globe that was most recently loaded.
type Host struct {
	L       *lua.LState
	resolve PlateResolver
}

// NewHost creates a Lua state with the trig/log shorthands and the three ray
// helpers pre-bound, ready to load a Lens or Globe script.
func NewHost() *Host {
	h := &Host{L: lua.NewState()}
	h.bindMath()
	h.bindHelpers()
	return h
}

// Close releases the underlying Lua state.
func (h *Host) Close() {
	if h.L != nil {
		h.L.Close()
		h.L = nil
	}
}

// SetPlateResolver installs the callback used by the plate_to_ray helper.
func (h *Host) SetPlateResolver(r PlateResolver) { h.resolve = r }

// LoadFile loads and executes path as the top-level Lua chunk. A syntax or
// runtime error during execution is returned verbatim for the caller to log
// (spec §4.2/§4.3: load failures mark the globe/lens invalid, they don't
// panic).
func (h *Host) LoadFile(path string) error {
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Global returns the named global's raw Lua value, LNil if absent.
func (h *Host) Global(name string) lua.LValue { return h.L.GetGlobal(name) }

// SetGlobal assigns a raw Lua value to a global, used to expose engine state
// (numplates, etc.) to a script before loading it.
func (h *Host) SetGlobal(name string, v lua.LValue) { h.L.SetGlobal(name, v) }

// SetNumberGlobal is a convenience for SetGlobal with a number value.
func (h *Host) SetNumberGlobal(name string, v float64) { h.L.SetGlobal(name, lua.LNumber(v)) }

// ClearGlobal removes a global by setting it to nil, used before reloading a
// script so stale state from a previous load can't leak through.
func (h *Host) ClearGlobal(name string) { h.L.SetGlobal(name, lua.LNil) }

// GetFunction looks up a global Lua function by name.
func (h *Host) GetFunction(name string) (*lua.LFunction, bool) {
	fn, ok := h.Global(name).(*lua.LFunction)
	return fn, ok
}

// GetNumber looks up a global number by name.
func (h *Host) GetNumber(name string) (float64, bool) {
	n, ok := h.Global(name).(lua.LNumber)
	if !ok {
		return 0, false
	}
	return float64(n), true
}

// GetString looks up a global string by name.
func (h *Host) GetString(name string) (string, bool) {
	s, ok := h.Global(name).(lua.LString)
	if !ok {
		return "", false
	}
	return string(s), true
}

// GetTable looks up a global table by name.
func (h *Host) GetTable(name string) (*lua.LTable, bool) {
	t, ok := h.Global(name).(*lua.LTable)
	return t, ok
}

// bindMath pre-binds the trig/log shorthands every Lens/Globe script can
// call without a require or module prefix (spec §4.1).
func (h *Host) bindMath() {
	unary := func(name string, fn func(float64) float64) {
		h.L.SetGlobal(name, h.L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LNumber(fn(float64(L.CheckNumber(1)))))
			return 1
		}))
	}
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)
	unary("log", math.Log)
	unary("log10", math.Log10)
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("exp", math.Exp)

	h.L.SetGlobal("atan2", h.L.NewFunction(func(L *lua.LState) int {
		y, x := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
		L.Push(lua.LNumber(math.Atan2(y, x)))
		return 1
	}))
	h.L.SetGlobal("pow", h.L.NewFunction(func(L *lua.LState) int {
		x, y := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
		L.Push(lua.LNumber(math.Pow(x, y)))
		return 1
	}))
	h.L.SetGlobal("pi", lua.LNumber(math.Pi))
	h.L.SetGlobal("tau", lua.LNumber(math.Pi*2))
}

// LatLonToRay is latlon_to_ray(lat, lon) per spec §4.1.
func LatLonToRay(lat, lon float64) lin.V3 {
	return lin.V3{
		X: math.Sin(lon) * math.Cos(lat),
		Y: math.Sin(lat),
		Z: math.Cos(lon) * math.Cos(lat),
	}
}

// RayToLatLon is ray_to_latlon(x, y, z) per spec §4.1.
func RayToLatLon(ray lin.V3) (lat, lon float64) {
	lon = math.Atan2(ray.X, ray.Z)
	lat = math.Atan2(ray.Y, math.Sqrt(ray.X*ray.X+ray.Z*ray.Z))
	return lat, lon
}

// bindHelpers exposes latlon_to_ray, ray_to_latlon and plate_to_ray to Lua,
// backed by the Go implementations above (and the installed PlateResolver).
func (h *Host) bindHelpers() {
	h.L.SetGlobal("latlon_to_ray", h.L.NewFunction(func(L *lua.LState) int {
		lat, lon := float64(L.CheckNumber(1)), float64(L.CheckNumber(2))
		ray := LatLonToRay(lat, lon)
		L.Push(lua.LNumber(ray.X))
		L.Push(lua.LNumber(ray.Y))
		L.Push(lua.LNumber(ray.Z))
		return 3
	}))
	h.L.SetGlobal("ray_to_latlon", h.L.NewFunction(func(L *lua.LState) int {
		x, y, z := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
		lat, lon := RayToLatLon(lin.V3{X: x, Y: y, Z: z})
		L.Push(lua.LNumber(lat))
		L.Push(lua.LNumber(lon))
		return 2
	}))
	h.L.SetGlobal("plate_to_ray", h.L.NewFunction(func(L *lua.LState) int {
		idx := int(L.CheckNumber(1))
		u, v := float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
		if h.resolve == nil {
			L.Push(lua.LNil)
			return 1
		}
		ray, ok := h.resolve(idx, u, v)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(ray.X))
		L.Push(lua.LNumber(ray.Y))
		L.Push(lua.LNumber(ray.Z))
		return 3
	}))
}

// call invokes fn with args and returns exactly the values it returned,
// using MultRet so the caller can tell a 1-value nil (skip) apart from a
// wrong-arity return (error) instead of gopher-lua silently padding a fixed
// NRet with LNil.
func (h *Host) call(fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	top := h.L.GetTop()
	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: lua.MultRet, Protect: true}, args...); err != nil {
		return nil, err
	}
	nret := h.L.GetTop() - top
	vals := make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		vals[i] = h.L.Get(top + 1 + i)
	}
	h.L.SetTop(top)
	return vals, nil
}

// CallResult classifies what a scripted projection call produced, per the
// return-value protocol in spec §4.1.
type CallResult int

const (
	CallOK   CallResult = iota // success; output values are valid.
	CallSkip                   // a lone nil: leave this pixel unset.
	CallErr                    // wrong arity or non-number: abort the build.
)

// CallInverse invokes a lens_inverse(x, y) handle. On success the returned
// ray is normalized to unit length, per spec §4.1 "Inverse results are
// normalized to unit length before use".
func (h *Host) CallInverse(fn *lua.LFunction, x, y float64) (ray lin.V3, result CallResult, err error) {
	vals, err := h.call(fn, lua.LNumber(x), lua.LNumber(y))
	if err != nil {
		return lin.V3{}, CallErr, err
	}
	if isSkip(vals) {
		return lin.V3{}, CallSkip, nil
	}
	nums, err := numbers(vals, 3)
	if err != nil {
		return lin.V3{}, CallErr, fmt.Errorf("lens_inverse: %w", err)
	}
	ray = lin.V3{X: nums[0], Y: nums[1], Z: nums[2]}
	return *ray.Unit(), CallOK, nil
}

// CallForward invokes a lens_forward(x, y, z) handle with a world ray.
func (h *Host) CallForward(fn *lua.LFunction, ray lin.V3) (x, y float64, result CallResult, err error) {
	vals, err := h.call(fn, lua.LNumber(ray.X), lua.LNumber(ray.Y), lua.LNumber(ray.Z))
	if err != nil {
		return 0, 0, CallErr, err
	}
	if isSkip(vals) {
		return 0, 0, CallSkip, nil
	}
	nums, err := numbers(vals, 2)
	if err != nil {
		return 0, 0, CallErr, fmt.Errorf("lens_forward: %w", err)
	}
	return nums[0], nums[1], CallOK, nil
}

// CallGlobePlate invokes a globe_plate(x, y, z) handle, returning -1 if it
// returns anything other than a single integer-valued number (spec §4.5).
func (h *Host) CallGlobePlate(fn *lua.LFunction, ray lin.V3) int {
	vals, err := h.call(fn, lua.LNumber(ray.X), lua.LNumber(ray.Y), lua.LNumber(ray.Z))
	if err != nil || len(vals) != 1 {
		return -1
	}
	n, ok := vals[0].(lua.LNumber)
	if !ok {
		return -1
	}
	f := float64(n)
	if f != math.Trunc(f) {
		return -1
	}
	return int(f)
}

func isSkip(vals []lua.LValue) bool {
	return len(vals) == 1 && vals[0] == lua.LNil
}

func numbers(vals []lua.LValue, want int) ([]float64, error) {
	if len(vals) != want {
		return nil, fmt.Errorf("expected %d numbers or nil, got %d values", want, len(vals))
	}
	out := make([]float64, want)
	for i, v := range vals {
		n, ok := v.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("non-number return value at position %d", i+1)
		}
		out[i] = float64(n)
	}
	return out, nil
}
