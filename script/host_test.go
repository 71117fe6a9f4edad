// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package script

import (
	"math"
	"testing"

	"github.com/gazed/fisheye/math/lin"
)

func TestLatLonRayRoundTrip(t *testing.T) {
	lat, lon := 0.4, -1.1
	ray := LatLonToRay(lat, lon)
	gotLat, gotLon := RayToLatLon(ray)
	if !lin.Aeq(lat, gotLat) || !lin.Aeq(lon, gotLon) {
		t.Errorf("round trip got lat=%f lon=%f want lat=%f lon=%f", gotLat, gotLon, lat, lon)
	}
}

func TestHostMathGlobals(t *testing.T) {
	h := NewHost()
	defer h.Close()

	if err := h.L.DoString(`result = sin(pi/2) + cos(0) + sqrt(4) + pow(2, 3)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	got, ok := h.GetNumber("result")
	if !ok {
		t.Fatal("result global missing or not a number")
	}
	want := 1 + 1 + 2 + 8.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %f want %f", got, want)
	}
}

func TestHostHelperGlobals(t *testing.T) {
	h := NewHost()
	defer h.Close()

	if err := h.L.DoString(`x, y, z = latlon_to_ray(0, 0)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	x, _ := h.GetNumber("x")
	y, _ := h.GetNumber("y")
	z, _ := h.GetNumber("z")
	if !lin.Aeq(x, 0) || !lin.Aeq(y, 0) || !lin.Aeq(z, 1) {
		t.Errorf("latlon_to_ray(0,0) = (%f,%f,%f), want (0,0,1)", x, y, z)
	}
}

func TestCallInverseOK(t *testing.T) {
	h := NewHost()
	defer h.Close()
	if err := h.L.DoString(`function inv(x, y) return x, y, 2 end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	fn, ok := h.GetFunction("inv")
	if !ok {
		t.Fatal("inv function not found")
	}
	ray, result, err := h.CallInverse(fn, 1, 1)
	if err != nil || result != CallOK {
		t.Fatalf("CallInverse error=%v result=%v", err, result)
	}
	if !lin.Aeq(ray.Len(), 1) {
		t.Errorf("expected unit-length ray, got len=%f", ray.Len())
	}
}

func TestCallInverseSkip(t *testing.T) {
	h := NewHost()
	defer h.Close()
	if err := h.L.DoString(`function inv(x, y) return nil end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	fn, _ := h.GetFunction("inv")
	_, result, err := h.CallInverse(fn, 0, 0)
	if err != nil || result != CallSkip {
		t.Fatalf("expected CallSkip, got result=%v err=%v", result, err)
	}
}

func TestCallInverseWrongArity(t *testing.T) {
	h := NewHost()
	defer h.Close()
	if err := h.L.DoString(`function inv(x, y) return x, y end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	fn, _ := h.GetFunction("inv")
	_, result, err := h.CallInverse(fn, 0, 0)
	if result != CallErr || err == nil {
		t.Fatalf("expected CallErr with a non-nil error, got result=%v err=%v", result, err)
	}
}

func TestCallForwardOK(t *testing.T) {
	h := NewHost()
	defer h.Close()
	if err := h.L.DoString(`function fwd(x, y, z) return x*2, y*2 end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	fn, _ := h.GetFunction("fwd")
	x, y, result, err := h.CallForward(fn, lin.V3{X: 1, Y: 2, Z: 3})
	if err != nil || result != CallOK {
		t.Fatalf("CallForward error=%v result=%v", err, result)
	}
	if x != 2 || y != 4 {
		t.Errorf("got (%f,%f) want (2,4)", x, y)
	}
}

func TestCallGlobePlate(t *testing.T) {
	h := NewHost()
	defer h.Close()
	if err := h.L.DoString(`function gp(x, y, z) return 3 end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	fn, _ := h.GetFunction("gp")
	if got := h.CallGlobePlate(fn, lin.V3{X: 0, Y: 0, Z: 1}); got != 3 {
		t.Errorf("got %d want 3", got)
	}

	if err := h.L.DoString(`function gpbad(x, y, z) return 1.5 end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	fnBad, _ := h.GetFunction("gpbad")
	if got := h.CallGlobePlate(fnBad, lin.V3{X: 0, Y: 0, Z: 1}); got != -1 {
		t.Errorf("non-integer globe_plate result should return -1, got %d", got)
	}
}

func TestPlateResolver(t *testing.T) {
	h := NewHost()
	defer h.Close()
	h.SetPlateResolver(func(plateIndex int, u, v float64) (lin.V3, bool) {
		if plateIndex != 2 {
			return lin.V3{}, false
		}
		return lin.V3{X: u, Y: v, Z: 1}, true
	})
	if err := h.L.DoString(`x, y, z = plate_to_ray(2, 0.25, 0.75)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	x, _ := h.GetNumber("x")
	y, _ := h.GetNumber("y")
	if x != 0.25 || y != 0.75 {
		t.Errorf("got (%f,%f) want (0.25,0.75)", x, y)
	}

	if err := h.L.DoString(`r = plate_to_ray(9, 0, 0)`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if v := h.Global("r"); v.Type().String() != "nil" {
		t.Errorf("unresolved plate should return nil, got %v", v)
	}
}
