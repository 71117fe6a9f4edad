// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

const testOnloadLensScript = `
max_hfov = 170
max_vfov = 170
lens_width = 200
onload = "rubix"
function lens_inverse(x, y)
	return latlon_to_ray(-y * 0.01, x * 0.01)
end
`

// fakeCommandRunner records every command string handed to it, standing in
// for the host application's console (spec §4.3 step 6).
type fakeCommandRunner struct {
	ran []string
	err error
}

func (f *fakeCommandRunner) RunCommand(cmd string) error {
	f.ran = append(f.ran, cmd)
	return f.err
}

func TestSetGlobeBuildsTintTables(t *testing.T) {
	rend := &fakeRenderer{}
	e := newTestEngine(t, rend)
	if err := e.SetGlobe("cube"); err != nil {
		t.Fatalf("SetGlobe: %v", err)
	}
	var zero [256]byte
	for i, p := range e.Globe.Plates {
		if p.Palette == zero {
			t.Errorf("plate %d: tint table is all-zero, want a built table", i)
		}
	}
	// The default palette is grayscale, where a remap only keeps brightness:
	// red, lime and blue blends share one table, so compare red (plate 0)
	// with yellow (plate 3), whose blends are brighter.
	if e.Globe.Plates[0].Palette == e.Globe.Plates[3].Palette {
		t.Error("expected distinct plates to get distinct tint hues")
	}
}

func TestSetPaletteRebuildsTintTables(t *testing.T) {
	rend := &fakeRenderer{}
	e := newTestEngine(t, rend)
	if err := e.SetGlobe("cube"); err != nil {
		t.Fatalf("SetGlobe: %v", err)
	}
	before := e.Globe.Plates[0].Palette

	custom := make(color.Palette, 256)
	for i := range custom {
		custom[i] = color.RGBA{R: byte(255 - i), G: byte(i), B: 0, A: 0xFF}
	}
	e.SetPalette(custom)

	if e.Palette == nil {
		t.Fatal("SetPalette did not install the palette")
	}
	if e.Globe.Plates[0].Palette == before {
		t.Error("expected the tint table to change after SetPalette")
	}
}

func TestSetLensDispatchesOnload(t *testing.T) {
	rend := &fakeRenderer{}
	e := newTestEngine(t, rend)
	runner := &fakeCommandRunner{}
	e.Commands = runner

	path := filepath.Join(e.cfg.gameDir, "..", "lenses", "onload.lua")
	if err := os.WriteFile(path, []byte(testOnloadLensScript), 0o644); err != nil {
		t.Fatalf("write lens script: %v", err)
	}
	if err := e.SetLens("onload"); err != nil {
		t.Fatalf("SetLens: %v", err)
	}
	if len(runner.ran) != 1 || runner.ran[0] != "rubix" {
		t.Errorf("ran = %v, want one call to %q", runner.ran, "rubix")
	}
}

func TestSetLensWithoutOnloadDoesNotDispatch(t *testing.T) {
	rend := &fakeRenderer{}
	e := newTestEngine(t, rend)
	runner := &fakeCommandRunner{}
	e.Commands = runner

	if err := e.SetLens("ident"); err != nil {
		t.Fatalf("SetLens: %v", err)
	}
	if len(runner.ran) != 0 {
		t.Errorf("ran = %v, want no dispatch when the script has no onload", runner.ran)
	}
}

func TestSetLensOnloadFailureIsLoggedNotReturned(t *testing.T) {
	rend := &fakeRenderer{}
	e := newTestEngine(t, rend)
	e.Commands = &fakeCommandRunner{err: fmt.Errorf("boom")}

	path := filepath.Join(e.cfg.gameDir, "..", "lenses", "onload.lua")
	if err := os.WriteFile(path, []byte(testOnloadLensScript), 0o644); err != nil {
		t.Fatalf("write lens script: %v", err)
	}
	if err := e.SetLens("onload"); err != nil {
		t.Errorf("SetLens returned %v, want nil: a failed onload must not fail the load", err)
	}
}
