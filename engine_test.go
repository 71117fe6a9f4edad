// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gazed/fisheye/render"
)

const testCubeGlobeScript = `
plates = {
	{ {0, 0, 1}, {0, 1, 0}, 90 },
	{ {1, 0, 0}, {0, 1, 0}, 90 },
	{ {0, 0, -1}, {0, 1, 0}, 90 },
	{ {-1, 0, 0}, {0, 1, 0}, 90 },
	{ {0, 1, 0}, {0, 0, -1}, 90 },
	{ {0, -1, 0}, {0, 0, 1}, 90 },
}
`

const testIdentityLensScript = `
max_hfov = 170
max_vfov = 170
lens_width = 200
function lens_inverse(x, y)
	return latlon_to_ray(-y * 0.01, x * 0.01)
end
`

// fakeRenderer implements render.HostRenderer by returning a fixed color
// for every requested plate, letting tests check that rendered pixels flow
// all the way through to the framebuffer without depending on a real GPU.
type fakeRenderer struct {
	fill  byte
	calls int
}

func (f *fakeRenderer) Init() error { return nil }

func (f *fakeRenderer) RenderPlate(req render.PlateRequest) ([]byte, error) {
	f.calls++
	pixels := make([]byte, req.Size*req.Size)
	for i := range pixels {
		pixels[i] = f.fill
	}
	return pixels, nil
}

// newTestEngine lays out gamedir/../globes and gamedir/../lenses under a
// temp directory and returns an Engine pointed at it.
func newTestEngine(t *testing.T, rend render.HostRenderer) *Engine {
	t.Helper()
	root := t.TempDir()
	gameDir := filepath.Join(root, "game")
	for _, sub := range []string{"game", "globes", "lenses"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "globes", "cube.lua"), []byte(testCubeGlobeScript), 0o644); err != nil {
		t.Fatalf("write globe script: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "lenses", "ident.lua"), []byte(testIdentityLensScript), 0o644); err != nil {
		t.Fatalf("write lens script: %v", err)
	}

	e, err := New(rend, GameDir(gameDir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEngineEndToEndFrame(t *testing.T) {
	rend := &fakeRenderer{fill: 42}
	e := newTestEngine(t, rend)

	e.Fisheye(true)
	if err := e.SetGlobe("cube"); err != nil {
		t.Fatalf("SetGlobe: %v", err)
	}
	if err := e.SetLens("ident"); err != nil {
		t.Fatalf("SetLens: %v", err)
	}
	e.Fit()

	for i := 0; i < 50; i++ {
		e.Update(32, 24)
		if !e.builder.Working() {
			break
		}
	}
	if e.builder.Working() {
		t.Fatal("lens-map build never finished")
	}

	wrote := false
	for _, p := range e.Framebuffer {
		if p == 42 {
			wrote = true
			break
		}
	}
	if !wrote {
		t.Error("expected at least one framebuffer pixel set from the rendered plate")
	}
	if rend.calls == 0 {
		t.Error("expected the host renderer to be asked for at least one plate")
	}
}

func TestEngineOffSkipsUpdate(t *testing.T) {
	rend := &fakeRenderer{fill: 7}
	e := newTestEngine(t, rend)
	// Fisheye left off (default).
	e.Update(16, 16)
	if e.Framebuffer != nil {
		t.Error("expected no framebuffer allocation while fisheye is off")
	}
	if rend.calls != 0 {
		t.Error("expected no render calls while fisheye is off")
	}
}

func TestSaveGlobeWritesPCXFiles(t *testing.T) {
	rend := &fakeRenderer{fill: 3}
	e := newTestEngine(t, rend)
	e.Fisheye(true)
	if err := e.SetGlobe("cube"); err != nil {
		t.Fatalf("SetGlobe: %v", err)
	}
	if err := e.SetLens("ident"); err != nil {
		t.Fatalf("SetLens: %v", err)
	}
	e.Fit()

	dir := t.TempDir()
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(old)

	e.SaveGlobe("shot", false)
	for i := 0; i < 50 && e.builder.Working(); i++ {
		e.Update(32, 24)
	}
	e.Update(32, 24) // dispatches the pending save-globe request.

	for p := range e.Globe.Plates {
		path := filepath.Join(dir, "shot"+strconv.Itoa(p)+".pcx")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}
