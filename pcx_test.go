// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gazed/fisheye/globe"
	"github.com/gazed/fisheye/math/lin"
)

func TestWriteRLERowRunLengthEncodesRepeats(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRLERow(&buf, []byte{5, 5, 5, 5, 7}); err != nil {
		t.Fatalf("writeRLERow: %v", err)
	}
	want := []byte{0xC0 | 4, 5, 7} // a run of four 5s, then a literal 7.
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteRLERowEscapesAmbiguousLiteral(t *testing.T) {
	var buf bytes.Buffer
	// 0xC1 alone looks like a run-length byte; it must be wrapped in a
	// one-element run so the decoder doesn't misread it as a count.
	if err := writeRLERow(&buf, []byte{0xC1}); err != nil {
		t.Fatalf("writeRLERow: %v", err)
	}
	want := []byte{0xC0 | 1, 0xC1}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWritePCXHeaderAndPaletteSizes(t *testing.T) {
	var buf bytes.Buffer
	pal := color.Palette{color.RGBA{R: 1, G: 2, B: 3, A: 255}}
	pixels := []byte{0, 0, 0, 0}
	if err := writePCX(&buf, pixels, 2, pal); err != nil {
		t.Fatalf("writePCX: %v", err)
	}
	if buf.Len() < 128+769 {
		t.Fatalf("output too short for a header + palette block: %d bytes", buf.Len())
	}
	if buf.Bytes()[0] != 0x0A || buf.Bytes()[1] != 5 {
		t.Errorf("bad manufacturer/version bytes: % x", buf.Bytes()[:2])
	}
	marker := buf.Bytes()[buf.Len()-769]
	if marker != pcxPaletteMarker {
		t.Errorf("palette marker = %x, want %x", marker, pcxPaletteMarker)
	}
	rgb := buf.Bytes()[buf.Len()-768:]
	if rgb[0] != 1 || rgb[1] != 2 || rgb[2] != 3 {
		t.Errorf("first palette entry = %v, want [1 2 3]", rgb[:3])
	}
}

func TestMaskOutsideVoronoiLeavesOwnedPixelsAlone(t *testing.T) {
	// Plate 0 looks straight down +Z with a 90 degree fov. Plate 1's forward
	// leans toward +X enough that it wins the Voronoi vote for plate 0's
	// top-right texel, but not for its bottom-left one.
	g := &globe.Globe{
		Valid:     true,
		PlateSize: 2,
		Plates: []globe.Plate{
			{
				Forward: lin.V3{X: 0, Y: 0, Z: 1},
				Up:      lin.V3{X: 0, Y: 1, Z: 0},
				Right:   lin.V3{X: 1, Y: 0, Z: 0},
				Dist:    0.5,
			},
			{
				Forward: lin.V3{X: 0.3, Y: 0, Z: 1},
				Up:      lin.V3{X: 0, Y: 1, Z: 0},
				Right:   lin.V3{X: 0, Y: 0, Z: -1},
				Dist:    1,
			},
		},
	}

	pixels := []byte{1, 1, 1, 1}
	maskOutsideVoronoi(g, 0, pixels)

	if pixels[1] != 0xFE {
		t.Errorf("top-right texel = %d, want masked (0xFE)", pixels[1])
	}
	if pixels[2] != 1 {
		t.Errorf("bottom-left texel = %d, want left owned (1)", pixels[2])
	}
}

func TestDumpPaletteWritesRawTriples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "palette")
	pal := grayscalePalette()
	if err := dumpPalette(pal, path); err != nil {
		t.Fatalf("dumpPalette: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 768 {
		t.Fatalf("len = %d, want 768", len(data))
	}
	if data[0] != 0 || data[1] != 0 || data[2] != 0 {
		t.Errorf("entry 0 = %v, want black", data[:3])
	}
	if data[255*3] != 255 {
		t.Errorf("entry 255 red channel = %d, want 255", data[255*3])
	}
}
