// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

// pcx.go writes the PCX screenshots the saveglobe command produces (spec
// §6, §4.7 step 7). The header layout and run-length scheme follow the
// standard ZSoft PCX format, the same binary.Write-a-fixed-header approach
// the teacher uses for its own asset formats (load/wav.go).

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/gazed/fisheye/globe"
)

// pcxHeader is the 128-byte ZSoft PCX header, version 5, 8 bits per pixel,
// one color plane.
type pcxHeader struct {
	Manufacturer byte
	Version      byte
	Encoding     byte
	BitsPerPixel byte
	XMin, YMin   uint16
	XMax, YMax   uint16
	HRes, VRes   uint16
	Palette16    [48]byte
	Reserved     byte
	NPlanes      byte
	BytesPerLine uint16
	PaletteInfo  uint16
	HScreenSize  uint16
	VScreenSize  uint16
	Filler       [54]byte
}

// pcxPaletteMarker precedes the 256-entry VGA palette appended after PCX
// image data.
const pcxPaletteMarker = 0x0C

// saveGlobePlates writes every plate of g as <name><index>.pcx, masking
// pixels outside each plate's Voronoi region to 0xFE unless withMargins is
// set (spec §4.7 step 7, §6).
func saveGlobePlates(g *globe.Globe, pal color.Palette, name string, withMargins bool) error {
	if g == nil || !g.Valid {
		return fmt.Errorf("saveglobe %q: no valid globe loaded", name)
	}
	for p := range g.Plates {
		size := g.PlateSize
		start := g.TexelIndex(p, 0, 0)
		plate := append([]byte(nil), g.Pixels[start:start+size*size]...)
		if !withMargins {
			maskOutsideVoronoi(g, p, plate)
		}
		path := fmt.Sprintf("%s%d.pcx", name, p)
		if err := writePCXFile(path, plate, size, pal); err != nil {
			return fmt.Errorf("saveglobe %q plate %d: %w", name, p, err)
		}
	}
	return nil
}

// maskOutsideVoronoi sets pixels[y*size+x] to 0xFE wherever the ray back
// through that texel no longer belongs to plate under ray_to_plate_index.
func maskOutsideVoronoi(g *globe.Globe, plate int, pixels []byte) {
	size := g.PlateSize
	for y := 0; y < size; y++ {
		v := (float64(y) + 0.5) / float64(size)
		for x := 0; x < size; x++ {
			u := (float64(x) + 0.5) / float64(size)
			ray := g.PlateUVToRay(plate, u, v)
			if g.RayToPlateIndex(ray) != plate {
				pixels[y*size+x] = 0xFE
			}
		}
	}
}

func writePCXFile(path string, pixels []byte, size int, pal color.Palette) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	writeErr := writePCX(w, pixels, size, pal)
	flushErr := w.Flush()
	closeErr := f.Close()
	switch {
	case writeErr != nil:
		return writeErr
	case flushErr != nil:
		return flushErr
	default:
		return closeErr
	}
}

// writePCX encodes a size x size, 8-bit palette-indexed image as PCX,
// followed by the 769-byte VGA palette block.
func writePCX(w io.Writer, pixels []byte, size int, pal color.Palette) error {
	hdr := pcxHeader{
		Manufacturer: 0x0A,
		Version:      5,
		Encoding:     1,
		BitsPerPixel: 8,
		XMax:         uint16(size - 1),
		YMax:         uint16(size - 1),
		HRes:         uint16(size),
		VRes:         uint16(size),
		NPlanes:      1,
		BytesPerLine: uint16(size),
		PaletteInfo:  1,
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("pcx header: %w", err)
	}
	for y := 0; y < size; y++ {
		row := pixels[y*size : (y+1)*size]
		if err := writeRLERow(w, row); err != nil {
			return fmt.Errorf("pcx row %d: %w", y, err)
		}
	}
	return writePalette(w, pal)
}

// writeRLERow encodes one scanline using PCX run-length packets: a byte
// whose top two bits are set carries a run count (1-63) followed by the
// value; any other byte is literal, except a literal whose own top two bits
// are set must still be wrapped in a one-element run to disambiguate it.
func writeRLERow(w io.Writer, row []byte) error {
	i := 0
	for i < len(row) {
		run := 1
		for i+run < len(row) && run < 63 && row[i+run] == row[i] {
			run++
		}
		if run > 1 || row[i]&0xC0 == 0xC0 {
			if _, err := w.Write([]byte{0xC0 | byte(run), row[i]}); err != nil {
				return err
			}
		} else if _, err := w.Write(row[i : i+1]); err != nil {
			return err
		}
		i += run
	}
	return nil
}

// writePalette appends the PCX palette marker and 256 RGB triples.
func writePalette(w io.Writer, pal color.Palette) error {
	if _, err := w.Write([]byte{pcxPaletteMarker}); err != nil {
		return err
	}
	var triples [768]byte
	for i := 0; i < 256; i++ {
		if i < len(pal) {
			r, g, b, _ := pal[i].RGBA()
			triples[i*3], triples[i*3+1], triples[i*3+2] = byte(r>>8), byte(g>>8), byte(b>>8)
		}
	}
	_, err := w.Write(triples[:])
	return err
}

// dumpPalette writes pal as 768 raw RGB bytes to path, the format dumppal
// produces (spec §6).
func dumpPalette(pal color.Palette, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dumppal: %w", err)
	}
	defer f.Close()
	var triples [768]byte
	for i := 0; i < 256 && i < len(pal); i++ {
		r, g, b, _ := pal[i].RGBA()
		triples[i*3], triples[i*3+1], triples[i*3+2] = byte(r>>8), byte(g>>8), byte(b>>8)
	}
	_, err = f.Write(triples[:])
	return err
}
