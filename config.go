// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

import "time"

// config.go reduces the Engine constructor API footprint using functional
// options, same pattern and naming as the teacher's config.go.
// See: http://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis

// Config contains configuration attributes that can be set by the host
// application before running the engine.
type Config struct {
	gameDir string // base directory; lenses/globes resolve from gamedir/..

	frameBudget time.Duration // wall-clock budget for the lens-map builder.

	rubixCells int // default rubixgrid numcells
	rubixCell  int // default rubixgrid cellsize
	rubixPad   int // default rubixgrid padsize
}

// configDefaults provides reasonable defaults so the engine runs even if no
// configuration attributes are set.
var configDefaults = Config{
	gameDir:     ".",
	frameBudget: time.Second / 60, // 16.67ms, per spec §5.
	rubixCells:  8,
	rubixCell:   4,
	rubixPad:    1,
}

// Attr defines optional application attributes used to configure the
// engine.
//
//	eng, err := fisheye.New(hostRenderer,
//	   fisheye.GameDir("assets/game"),
//	   fisheye.FrameBudget(20*time.Millisecond),
//	)
type Attr func(*Config)

// GameDir sets the base directory that lens/globe commands resolve
// relative to: lenses load from gamedir/../lenses, globes from
// gamedir/../globes.
func GameDir(dir string) Attr {
	return func(c *Config) { c.gameDir = dir }
}

// FrameBudget sets the per-frame wall-clock budget given to the lens-map
// builder before it must yield back to the frame loop.
func FrameBudget(d time.Duration) Attr {
	return func(c *Config) {
		if d > 0 {
			c.frameBudget = d
		}
	}
}

// RubixGeometry sets the default rubix overlay grid geometry, used until
// the rubixgrid command changes it.
func RubixGeometry(numCells, cellSize, padSize int) Attr {
	return func(c *Config) {
		if numCells > 0 && cellSize > 0 && padSize >= 0 {
			c.rubixCells, c.rubixCell, c.rubixPad = numCells, cellSize, padSize
		}
	}
}
