// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package fisheye

import (
	"fmt"
	"time"
)

// Timing collects per-frame lens-map builder numbers while the engine runs.
// Values are reset each update, same "expect the caller to smooth these
// over a number of updates" contract as the teacher's Timing.
type Timing struct {
	Elapsed time.Duration // total frame time since last update.
	Build   time.Duration // time spent resuming the lens-map builder.
	Resumes int           // Builder.Resume calls made since last update.
}

// Zero resets all tracked values.
func (t *Timing) Zero() {
	t.Elapsed = 0
	t.Build = 0
	t.Resumes = 0
}

// Dump prints the current timing numbers in milliseconds.
func (t *Timing) Dump() {
	const milliseconds = 1000.0
	e := t.Elapsed.Seconds() * milliseconds
	b := t.Build.Seconds() * milliseconds
	fmt.Printf("E:%2.4f B:%2.4f #:%d\n", e, b, t.Resumes)
}

// recordResume tallies one Builder.Resume call and its duration.
func (t *Timing) recordResume(d time.Duration) {
	t.Build += d
	t.Resumes++
}
