// Copyright © 2024-2026 fisheye contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package render

import (
	"testing"

	"github.com/gazed/fisheye/math/lin"
)

// fakeRenderer is an in-memory stand-in for the host's 3D renderer, used
// to exercise callers of HostRenderer without a graphics context.
type fakeRenderer struct {
	initCalled bool
	requests   []PlateRequest
	fill       byte
}

func (f *fakeRenderer) Init() error {
	f.initCalled = true
	return nil
}

func (f *fakeRenderer) RenderPlate(req PlateRequest) ([]byte, error) {
	f.requests = append(f.requests, req)
	buf := make([]byte, req.Size*req.Size)
	for i := range buf {
		buf[i] = f.fill
	}
	return buf, nil
}

var _ HostRenderer = (*fakeRenderer)(nil)

func TestFakeRendererTracksRequests(t *testing.T) {
	f := &fakeRenderer{fill: 7}
	if err := f.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	req := PlateRequest{
		Forward: lin.V3{X: 0, Y: 0, Z: 1},
		Up:      lin.V3{X: 0, Y: 1, Z: 0},
		Right:   lin.V3{X: 1, Y: 0, Z: 0},
		FOV:     1.2,
		Size:    4,
	}
	buf, err := f.RenderPlate(req)
	if err != nil {
		t.Fatalf("RenderPlate: %v", err)
	}
	if len(buf) != 16 {
		t.Fatalf("got %d bytes, want 16", len(buf))
	}
	for _, b := range buf {
		if b != 7 {
			t.Errorf("got fill byte %d, want 7", b)
		}
	}
	if !f.initCalled {
		t.Error("Init was not recorded as called")
	}
	if len(f.requests) != 1 || f.requests[0].Size != 4 {
		t.Errorf("request not recorded correctly: %+v", f.requests)
	}
}
