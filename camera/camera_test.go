package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/config"
)

func newTestCamera(t *testing.T) *Camera {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return New(cfg.Camera)
}

func vecNear(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-9
}

func TestNew(t *testing.T) {
	cam := newTestCamera(t)

	if cam.RotX != 20 || cam.RotY != 30 {
		t.Errorf("expected rotation (20, 30), got (%f, %f)", cam.RotX, cam.RotY)
	}
	if cam.Distance != 5 {
		t.Errorf("expected distance 5, got %f", cam.Distance)
	}
	if cam.FOV != 45 {
		t.Errorf("expected fov 45, got %f", cam.FOV)
	}
}

func TestEyeAxes(t *testing.T) {
	cam := newTestCamera(t)

	tests := []struct {
		name       string
		rotX, rotY float64
		eye, up    r3.Vec
	}{
		{"front", 0, 0, r3.Vec{Z: 5}, r3.Vec{Y: 1}},
		{"spun right", 0, 90, r3.Vec{X: -5}, r3.Vec{Y: 1}},
		{"top down", 90, 0, r3.Vec{Y: 5}, r3.Vec{Z: -1}},
		{"from behind", 0, 180, r3.Vec{Z: -5}, r3.Vec{Y: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cam.RotX, cam.RotY = tc.rotX, tc.rotY
			if eye := cam.Eye(); !vecNear(eye, tc.eye) {
				t.Errorf("eye = %v, want %v", eye, tc.eye)
			}
			if up := cam.Up(); !vecNear(up, tc.up) {
				t.Errorf("up = %v, want %v", up, tc.up)
			}
		})
	}
}

func TestEyeDistanceAndUpOrthogonal(t *testing.T) {
	cam := newTestCamera(t)

	for rx := -180.0; rx <= 180; rx += 15 {
		for ry := -180.0; ry <= 180; ry += 15 {
			cam.RotX, cam.RotY = rx, ry
			eye := cam.Eye()
			up := cam.Up()

			if math.Abs(r3.Norm(eye)-cam.Distance) > 1e-9 {
				t.Fatalf("(%v,%v): |eye| = %v, want %v", rx, ry, r3.Norm(eye), cam.Distance)
			}
			if math.Abs(r3.Norm(up)-1) > 1e-9 {
				t.Fatalf("(%v,%v): |up| = %v, want 1", rx, ry, r3.Norm(up))
			}
			if d := r3.Dot(up, r3.Sub(cam.Target(), eye)); math.Abs(d) > 1e-9 {
				t.Fatalf("(%v,%v): up not perpendicular to view, dot = %v", rx, ry, d)
			}
		}
	}
}

func TestDrag(t *testing.T) {
	cam := newTestCamera(t)

	cam.Drag(10, 4)

	// 0.5 degrees per pixel
	if cam.RotX != 22 || cam.RotY != 35 {
		t.Errorf("expected rotation (22, 35), got (%f, %f)", cam.RotX, cam.RotY)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := newTestCamera(t)

	cam.ZoomBy(1)
	if cam.Distance != 4.5 {
		t.Errorf("expected distance 4.5, got %f", cam.Distance)
	}

	cam.ZoomBy(100)
	if cam.Distance != cam.MinDistance {
		t.Errorf("expected min distance %f, got %f", cam.MinDistance, cam.Distance)
	}

	cam.ZoomBy(-100)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected max distance %f, got %f", cam.MaxDistance, cam.Distance)
	}
}

func TestReset(t *testing.T) {
	cam := newTestCamera(t)

	cam.Drag(100, -60)
	cam.ZoomBy(3)
	cam.Reset()

	if cam.RotX != 20 || cam.RotY != 30 || cam.Distance != 5 {
		t.Errorf("reset failed: rot (%f, %f) distance %f", cam.RotX, cam.RotY, cam.Distance)
	}
}
