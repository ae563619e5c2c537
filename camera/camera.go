// Package camera provides an orbit camera around the cube center.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/entropycube/config"
)

// Camera orbits the origin. The view is a translation back by Distance
// followed by a rotation of RotX degrees about the x axis and RotY degrees
// about the y axis.
type Camera struct {
	// Rotation in degrees
	RotX, RotY float64

	// Distance from the origin
	Distance float64

	// Vertical field of view in degrees
	FOV float64

	// Distance constraints
	MinDistance, MaxDistance float64

	// Degrees of rotation per pixel of drag
	Sensitivity float64

	// Distance change per zoom step
	ZoomStep float64

	initial config.CameraConfig
}

// New creates a camera from config.
func New(cfg config.CameraConfig) *Camera {
	c := &Camera{initial: cfg}
	c.Reset()
	return c
}

// Drag rotates the camera by a mouse delta in screen pixels.
// Vertical motion tilts about the x axis, horizontal motion spins about y.
func (c *Camera) Drag(dx, dy float64) {
	c.RotX += dy * c.Sensitivity
	c.RotY += dx * c.Sensitivity
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy moves the camera in by steps zoom steps (negative moves out).
func (c *Camera) ZoomBy(steps float64) {
	c.SetDistance(c.Distance - steps*c.ZoomStep)
}

// Reset returns the camera to its configured rotation and distance.
func (c *Camera) Reset() {
	cfg := c.initial
	c.RotX = cfg.RotX
	c.RotY = cfg.RotY
	c.FOV = cfg.FOV
	c.MinDistance = cfg.MinDistance
	c.MaxDistance = cfg.MaxDistance
	if c.MaxDistance < c.MinDistance {
		c.MaxDistance = c.MinDistance
	}
	c.Sensitivity = cfg.DragSensitivity
	c.ZoomStep = cfg.ZoomStep
	c.SetDistance(cfg.Distance)
}

// Eye returns the camera position in world coordinates.
func (c *Camera) Eye() r3.Vec {
	a := radians(c.RotX)
	b := radians(c.RotY)
	d := c.Distance
	return r3.Vec{
		X: -d * math.Cos(a) * math.Sin(b),
		Y: d * math.Sin(a),
		Z: d * math.Cos(a) * math.Cos(b),
	}
}

// Up returns the camera up vector in world coordinates. It stays
// perpendicular to the view direction for any tilt, so the view never flips.
func (c *Camera) Up() r3.Vec {
	a := radians(c.RotX)
	b := radians(c.RotY)
	return r3.Vec{
		X: math.Sin(a) * math.Sin(b),
		Y: math.Cos(a),
		Z: -math.Sin(a) * math.Cos(b),
	}
}

// Target returns the point the camera looks at.
func (c *Camera) Target() r3.Vec {
	return r3.Vec{}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
