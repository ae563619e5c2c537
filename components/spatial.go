package components

import "gonum.org/v1/gonum/spatial/r3"

// Position represents a particle's position inside the cube.
type Position struct {
	r3.Vec
}

// Velocity represents a particle's displacement per tick at speed 1.
type Velocity struct {
	r3.Vec
}
