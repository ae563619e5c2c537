package components

// Body holds physical properties of a particle.
// Radius is fixed at creation and never changes.
type Body struct {
	Radius float64
}
