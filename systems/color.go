package systems

// RGB is a color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// BlueToRed maps t in [0,1] to a blue to red gradient.
// t=0 is blue with a touch of green, t=1 is pure red. The green fades out
// linearly so the midpoint does not turn purple.
func BlueToRed(t, green float64) RGB {
	t = clamp01(t)
	return RGB{
		R: t,
		G: green * (1 - t),
		B: 1 - t,
	}
}

// clamp01 clamps a value to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
