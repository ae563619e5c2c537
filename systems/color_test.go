package systems

import (
	"math"
	"testing"
)

func TestBlueToRed(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want RGB
	}{
		{"blue", 0, RGB{R: 0, G: 0.2, B: 1}},
		{"red", 1, RGB{R: 1, G: 0, B: 0}},
		{"mid", 0.5, RGB{R: 0.5, G: 0.1, B: 0.5}},
		{"below range", -3, RGB{R: 0, G: 0.2, B: 1}},
		{"above range", 7, RGB{R: 1, G: 0, B: 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BlueToRed(tc.t, 0.2)
			if math.Abs(got.R-tc.want.R) > 1e-12 || math.Abs(got.G-tc.want.G) > 1e-12 || math.Abs(got.B-tc.want.B) > 1e-12 {
				t.Errorf("BlueToRed(%f) = %+v, want %+v", tc.t, got, tc.want)
			}
		})
	}
}

func TestBlueToRedGreenMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for i := 0; i <= 100; i++ {
		c := BlueToRed(float64(i)/100, 0.2)
		if c.G > prev {
			t.Fatalf("green increased at t=%f", float64(i)/100)
		}
		prev = c.G
	}
}
