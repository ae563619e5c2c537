package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/entropycube/sim"
)

// DrawCellLabels writes a value at the screen position of each occupied
// cell's center. Must be called outside BeginMode3D.
func DrawCellLabels(snap *sim.Snapshot, cam rl.Camera3D, overlays *OverlayRegistry) {
	counts := overlays.IsEnabled(OverlayCellCounts)
	entropy := overlays.IsEnabled(OverlayCellEntropy)
	if !counts && !entropy {
		return
	}

	half := float32(snap.CellSize / 2)
	for i := range snap.Cells {
		c := &snap.Cells[i]
		if c.Count == 0 {
			continue
		}

		center := rl.Vector3{
			X: float32(c.Origin.X) + half,
			Y: float32(c.Origin.Y) + half,
			Z: float32(c.Origin.Z) + half,
		}
		pos := rl.GetWorldToScreen(center, cam)

		text := fmt.Sprintf("%d", c.Count)
		if entropy {
			text = fmt.Sprintf("%.2f", c.T)
		}
		w := rl.MeasureText(text, 12)
		rl.DrawText(text, int32(pos.X)-w/2, int32(pos.Y)-6, 12, rl.White)
	}
}
