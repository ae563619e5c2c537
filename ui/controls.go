package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// SpeedSliderScale converts the integer speed slider to a speed multiplier.
const SpeedSliderScale = 50

// ControlsState is the current value of every control.
type ControlsState struct {
	Particles int
	Speed     float64 // speed multiplier
	Paused    bool
}

// ControlsResult reports what the user changed this frame.
type ControlsResult struct {
	Particles        int
	Speed            float64
	ParticlesChanged bool
	SpeedChanged     bool
	TogglePause      bool
	ResetCamera      bool
}

// ControlsPanel renders the particle count and speed controls above the
// overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool

	minParticles, maxParticles int
}

// NewControlsPanel creates a new controls panel. The particle slider spans
// [minParticles, maxParticles]; the speed slider spans 1..100 steps.
func NewControlsPanel(x, y, width int32, minParticles, maxParticles int) *ControlsPanel {
	return &ControlsPanel{
		renderer:     NewRenderer(),
		x:            x,
		y:            y,
		width:        width,
		visible:      true,
		minParticles: minParticles,
		maxParticles: maxParticles,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel, so camera drags
// that start on a control can be ignored.
func (c *ControlsPanel) Contains(p rl.Vector2, overlays *OverlayRegistry) bool {
	if !c.visible {
		return false
	}
	rect := rl.Rectangle{X: float32(c.x), Y: float32(c.y), Width: float32(c.width), Height: float32(c.height(overlays))}
	return rl.CheckCollisionPointRec(p, rect)
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	r := c.renderer
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	controls := 2*(lineHeight+22) + 34
	return controls + int32(totalItems)*lineHeight + int32(len(categories))*4 + r.Theme.Padding*3 + lineHeight*2
}

// Draw renders the controls panel and returns the user's changes.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) ControlsResult {
	result := ControlsResult{Particles: state.Particles, Speed: state.Speed}
	if !c.visible {
		return result
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := float32(c.width - padding*2)

	r.DrawPanel(c.x, c.y, c.width, c.height(overlays))

	x := c.x + padding
	y := c.y + padding

	rl.DrawText("Controls", x, y, 16, rl.White)
	y += lineHeight + 4

	// Particle count
	r.DrawLabel(x, y, fmt.Sprintf("Particles: %d", state.Particles))
	y += lineHeight
	count := gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(y), Width: inner - 60, Height: 16},
		"", fmt.Sprintf("%d", c.maxParticles),
		float32(state.Particles), float32(c.minParticles), float32(c.maxParticles),
	)
	if n := int(math.Round(float64(count))); n != state.Particles {
		result.Particles = n
		result.ParticlesChanged = true
	}
	y += 22

	// Speed multiplier, slider steps of 1/50
	step := float32(math.Round(state.Speed * SpeedSliderScale))
	r.DrawLabel(x, y, fmt.Sprintf("Speed: %.2fx", state.Speed))
	y += lineHeight
	newStep := gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(y), Width: inner - 60, Height: 16},
		"", "100",
		step, 1, 100,
	)
	if s := math.Round(float64(newStep)); s != float64(step) {
		result.Speed = s / SpeedSliderScale
		result.SpeedChanged = true
	}
	y += 22

	half := (inner - 6) / 2
	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: half, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		result.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: float32(x) + half + 6, Y: float32(y), Width: half, Height: 24}, "Reset View") {
		result.ResetCamera = true
	}
	y += 34

	rl.DrawText("Overlays", x, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return result
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "scene":
		return "Scene"
	case "labels":
		return "Labels"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
