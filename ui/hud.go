package ui

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/entropycube/sim"
	"github.com/pthm-cable/entropycube/systems"
	"github.com/pthm-cable/entropycube/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Particles int
	Tick      int32
	SimTime   float64 // seconds
	Speed     float64
	FPS       int32
	Paused    bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD along the top edge, right of the controls panel.
func (h *HUD) Draw(x int32, data HUDData) {
	rl.DrawText(data.Title, x, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Speed: %.2fx", data.Particles, data.Speed),
		x, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | FPS: %d", data.Tick, data.SimTime, data.FPS),
		x, 55, 16, rl.LightGray,
	)

	if data.Paused {
		rl.DrawText("PAUSED", x, 75, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, screenWidth-rl.MeasureText(controls, 14)-10, screenHeight-25, 14, rl.Gray)
}

// StatsData is what the field stats panel reads.
type StatsData struct {
	Snap      *sim.Snapshot
	Window    telemetry.WindowStats // last flushed stats window
	HasWindow bool
}

// StatsPanel renders the entropy and collision readouts.
type StatsPanel struct {
	renderer   *Renderer
	descriptor PanelDescriptor
}

// NewStatsPanel creates the stats panel. green is the entropy scale's green
// component at t=0.
func NewStatsPanel(green float64) *StatsPanel {
	r := NewRenderer()
	r.GradientGreen = green
	return &StatsPanel{
		renderer:   r,
		descriptor: statsPanelDescriptor(green),
	}
}

// Draw renders the panel at the top right of the screen.
func (s *StatsPanel) Draw(data StatsData, screenW, screenH int32) rl.Rectangle {
	return s.renderer.DrawPanelDescriptor(s.descriptor, data, screenW, screenH)
}

func stats(data any) StatsData {
	return data.(StatsData)
}

// shannonFraction is the Shannon entropy as a fraction of its maximum ln(cells).
func shannonFraction(snap *sim.Snapshot) float32 {
	cells := len(snap.Cells)
	if cells < 2 {
		return 0
	}
	return float32(snap.Shannon / math.Log(float64(cells)))
}

func statsPanelDescriptor(green float64) PanelDescriptor {
	hasWindow := func(d any) bool { return stats(d).HasWindow }

	return PanelDescriptor{
		ID:     "stats",
		Title:  "Entropy Field",
		Width:  260,
		Anchor: AnchorTopRight,
		Sections: []SectionDescriptor{
			{
				ID:    "field",
				Title: "Field",
				Fields: []FieldDescriptor{
					{
						ID: "occupied", Label: "Occupied", Widget: WidgetText,
						TextGetter: func(d any) string {
							snap := stats(d).Snap
							return fmt.Sprintf("%d / %d cells", snap.Occupied, len(snap.Cells))
						},
					},
					{
						ID: "shannon", Label: "Shannon", Widget: WidgetText, Format: "%.3f",
						Getter: func(d any) float32 { return float32(stats(d).Snap.Shannon) },
					},
					{
						ID: "spread", Label: "Spread", Widget: WidgetBar, Range: DefaultRange(),
						Getter: func(d any) float32 { return shannonFraction(stats(d).Snap) },
					},
					{ID: "scale", Label: "Entropy", Widget: WidgetGradient},
				},
			},
			{
				ID:    "collisions",
				Title: "Collisions (last tick)",
				Fields: []FieldDescriptor{
					{
						ID: "bounces", Label: "Wall", Widget: WidgetText, Format: "%.0f",
						Getter: func(d any) float32 { return float32(stats(d).Snap.Bounces) },
					},
					{
						ID: "contacts", Label: "Contacts", Widget: WidgetText, Format: "%.0f",
						Getter: func(d any) float32 { return float32(stats(d).Snap.Contacts) },
					},
				},
			},
			{
				ID:      "window",
				Title:   "Stats Window",
				Visible: hasWindow,
				Fields: []FieldDescriptor{
					{
						ID: "window_end", Label: "Ending", Widget: WidgetText,
						TextGetter: func(d any) string {
							w := stats(d).Window
							return fmt.Sprintf("tick %d (%.1fs)", w.WindowEndTick, w.SimTimeSec)
						},
					},
					{
						ID: "shannon_mean", Label: "Shannon", Widget: WidgetText,
						TextGetter: func(d any) string {
							w := stats(d).Window
							return fmt.Sprintf("%.3f +/- %.3f", w.ShannonMean, w.ShannonStd)
						},
					},
					{
						ID: "field_mean", Label: "Mean t", Widget: WidgetColorSwatch,
						ColorGetter: func(d any) rl.Color {
							return rgbColor(systems.BlueToRed(stats(d).Window.FieldMean, green))
						},
					},
					{
						ID: "field_p50", Label: "Median t", Widget: WidgetBar, Range: DefaultRange(),
						Getter: func(d any) float32 { return float32(stats(d).Window.FieldP50) },
					},
					{
						ID: "mean_speed", Label: "Mean speed", Widget: WidgetText, Format: "%.4f",
						Getter: func(d any) float32 { return float32(stats(d).Window.MeanSpeed) },
					},
					{
						ID: "contact_rate", Label: "Contacts/tick", Widget: WidgetText, Format: "%.2f",
						Getter: func(d any) float32 { return float32(stats(d).Window.ContactsPerTick) },
					},
				},
			},
		},
	}
}

// PerfPanel renders the tick phase performance panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(ps telemetry.PerfStats) {
	r := p.renderer
	phases := telemetry.PhaseOrder()
	width := int32(250)
	height := r.Theme.Padding*2 + 20 + 16*2 + int32(len(phases))*14

	r.DrawPanel(p.x, p.y, width, height)
	x := p.x + r.Theme.Padding
	y := p.y + r.Theme.Padding

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  P95: %s",
		ps.AvgTickDuration.Round(time.Microsecond), ps.P95TickDuration.Round(time.Microsecond)),
		x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("%.0f ticks/s", ps.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range phases {
		pct := ps.PhasePct[name]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, ps.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
