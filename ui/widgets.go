package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/entropycube/systems"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme

	// GradientGreen is the green component of the entropy scale at t=0.
	GradientGreen float64
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme(), GradientGreen: 0.2}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabel draws a text label.
func (r *Renderer) DrawLabel(x, y int32, text string) {
	rl.DrawText(text, x, y, r.Theme.FontSize, r.Theme.LabelColor)
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string, totalWidth int32) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a progress bar for [0, 1] values.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, width int32) int32 {
	// Clamp value
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	// Label
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)

	// Background
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	// Fill
	fillWidth := int32(float32(barWidth) * value)
	rl.DrawRectangle(barX, y+2, fillWidth, r.Theme.BarHeight, r.Theme.BarFill)

	// Value text
	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawGradient draws the blue to red entropy scale with its end labels.
func (r *Renderer) DrawGradient(x, y int32, label string, width int32) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50
	if barWidth < 1 {
		return y + r.Theme.LineHeight + r.Theme.BarHeight + 2
	}

	for i := int32(0); i < barWidth; i++ {
		t := float64(i) / float64(max(barWidth-1, 1))
		c := systems.BlueToRed(t, r.GradientGreen)
		rl.DrawRectangle(barX+i, y+2, 1, r.Theme.BarHeight, rgbColor(c))
	}
	rl.DrawRectangleLines(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.PanelBorder)
	rl.DrawText("low", barX, y+r.Theme.BarHeight+4, r.Theme.FontSize-2, r.Theme.LabelColor)
	high := "high"
	rl.DrawText(high, barX+barWidth-rl.MeasureText(high, r.Theme.FontSize-2), y+r.Theme.BarHeight+4, r.Theme.FontSize-2, r.Theme.LabelColor)

	return y + r.Theme.LineHeight + r.Theme.BarHeight + 2
}

// DrawColorSwatch draws a color swatch.
func (r *Renderer) DrawColorSwatch(x, y int32, label string, color rl.Color, width int32) int32 {
	swatchSize := int32(12)

	// Label
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)

	// Swatch
	rl.DrawRectangle(x+r.Theme.LabelWidth, y+1, swatchSize, swatchSize, color)

	return y + r.Theme.LineHeight
}

// DrawSpacer adds vertical space and returns new Y.
func (r *Renderer) DrawSpacer(y int32, amount int32) int32 {
	return y + amount
}

// DrawField renders a field based on its descriptor.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	switch fd.Widget {
	case WidgetText:
		var text string
		if fd.TextGetter != nil {
			text = fd.TextGetter(data)
		} else if fd.Getter != nil {
			text = fmt.Sprintf(fd.Format, fd.Getter(data))
		}
		return r.DrawLabelValue(x, y, fd.Label, text, width)

	case WidgetBar:
		value := float32(0)
		if fd.Getter != nil {
			value = fd.Getter(data)
		}
		if span := fd.Range.Max - fd.Range.Min; span > 0 {
			value = (value - fd.Range.Min) / span
		}
		return r.DrawBar(x, y, fd.Label, value, width)

	case WidgetColorSwatch:
		color := fd.Color
		if fd.ColorGetter != nil {
			color = fd.ColorGetter(data)
		}
		return r.DrawColorSwatch(x, y, fd.Label, color, width)

	case WidgetGradient:
		return r.DrawGradient(x, y, fd.Label, width)

	case WidgetSection:
		return r.DrawSectionHeader(x, y, fd.Label)

	case WidgetSpacer:
		return r.DrawSpacer(y, 6)
	}

	return y
}

// DrawSection renders a section with header and fields.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	// Check section visibility
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}

	// Header
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}

	// Fields
	for _, fd := range sd.Fields {
		// Check field visibility
		if fd.Visible != nil && !fd.Visible(data) {
			continue
		}
		y = r.DrawField(x, y, fd, data, width)
	}

	return y + 4 // Small gap after section
}

// PanelHeight returns the height a panel needs for its visible content.
func (r *Renderer) PanelHeight(pd PanelDescriptor, data any) int32 {
	h := r.Theme.Padding * 2
	if pd.Title != "" {
		h += r.Theme.LineHeight + 4
	}
	for _, sd := range pd.Sections {
		if sd.Visible != nil && !sd.Visible(data) {
			continue
		}
		if sd.Title != "" {
			h += r.Theme.LineHeight
		}
		for _, fd := range sd.Fields {
			if fd.Visible != nil && !fd.Visible(data) {
				continue
			}
			h += r.fieldHeight(fd)
		}
		h += 4
	}
	return h
}

func (r *Renderer) fieldHeight(fd FieldDescriptor) int32 {
	switch fd.Widget {
	case WidgetBar:
		return r.Theme.LineHeight + 2
	case WidgetGradient:
		return r.Theme.LineHeight + r.Theme.BarHeight + 2
	case WidgetSpacer:
		return 6
	}
	return r.Theme.LineHeight
}

// DrawPanelDescriptor draws a full panel at its anchor and returns its bounds.
func (r *Renderer) DrawPanelDescriptor(pd PanelDescriptor, data any, screenW, screenH int32) rl.Rectangle {
	width := pd.Width
	if width == 0 {
		width = 240
	}
	height := r.PanelHeight(pd, data)

	margin := int32(10)
	var x, y int32
	switch pd.Anchor {
	case AnchorTopLeft:
		x, y = margin, margin
	case AnchorTopRight:
		x, y = screenW-width-margin, margin
	case AnchorBottomLeft:
		x, y = margin, screenH-height-margin
	case AnchorBottomRight:
		x, y = screenW-width-margin, screenH-height-margin
	case AnchorCenter:
		x, y = (screenW-width)/2, (screenH-height)/2
	}

	r.DrawPanel(x, y, width, height)

	cy := y + r.Theme.Padding
	if pd.Title != "" {
		rl.DrawText(pd.Title, x+r.Theme.Padding, cy, 16, rl.White)
		cy += r.Theme.LineHeight + 4
	}
	for _, sd := range pd.Sections {
		cy = r.DrawSection(x+r.Theme.Padding, cy, sd, data, width-r.Theme.Padding*2)
	}

	return rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(height)}
}

// rgbColor converts a [0,1] RGB to an opaque raylib color.
func rgbColor(c systems.RGB) rl.Color {
	return rl.Color{R: uint8(c.R * 255), G: uint8(c.G * 255), B: uint8(c.B * 255), A: 255}
}
