package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayCells       OverlayID = "cells"
	OverlayParticles   OverlayID = "particles"
	OverlayWireframe   OverlayID = "wireframe"
	OverlayVelocities  OverlayID = "velocities"
	OverlayCellCounts  OverlayID = "cell_counts"
	OverlayCellEntropy OverlayID = "cell_entropy"
	OverlayStats       OverlayID = "stats"
	OverlayPerf        OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "scene", "labels", "panels")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
	Default     bool        // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	// Scene layers
	r.Register(OverlayDescriptor{
		ID:          OverlayCells,
		Name:        "Entropy Cells",
		Description: "Translucent grid cells colored by local entropy",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "scene",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayParticles,
		Name:        "Particles",
		Description: "Particle spheres",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "scene",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayWireframe,
		Name:        "Cube Frame",
		Description: "Wireframe outline of the bounding cube",
		Key:         rl.KeyW,
		KeyLabel:    "W",
		Category:    "scene",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayVelocities,
		Name:        "Velocities",
		Description: "Velocity direction of each particle",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "scene",
	})

	// Per-cell labels
	r.Register(OverlayDescriptor{
		ID:          OverlayCellCounts,
		Name:        "Cell Counts",
		Description: "Particle count at each occupied cell",
		Key:         rl.KeyN,
		KeyLabel:    "N",
		Category:    "labels",
		Exclusive:   []OverlayID{OverlayCellEntropy},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayCellEntropy,
		Name:        "Cell Entropy",
		Description: "Normalized entropy at each occupied cell",
		Key:         rl.KeyE,
		KeyLabel:    "E",
		Category:    "labels",
		Exclusive:   []OverlayID{OverlayCellCounts},
	})

	// Panels
	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Field Stats",
		Description: "Entropy and collision readouts",
		Key:         rl.KeyS,
		KeyLabel:    "S",
		Category:    "panels",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Tick phase timings",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "panels",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.SetEnabled(desc.ID, desc.Default)
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.byID[id]
	if !ok {
		return false
	}

	newState := !r.enabled[id]
	r.enabled[id] = newState

	// If enabling, disable exclusive overlays
	if newState {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}

	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// Get returns an overlay descriptor by ID.
func (r *OverlayRegistry) Get(id OverlayID) (OverlayDescriptor, bool) {
	desc, ok := r.byID[id]
	return desc, ok
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress toggles the overlay bound to key. It reports the overlay,
// its new state, and whether any overlay was bound to the key.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}
