package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkEquilibrium  BookmarkType = "equilibrium"
	BookmarkEntropyDrop  BookmarkType = "entropy_drop"
	BookmarkContactSurge BookmarkType = "contact_surge"
	BookmarkReset        BookmarkType = "reset"
)

// Thresholds for bookmark detection.
const (
	equilibriumCV      = 0.05 // max coefficient of variation of shannon_mean
	equilibriumWindows = 3    // consecutive stable windows before triggering
	entropyDropRatio   = 0.75 // shannon_mean below this fraction of the rolling average
	contactSurgeRatio  = 2.0  // contacts per tick above this multiple of the rolling average
	contactSurgeMin    = 10   // minimum contacts in the window for a surge
	minHistory         = 3
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
// History is cleared whenever the particle count changes, since the
// previous windows describe a different system.
type BookmarkDetector struct {
	history     []WindowStats // chronological, at most historySize
	historySize int

	stableWindows       int
	equilibriumReported bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < minHistory+1 {
		historySize = minHistory + 1
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, 0, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if n := len(bd.history); n > 0 && bd.history[n-1].Particles != stats.Particles {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkReset,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Particle count changed from %d to %d", bd.history[n-1].Particles, stats.Particles),
		})
		bd.history = bd.history[:0]
		bd.stableWindows = 0
		bd.equilibriumReported = false
	}

	if len(bd.history) >= minHistory {
		if b := bd.checkEntropyDrop(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkContactSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkEquilibrium(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	if len(bd.history) == bd.historySize {
		copy(bd.history, bd.history[1:])
		bd.history = bd.history[:len(bd.history)-1]
	}
	bd.history = append(bd.history, stats)
}

func (bd *BookmarkDetector) checkEntropyDrop(stats WindowStats) *Bookmark {
	var sum float64
	for _, h := range bd.history {
		sum += h.ShannonMean
	}
	avg := sum / float64(len(bd.history))
	if avg <= 0 {
		return nil
	}

	if stats.ShannonMean < avg*entropyDropRatio {
		return &Bookmark{
			Type:        BookmarkEntropyDrop,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Shannon entropy %.3f fell to %.0f%% of average (%.3f)", stats.ShannonMean, stats.ShannonMean/avg*100, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkContactSurge(stats WindowStats) *Bookmark {
	var sum float64
	for _, h := range bd.history {
		sum += h.ContactsPerTick
	}
	avg := sum / float64(len(bd.history))
	if avg <= 0 {
		return nil
	}

	if stats.ContactsPerTick > avg*contactSurgeRatio && stats.Contacts >= contactSurgeMin {
		return &Bookmark{
			Type:        BookmarkContactSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Contact rate %.2f/tick is %.1fx average (%.2f)", stats.ContactsPerTick, stats.ContactsPerTick/avg, avg),
		}
	}
	return nil
}

// checkEquilibrium triggers once per particle count, after the window mean
// Shannon entropy has stayed flat for equilibriumWindows consecutive windows.
func (bd *BookmarkDetector) checkEquilibrium(stats WindowStats) *Bookmark {
	if stats.Particles < 2 || bd.equilibriumReported {
		return nil
	}

	recent := make([]float64, 0, minHistory+1)
	for _, h := range bd.history[len(bd.history)-minHistory:] {
		recent = append(recent, h.ShannonMean)
	}
	recent = append(recent, stats.ShannonMean)

	mean, std := MeanStd(recent)
	if mean > 0 && std/mean < equilibriumCV {
		bd.stableWindows++
	} else {
		bd.stableWindows = 0
	}

	if bd.stableWindows < equilibriumWindows {
		return nil
	}
	bd.equilibriumReported = true
	return &Bookmark{
		Type:        BookmarkEquilibrium,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Shannon entropy settled at %.3f (std %.4f) with %d particles", mean, std, stats.Particles),
	}
}
