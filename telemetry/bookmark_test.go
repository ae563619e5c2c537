package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Equilibrium(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 10; i++ {
		stats := WindowStats{
			WindowEndTick: int32(i * 625),
			Particles:     50,
			ShannonMean:   3.6,
		}
		if hasBookmark(bd.Check(stats), BookmarkEquilibrium) {
			triggered++
			// 3 windows of history plus 3 stable checks
			if i != 5 {
				t.Errorf("equilibrium triggered at window %d, want 5", i)
			}
		}
	}
	if triggered != 1 {
		t.Errorf("expected exactly one equilibrium bookmark, got %d", triggered)
	}
}

func TestBookmarkDetector_NoEquilibriumWhileFluctuating(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 10; i++ {
		shannon := 2.0
		if i%2 == 1 {
			shannon = 3.0
		}
		stats := WindowStats{
			WindowEndTick: int32(i * 625),
			Particles:     50,
			ShannonMean:   shannon,
		}
		if hasBookmark(bd.Check(stats), BookmarkEquilibrium) {
			t.Fatalf("unexpected equilibrium at window %d", i)
		}
	}
}

func TestBookmarkDetector_EntropyDrop(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: int32(i * 625),
			Particles:     50,
			ShannonMean:   3.5,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 3125,
		Particles:     50,
		ShannonMean:   2.0,
	})
	if !hasBookmark(bookmarks, BookmarkEntropyDrop) {
		t.Error("expected entropy_drop bookmark")
	}
}

func TestBookmarkDetector_ContactSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick:   int32(i * 625),
			Particles:       100,
			Contacts:        625,
			ContactsPerTick: 1.0,
		})
	}

	tests := []struct {
		name     string
		contacts int
		perTick  float64
		want     bool
	}{
		{"below ratio", 1000, 1.6, false},
		{"surge", 2500, 4.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookmarks := bd.Check(WindowStats{
				WindowEndTick:   4000,
				Particles:       100,
				Contacts:        tt.contacts,
				ContactsPerTick: tt.perTick,
			})
			if got := hasBookmark(bookmarks, BookmarkContactSurge); got != tt.want {
				t.Errorf("contact_surge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookmarkDetector_ResetOnCountChange(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 8; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 625), Particles: 50, ShannonMean: 3.6})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 5000, Particles: 120, ShannonMean: 4.0})
	if !hasBookmark(bookmarks, BookmarkReset) {
		t.Fatal("expected reset bookmark")
	}
	if hasBookmark(bookmarks, BookmarkEntropyDrop) {
		t.Error("entropy comparison should not span a reset")
	}

	// Equilibrium can be reported again for the new count
	found := false
	for i := 0; i < 8; i++ {
		if hasBookmark(bd.Check(WindowStats{WindowEndTick: int32(5625 + i*625), Particles: 120, ShannonMean: 4.0}), BookmarkEquilibrium) {
			found = true
		}
	}
	if !found {
		t.Error("expected equilibrium after reset")
	}
}
