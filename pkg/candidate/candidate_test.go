package candidate

import "testing"

func TestEmptyTimeline(t *testing.T) {
	tl := EmptyTimeline()
	if len(tl) != len(Milestones) {
		t.Fatalf("timeline length = %d, want %d", len(tl), len(Milestones))
	}
	for i, entry := range tl {
		if entry.Label != Milestones[i] {
			t.Errorf("entry %d label = %q, want %q", i, entry.Label, Milestones[i])
		}
		if entry.Date != "N/A" {
			t.Errorf("entry %d date = %q, want N/A", i, entry.Date)
		}
	}

	// Fresh slice each call; mutating one must not leak into the next.
	tl[0].Date = "1/1/2024"
	if EmptyTimeline()[0].Date != "N/A" {
		t.Error("EmptyTimeline() shares state across calls")
	}
}

func TestLookupResultFound(t *testing.T) {
	if !(LookupResult{Status: LookupFound}).Found() {
		t.Error("Found() = false for a found result")
	}
	if (LookupResult{Status: LookupNotFound}).Found() {
		t.Error("Found() = true for a not-found result")
	}
}
