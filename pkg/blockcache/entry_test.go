package blockcache

import "testing"

func TestEntryMarkReferencedClampsToHotMax(t *testing.T) {
	key := NewStreamKey("repo", "pack-1.pack", "pack", 0)
	e := newEntry(key, 0, 1024, 42, 3)
	e.hot.Store(0)

	for i := 0; i < 10; i++ {
		e.markReferenced()
	}
	if got := e.hot.Load(); got != 3 {
		t.Fatalf("hot = %d, want clamped to hotMax 3", got)
	}
}

func TestEntryNewEntryStartsCold(t *testing.T) {
	key := NewStreamKey("repo", "pack-1.pack", "pack", 0)
	e := newEntry(key, 0, 1024, 42, hotMaxBlock)
	if got := e.hot.Load(); got != 0 {
		t.Fatalf("hot = %d, want a freshly constructed entry to start cold (only refs.go's explicit post-construction Store, or a later get(), marks hot)", got)
	}
}

func TestEntryLiveAndRawValue(t *testing.T) {
	key := NewStreamKey("repo", "pack-1.pack", "pack", 0)
	e := newEntry(key, 0, 1024, "payload", hotMaxBlock)

	if !e.Live() {
		t.Fatalf("freshly constructed entry must be live")
	}
	if got := e.rawValue(); got != "payload" {
		t.Fatalf("rawValue() = %v, want %q", got, "payload")
	}

	e.value.Store(nil)
	if e.Live() {
		t.Fatalf("entry with cleared value must report not live")
	}
	if got := e.rawValue(); got != nil {
		t.Fatalf("rawValue() after clearing = %v, want nil", got)
	}
}

func TestEntryIsStale(t *testing.T) {
	key := NewStreamKey("repo", "pack-1.pack", "pack", 0)
	e := newEntry(key, 0, 1024, 7, hotMaxBlock)

	if !e.isStale() {
		t.Fatalf("a freshly constructed entry has a nil ring link and must report stale until addToClock links it in")
	}
	e.next.Store(e)
	if e.isStale() {
		t.Fatalf("entry linked into a ring must not be stale")
	}
	e.next.Store(nil)
	if !e.isStale() {
		t.Fatalf("entry with a nil ring link must be stale")
	}
}

func TestEntryKeyPositionSize(t *testing.T) {
	key := NewStreamKey("repo", "pack-1.pack", "pack", 0)
	e := newEntry(key, 4096, 8192, nil, hotMaxBlock)

	if !e.Key().Equal(key) {
		t.Fatalf("Key() did not round-trip")
	}
	if e.Position() != 4096 {
		t.Fatalf("Position() = %d, want 4096", e.Position())
	}
	if e.Size() != 8192 {
		t.Fatalf("Size() = %d, want 8192", e.Size())
	}
}
