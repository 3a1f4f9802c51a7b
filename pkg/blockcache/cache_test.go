package blockcache

import "testing"

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(WithBlockSize(0))
	if err == nil {
		t.Fatalf("expected New to reject an invalid Config")
	}
}

func TestReplaceAndCurrent(t *testing.T) {
	c1 := newTestBlockCache(t)
	old := Replace(c1)
	if old != nil {
		t.Fatalf("first Replace should report no prior singleton, got %v", old)
	}
	if Current() != c1 {
		t.Fatalf("Current() did not return the just-installed Cache")
	}

	c2 := newTestBlockCache(t)
	old = Replace(c2)
	if old != c1 {
		t.Fatalf("Replace did not return the previously installed Cache")
	}
	if Current() != c2 {
		t.Fatalf("Current() did not return the newly installed Cache")
	}

	// leave the singleton clean for any other test in this package
	Replace(nil)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := newTestBlockCache(t)
	c.Close()
	c.Close() // must not panic
}

func TestExtPosForIsStableAndGrows(t *testing.T) {
	c := newTestBlockCache(t)
	a := c.extPosFor("pack")
	b := c.extPosFor("pack")
	d := c.extPosFor("idx")

	if a != b {
		t.Fatalf("extPosFor(pack) returned different positions: %d vs %d", a, b)
	}
	if a == d {
		t.Fatalf("distinct extensions got the same position")
	}
}
