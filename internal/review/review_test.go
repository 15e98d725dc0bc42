package review

import "testing"

func TestResizeClampsPosition(t *testing.T) {
	c := NewCursor(80, 24)
	c.X, c.Y = 79, 23
	c.Resize(40, 12)
	if c.X != 39 || c.Y != 11 {
		t.Fatalf("position = (%d,%d), want (39,11)", c.X, c.Y)
	}

	c.X, c.Y = 10, 5
	c.Resize(100, 50)
	if c.X != 10 || c.Y != 5 {
		t.Fatalf("position moved on grow: (%d,%d)", c.X, c.Y)
	}
}

func TestSelectionAnchor(t *testing.T) {
	c := NewCursor(80, 24)
	c.X, c.Y = 4, 2
	c.StartSelection()
	if !c.HasSelection() {
		t.Fatal("anchor should be set")
	}
	if c.Anchor[0] != 4 || c.Anchor[1] != 2 {
		t.Fatalf("anchor = %v", *c.Anchor)
	}
	c.ClearSelection()
	if c.HasSelection() {
		t.Fatal("anchor should be cleared")
	}
}

func TestResizeClampsAnchor(t *testing.T) {
	c := NewCursor(80, 24)
	c.X, c.Y = 70, 20
	c.StartSelection()
	c.Resize(10, 5)
	if c.Anchor[0] != 9 || c.Anchor[1] != 4 {
		t.Fatalf("anchor = %v, want clamped", *c.Anchor)
	}
}
