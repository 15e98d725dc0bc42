package speech

import "testing"

func TestBufferWriteFlush(t *testing.T) {
	b := NewBuffer()
	if !b.IsEmpty() {
		t.Fatal("new buffer should be empty")
	}
	b.WriteString("Hello")
	b.WriteRune(' ')
	b.WriteString("World")
	if got := b.Contents(); got != "Hello World" {
		t.Fatalf("contents = %q", got)
	}
	if got := b.Flush(); got != "Hello World" {
		t.Fatalf("flush = %q", got)
	}
	if !b.IsEmpty() {
		t.Fatal("buffer should be empty after flush")
	}
}

func TestBufferPop(t *testing.T) {
	b := NewBuffer()
	b.WriteString("héllo")
	r, ok := b.Pop()
	if !ok || r != 'o' {
		t.Fatalf("pop = %q %v", r, ok)
	}
	if got := b.Contents(); got != "héll" {
		t.Fatalf("contents = %q", got)
	}
	for range 4 {
		b.Pop()
	}
	if _, ok := b.Pop(); ok {
		t.Fatal("pop on empty buffer should fail")
	}
}

func TestBufferLineBreak(t *testing.T) {
	b := NewBuffer()
	b.WriteString("one")
	b.LineBreak()
	b.LineBreak() // empty break is dropped
	b.WriteString("two")
	b.LineBreak()
	if !b.HasPendingLines() {
		t.Fatal("expected pending lines")
	}
	lines := b.DrainLines()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %v", lines)
	}
	if b.HasPendingLines() {
		t.Fatal("drain should clear pending lines")
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer()
	b.WriteString("x")
	b.LineBreak()
	b.WriteString("y")
	b.Clear()
	if !b.IsEmpty() || b.HasPendingLines() {
		t.Fatal("clear should drop everything")
	}
}
