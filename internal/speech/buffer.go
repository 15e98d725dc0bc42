// Package speech holds the utterance pipeline: the accumulation buffer and
// the synthesizer backends that render it.
package speech

import "tdsr/internal/system"

// Buffer accumulates text destined for the synthesizer.
//
// In line mode (line_pause) completed lines queue up separately so each one
// becomes its own utterance; otherwise everything concatenates until a
// flush trigger fires.
type Buffer struct {
	buf     []rune
	pending []string
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// WriteString appends text.
func (b *Buffer) WriteString(text string) {
	b.buf = append(b.buf, []rune(text)...)
}

// WriteRune appends a single character.
func (b *Buffer) WriteRune(r rune) {
	b.buf = append(b.buf, r)
}

// LineBreak moves the current contents to the pending-line queue.
func (b *Buffer) LineBreak() {
	if len(b.buf) == 0 {
		return
	}
	system.Logger.Debug("line break", "chars", len(b.buf))
	b.pending = append(b.pending, string(b.buf))
	b.buf = b.buf[:0]
}

// HasPendingLines reports whether completed lines are queued.
func (b *Buffer) HasPendingLines() bool {
	return len(b.pending) > 0
}

// DrainLines returns and clears the queued lines.
func (b *Buffer) DrainLines() []string {
	lines := b.pending
	b.pending = nil
	return lines
}

// Contents returns the current accumulation without clearing it.
func (b *Buffer) Contents() string {
	return string(b.buf)
}

// Flush returns the accumulation and clears it.
func (b *Buffer) Flush() string {
	text := string(b.buf)
	b.buf = b.buf[:0]
	return text
}

// Clear drops the accumulation and any queued lines.
func (b *Buffer) Clear() {
	b.buf = b.buf[:0]
	b.pending = nil
}

// Pop removes and returns the last character. Used for backspace handling.
func (b *Buffer) Pop() (rune, bool) {
	if len(b.buf) == 0 {
		return 0, false
	}
	r := b.buf[len(b.buf)-1]
	b.buf = b.buf[:len(b.buf)-1]
	return r, true
}

// Len is the number of buffered characters.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// IsEmpty reports whether nothing is buffered.
func (b *Buffer) IsEmpty() bool {
	return len(b.buf) == 0
}
