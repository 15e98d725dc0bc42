package term

import (
	"tdsr/internal/speech"
	"tdsr/internal/system"
)

// Emulator feeds raw PTY output through the VT parser into the screen grid.
type Emulator struct {
	screen    *Screen
	parser    *Parser
	lastDrawn [2]int
}

// NewEmulator builds an emulator with a blank grid.
func NewEmulator(cols, rows int) *Emulator {
	system.Logger.Debug("creating emulator", "cols", cols, "rows", rows)
	return &Emulator{
		screen: NewScreen(cols, rows),
		parser: NewParser(),
	}
}

// ProcessWithSpeech advances the parser over data, updating the grid and
// mirroring drawn text into buf.
func (e *Emulator) ProcessWithSpeech(data []byte, buf *speech.Buffer, linePause bool) {
	pf := &ScreenPerformer{
		Screen:    e.screen,
		Speech:    buf,
		LastDrawn: &e.lastDrawn,
		LinePause: linePause,
	}
	for _, b := range data {
		e.parser.Advance(pf, b)
	}
}

// Process updates the grid without producing speech (quiet mode).
func (e *Emulator) Process(data []byte) {
	var scratch speech.Buffer
	e.ProcessWithSpeech(data, &scratch, false)
}

// Resize changes the grid dimensions.
func (e *Emulator) Resize(cols, rows int) {
	system.Logger.Debug("resizing emulator", "cols", cols, "rows", rows)
	e.screen.Resize(cols, rows)
}

// Cursor returns the terminal cursor clamped into the grid.
func (e *Emulator) Cursor() (x, y int) {
	return e.screen.clampedCursor()
}

// Screen exposes the grid for review-cursor access.
func (e *Emulator) Screen() *Screen {
	return e.screen
}
