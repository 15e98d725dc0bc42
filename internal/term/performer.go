package term

import (
	runewidth "github.com/mattn/go-runewidth"

	"tdsr/internal/speech"
	"tdsr/internal/system"
)

// cellWidth is the number of columns a character occupies.
func cellWidth(ch rune) int {
	w := runewidth.RuneWidth(ch)
	if w <= 0 {
		return 1
	}
	return w
}

// ScreenPerformer applies the decoded terminal stream to the grid and, as a
// side channel, mirrors drawn text into the speech buffer.
type ScreenPerformer struct {
	Screen *Screen
	Speech *speech.Buffer

	// LastDrawn is the cell the previous printable landed on; cursor jumps
	// between prints become word gaps in speech.
	LastDrawn *[2]int

	// LinePause segments speech at line feeds instead of joining lines.
	LinePause bool
}

func (p *ScreenPerformer) shouldAddSpace() bool {
	x, y := p.Screen.CursorX, p.Screen.CursorY
	if y == p.LastDrawn[1] && x > p.LastDrawn[0]+1 {
		return true
	}
	return false
}

// wrap performs the newline-equivalent a printable triggers at the right
// margin: column zero, next row, scrolling inside the region at its bottom.
func (p *ScreenPerformer) wrap() {
	s := p.Screen
	s.CursorX = 0
	p.lineFeed()
}

// lineFeed moves the cursor down one row, scrolling when it sits on the
// region bottom.
func (p *ScreenPerformer) lineFeed() {
	s := p.Screen
	_, bottom := s.Region()
	if s.CursorY == bottom {
		s.ScrollUp(1)
	} else if s.CursorY < s.Rows-1 {
		s.CursorY++
	}
}

// Print draws one character at the cursor with auto-wrap (DECAWM) semantics:
// the cursor may rest one past the last column, and the next printable wraps
// first. A two-column character that does not fit wraps as a unit.
func (p *ScreenPerformer) Print(ch rune) {
	s := p.Screen
	w := cellWidth(ch)

	if s.CursorX >= s.Cols || (w == 2 && s.CursorX == s.Cols-1) {
		p.wrap()
	}

	x, y := s.CursorX, s.CursorY
	if y >= s.Rows || x >= s.Cols {
		return
	}

	if p.shouldAddSpace() {
		p.Speech.WriteRune(' ')
	}

	row := s.Buffer[y]
	row[x] = Cell{Ch: ch}
	if w == 2 && x+1 < s.Cols {
		row[x+1] = ContinuationCell()
	}

	p.Speech.WriteRune(ch)
	*p.LastDrawn = [2]int{x, y}
	s.CursorX = x + w
}

// Execute handles C0 controls.
func (p *ScreenPerformer) Execute(b byte) {
	s := p.Screen
	switch b {
	case '\n', 0x0b, 0x0c:
		if p.LinePause {
			p.Speech.LineBreak()
		} else {
			p.Speech.WriteRune(' ')
		}
		p.lineFeed()
	case '\r':
		s.CursorX = 0
	case '\t':
		p.Speech.WriteRune(' ')
		s.CursorX = (s.CursorX/8 + 1) * 8
		if s.CursorX > s.Cols-1 {
			s.CursorX = s.Cols - 1
		}
	case 0x08:
		if s.CursorX > 0 {
			if s.CursorX > s.Cols {
				s.CursorX = s.Cols
			}
			s.CursorX--
			p.Speech.Pop()
		}
	case 0x07:
		// BEL: nothing to draw, nothing to say.
	case 0x0e, 0x0f:
		// SO/SI charset shifts are ignored.
	default:
		system.Logger.Debug("unhandled control", "byte", b)
	}
}

// param returns the i-th parameter with a default for missing or empty
// entries. An explicit zero is returned as is; the one-based commands clamp
// it so it acts like 1.
func param(params []int, i, def int) int {
	if i >= len(params) || params[i] < 0 {
		return def
	}
	return params[i]
}

func paramOrZero(params []int, i int) int {
	if i >= len(params) || params[i] < 0 {
		return 0
	}
	return params[i]
}

// CsiDispatch handles the CSI commands common shells and pagers emit.
// Anything unknown drops on the floor.
func (p *ScreenPerformer) CsiDispatch(marker byte, params []int, intermediates []byte, final byte) {
	s := p.Screen
	if len(intermediates) > 0 {
		return
	}
	if marker == '?' {
		p.privateMode(params, final)
		return
	}
	if marker != 0 {
		return
	}

	n := param(params, 0, 1)
	if n < 1 {
		n = 1
	}

	switch final {
	case 'A':
		s.CursorY = max(0, s.CursorY-n)
	case 'B':
		s.CursorY = min(s.Rows-1, s.CursorY+n)
	case 'C':
		s.CursorX = min(s.Cols-1, min(s.CursorX, s.Cols-1)+n)
	case 'D':
		s.CursorX = max(0, min(s.CursorX, s.Cols-1)-n)
	case 'E':
		s.CursorX = 0
		s.CursorY = min(s.Rows-1, s.CursorY+n)
	case 'F':
		s.CursorX = 0
		s.CursorY = max(0, s.CursorY-n)
	case 'G':
		s.CursorX = min(s.Cols-1, max(0, param(params, 0, 1)-1))
	case 'H', 'f':
		row := max(0, param(params, 0, 1)-1)
		col := max(0, param(params, 1, 1)-1)
		s.CursorY = min(s.Rows-1, row)
		s.CursorX = min(s.Cols-1, col)
	case 'J':
		switch paramOrZero(params, 0) {
		case 0:
			s.ClearToEnd()
		case 1:
			s.ClearToStart()
		case 2, 3:
			s.Clear()
		}
	case 'K':
		s.EraseInLine(paramOrZero(params, 0))
	case 'L':
		s.InsertLines(n)
	case 'M':
		s.DeleteLines(n)
	case 'P':
		s.DeleteChars(n)
	case '@':
		s.InsertChars(n)
	case 'S':
		s.ScrollUp(n)
	case 'T':
		s.ScrollDown(n)
	case 'd':
		s.CursorY = min(s.Rows-1, max(0, param(params, 0, 1)-1))
	case 'r':
		s.SetScrollRegion(param(params, 0, 1), param(params, 1, s.Rows))
	case 'm':
		// SGR: colors carry no meaning for speech.
	case 'h', 'l':
		// Non-private set/reset modes are not tracked.
	default:
		system.Logger.Debug("unhandled CSI", "final", string(final), "params", params)
	}
}

// privateMode handles CSI ? sequences: cursor visibility is informational,
// the alternate screen swaps the saved buffer in and out.
func (p *ScreenPerformer) privateMode(params []int, final byte) {
	s := p.Screen
	mode := paramOrZero(params, 0)
	switch mode {
	case 25:
		// Cursor show/hide: the grid does not render a cursor.
	case 47, 1047, 1049:
		if final == 'h' {
			s.SaveScreen()
			s.Clear()
			if mode == 1049 {
				s.CursorX, s.CursorY = 0, 0
			}
		} else if final == 'l' {
			s.RestoreScreen()
		}
	}
}

// EscDispatch handles plain escape sequences.
func (p *ScreenPerformer) EscDispatch(intermediates []byte, final byte) {
	s := p.Screen
	if len(intermediates) > 0 {
		return
	}
	switch final {
	case '7':
		s.SaveCursor()
	case '8':
		s.RestoreCursor()
	case 'M':
		top, _ := s.Region()
		if s.CursorY == top {
			s.ScrollDown(1)
		} else if s.CursorY > 0 {
			s.CursorY--
		}
	case 'D':
		_, bottom := s.Region()
		if s.CursorY == bottom {
			s.ScrollUp(1)
		} else if s.CursorY < s.Rows-1 {
			s.CursorY++
		}
	case 'E':
		s.CursorX = 0
		_, bottom := s.Region()
		if s.CursorY == bottom {
			s.ScrollUp(1)
		} else if s.CursorY < s.Rows-1 {
			s.CursorY++
		}
	case 'c':
		s.Reset()
	default:
		system.Logger.Debug("unhandled ESC", "final", string(final))
	}
}

// OscDispatch ignores operating system commands (titles, hyperlinks).
func (p *ScreenPerformer) OscDispatch(data []byte) {}
