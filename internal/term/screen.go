package term

// Screen is the back buffer the review cursor navigates. It mirrors what
// the real terminal shows: a Rows x Cols grid of cells plus the child's
// cursor, scroll region, and the saved state full-screen apps restore.
//
// Invariants: len(Buffer) == Rows, every row has Cols cells, and the cursor
// stays inside the grid (CursorX may rest at Cols to mark a pending wrap).
type Screen struct {
	Buffer [][]Cell
	Cols   int
	Rows   int

	// CursorX/CursorY is where the child draws next. CursorX == Cols means
	// the next printable wraps first.
	CursorX int
	CursorY int

	hasRegion    bool
	regionTop    int
	regionBottom int

	savedCursor    *[2]int
	savedBuffer    [][]Cell
	savedBufCursor *[2]int

	// scrollOffset accumulates net scrolling since the last TakeScrollOffset,
	// positive when content moved up.
	scrollOffset int
}

// NewScreen builds a blank grid.
func NewScreen(cols, rows int) *Screen {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Screen{
		Buffer: blankRows(cols, rows),
		Cols:   cols,
		Rows:   rows,
	}
}

func blankRows(cols, rows int) [][]Cell {
	buf := make([][]Cell, rows)
	for y := range buf {
		buf[y] = blankRow(cols)
	}
	return buf
}

func blankRow(cols int) []Cell {
	row := make([]Cell, cols)
	for x := range row {
		row[x] = BlankCell()
	}
	return row
}

// Region returns the active scroll region, full screen when none is set.
func (s *Screen) Region() (top, bottom int) {
	if s.hasRegion {
		return s.regionTop, s.regionBottom
	}
	return 0, s.Rows - 1
}

// SetScrollRegion installs a DECSTBM region from 1-based bounds; an invalid
// region resets to the full screen. The cursor homes either way.
func (s *Screen) SetScrollRegion(top, bottom int) {
	top--
	bottom--
	if top < 0 {
		top = 0
	}
	if bottom > s.Rows-1 {
		bottom = s.Rows - 1
	}
	if top < bottom {
		s.hasRegion = true
		s.regionTop = top
		s.regionBottom = bottom
	} else {
		s.hasRegion = false
	}
	s.CursorX, s.CursorY = 0, 0
}

// TakeScrollOffset returns and resets the accumulated scroll count.
func (s *Screen) TakeScrollOffset() int {
	off := s.scrollOffset
	s.scrollOffset = 0
	return off
}

// CharAt returns the character at (x, y), or false when out of bounds.
func (s *Screen) CharAt(x, y int) (rune, bool) {
	if y < 0 || y >= s.Rows || x < 0 || x >= s.Cols {
		return 0, false
	}
	return s.Buffer[y][x].Ch, true
}

// Line returns row y as a string, skipping wide continuation slots.
func (s *Screen) Line(y int) string {
	if y < 0 || y >= s.Rows {
		return ""
	}
	runes := make([]rune, 0, s.Cols)
	for x := 0; x < s.Cols; x++ {
		c := s.Buffer[y][x]
		if c.WideContinuation {
			continue
		}
		runes = append(runes, c.Ch)
	}
	return string(runes)
}

// LineTrimmed returns row y with trailing spaces removed.
func (s *Screen) LineTrimmed(y int) string {
	line := []rune(s.Line(y))
	end := len(line)
	for end > 0 && line[end-1] == ' ' {
		end--
	}
	return string(line[:end])
}

// Resize truncates or pads the grid, preserving content within the new
// bounds and clamping the cursor and scroll region.
func (s *Screen) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	buf := blankRows(cols, rows)
	copyRows := min(rows, s.Rows)
	for y := 0; y < copyRows; y++ {
		copy(buf[y], s.Buffer[y][:min(cols, s.Cols)])
	}
	s.Buffer = buf
	s.Cols = cols
	s.Rows = rows
	s.CursorX = min(s.CursorX, cols-1)
	s.CursorY = min(s.CursorY, rows-1)
	if s.hasRegion {
		s.regionBottom = min(s.regionBottom, rows-1)
		if s.regionTop >= s.regionBottom {
			s.hasRegion = false
		}
	}
	for y := 0; y < rows; y++ {
		s.fixOrphans(y)
	}
}

// Clear blanks the whole grid.
func (s *Screen) Clear() {
	for y := range s.Buffer {
		for x := range s.Buffer[y] {
			s.Buffer[y][x].Clear()
		}
	}
}

// ClearToEnd erases from the cursor to the end of the screen.
func (s *Screen) ClearToEnd() {
	x, y := s.clampedCursor()
	for i := x; i < s.Cols; i++ {
		s.Buffer[y][i].Clear()
	}
	for j := y + 1; j < s.Rows; j++ {
		for i := range s.Buffer[j] {
			s.Buffer[j][i].Clear()
		}
	}
	s.fixOrphans(y)
}

// ClearToStart erases from the start of the screen through the cursor.
func (s *Screen) ClearToStart() {
	x, y := s.clampedCursor()
	for j := 0; j < y; j++ {
		for i := range s.Buffer[j] {
			s.Buffer[j][i].Clear()
		}
	}
	for i := 0; i <= x; i++ {
		s.Buffer[y][i].Clear()
	}
	s.fixOrphans(y)
}

// EraseInLine implements CSI K with modes 0 (to end), 1 (to start),
// 2 (whole line).
func (s *Screen) EraseInLine(mode int) {
	x, y := s.clampedCursor()
	row := s.Buffer[y]
	switch mode {
	case 0:
		for i := x; i < s.Cols; i++ {
			row[i].Clear()
		}
	case 1:
		for i := 0; i <= x && i < s.Cols; i++ {
			row[i].Clear()
		}
	case 2:
		for i := range row {
			row[i].Clear()
		}
	}
	s.fixOrphans(y)
}

// ScrollUp shifts the scroll region up by n rows; content leaves at the top
// and blank rows enter at the bottom. Row count never changes.
func (s *Screen) ScrollUp(n int) {
	top, bottom := s.Region()
	for i := 0; i < n; i++ {
		for y := top; y < bottom; y++ {
			s.Buffer[y], s.Buffer[y+1] = s.Buffer[y+1], s.Buffer[y]
		}
		s.Buffer[bottom] = blankRow(s.Cols)
		s.scrollOffset++
	}
}

// ScrollDown shifts the scroll region down by n rows.
func (s *Screen) ScrollDown(n int) {
	top, bottom := s.Region()
	for i := 0; i < n; i++ {
		for y := bottom; y > top; y-- {
			s.Buffer[y], s.Buffer[y-1] = s.Buffer[y-1], s.Buffer[y]
		}
		s.Buffer[top] = blankRow(s.Cols)
		s.scrollOffset--
	}
}

// InsertLines inserts n blank lines at the cursor row; rows below shift
// toward the region bottom and fall off it.
func (s *Screen) InsertLines(n int) {
	_, bottom := s.Region()
	y := s.CursorY
	if y > bottom {
		return
	}
	for i := 0; i < n; i++ {
		for j := bottom; j > y; j-- {
			s.Buffer[j], s.Buffer[j-1] = s.Buffer[j-1], s.Buffer[j]
		}
		s.Buffer[y] = blankRow(s.Cols)
	}
}

// DeleteLines removes n lines at the cursor row; blanks enter at the region
// bottom.
func (s *Screen) DeleteLines(n int) {
	_, bottom := s.Region()
	y := s.CursorY
	if y > bottom {
		return
	}
	for i := 0; i < n; i++ {
		for j := y; j < bottom; j++ {
			s.Buffer[j], s.Buffer[j+1] = s.Buffer[j+1], s.Buffer[j]
		}
		s.Buffer[bottom] = blankRow(s.Cols)
	}
}

// InsertChars shifts the rest of the row right by n, blanking at the cursor.
func (s *Screen) InsertChars(n int) {
	x, y := s.clampedCursor()
	row := s.Buffer[y]
	for i := 0; i < n; i++ {
		for j := s.Cols - 1; j > x; j-- {
			row[j] = row[j-1]
		}
		row[x] = BlankCell()
	}
	s.fixOrphans(y)
}

// DeleteChars shifts the rest of the row left by n, blanking at the end.
func (s *Screen) DeleteChars(n int) {
	x, y := s.clampedCursor()
	row := s.Buffer[y]
	for i := 0; i < n; i++ {
		for j := x; j < s.Cols-1; j++ {
			row[j] = row[j+1]
		}
		row[s.Cols-1] = BlankCell()
	}
	s.fixOrphans(y)
}

// SaveCursor records the cursor (including a pending wrap) for DECSC.
func (s *Screen) SaveCursor() {
	s.savedCursor = &[2]int{s.CursorX, s.CursorY}
}

// RestoreCursor restores the DECSC cursor if one was saved.
func (s *Screen) RestoreCursor() {
	if s.savedCursor != nil {
		s.CursorX = min(s.savedCursor[0], s.Cols)
		s.CursorY = min(s.savedCursor[1], s.Rows-1)
	}
}

// SaveScreen snapshots the buffer and cursor before an app switches to the
// alternate screen.
func (s *Screen) SaveScreen() {
	buf := make([][]Cell, s.Rows)
	for y := range s.Buffer {
		buf[y] = append([]Cell(nil), s.Buffer[y]...)
	}
	s.savedBuffer = buf
	s.savedBufCursor = &[2]int{s.CursorX, s.CursorY}
}

// RestoreScreen restores the snapshot taken by SaveScreen, if any.
func (s *Screen) RestoreScreen() {
	if s.savedBuffer != nil {
		s.Buffer = s.savedBuffer
		s.savedBuffer = nil
		if len(s.Buffer) != s.Rows || (s.Rows > 0 && len(s.Buffer[0]) != s.Cols) {
			// Window changed size while the alternate screen was active.
			saved := s.Buffer
			s.Buffer = blankRows(s.Cols, s.Rows)
			for y := 0; y < min(len(saved), s.Rows); y++ {
				copy(s.Buffer[y], saved[y][:min(len(saved[y]), s.Cols)])
			}
		}
	}
	if s.savedBufCursor != nil {
		s.CursorX = min(s.savedBufCursor[0], s.Cols)
		s.CursorY = min(s.savedBufCursor[1], s.Rows-1)
		s.savedBufCursor = nil
	}
}

// Reset reverts to a blank full-screen grid (RIS).
func (s *Screen) Reset() {
	s.Clear()
	s.CursorX, s.CursorY = 0, 0
	s.hasRegion = false
	s.savedCursor = nil
	s.savedBuffer = nil
	s.savedBufCursor = nil
}

// clampedCursor returns the cursor with a pending wrap pinned to the last
// column, for row edits that need a real cell position.
func (s *Screen) clampedCursor() (x, y int) {
	x = min(s.CursorX, s.Cols-1)
	y = min(s.CursorY, s.Rows-1)
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

// fixOrphans clears continuation cells whose wide base is gone, and wide
// bases whose continuation slot was overwritten.
func (s *Screen) fixOrphans(y int) {
	row := s.Buffer[y]
	for x := 0; x < s.Cols; x++ {
		if row[x].WideContinuation {
			if x == 0 || row[x-1].WideContinuation || cellWidth(row[x-1].Ch) != 2 {
				row[x].Clear()
			}
		} else if cellWidth(row[x].Ch) == 2 {
			if x+1 >= s.Cols || !row[x+1].WideContinuation {
				row[x].Clear()
			}
		}
	}
}
