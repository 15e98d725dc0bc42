// Package review holds the inspection cursor the user moves over the
// screen grid, independent of the program's own cursor.
package review

// Cursor is a position over the grid plus the bounds it is clamped to.
type Cursor struct {
	X, Y int

	Cols, Rows int

	// Anchor is the selection start, nil when no selection is active.
	Anchor *[2]int
}

// NewCursor returns a cursor at the top-left of a cols x rows grid.
func NewCursor(cols, rows int) *Cursor {
	return &Cursor{Cols: cols, Rows: rows}
}

// Resize updates the bounds and clamps the position into them.
func (c *Cursor) Resize(cols, rows int) {
	c.Cols = cols
	c.Rows = rows
	if c.X > cols-1 {
		c.X = cols - 1
	}
	if c.Y > rows-1 {
		c.Y = rows - 1
	}
	if c.Anchor != nil {
		if c.Anchor[0] > cols-1 {
			c.Anchor[0] = cols - 1
		}
		if c.Anchor[1] > rows-1 {
			c.Anchor[1] = rows - 1
		}
	}
}

// StartSelection places the anchor at the current position.
func (c *Cursor) StartSelection() {
	c.Anchor = &[2]int{c.X, c.Y}
}

// ClearSelection drops the anchor.
func (c *Cursor) ClearSelection() {
	c.Anchor = nil
}

// HasSelection reports whether an anchor is set.
func (c *Cursor) HasSelection() bool {
	return c.Anchor != nil
}
