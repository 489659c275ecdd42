package search

// Cursor tracks the highlighted row of a rendered result list. Position
// -1 means nothing is highlighted; movement clamps to [-1, count-1].
type Cursor struct {
	pos   int
	count int
}

// NewCursor returns a cursor over count rows with nothing highlighted.
func NewCursor(count int) Cursor {
	return Cursor{pos: -1, count: count}
}

// Reset rebinds the cursor to a freshly rendered list of count rows and
// clears the highlight.
func (c *Cursor) Reset(count int) {
	c.pos = -1
	c.count = count
}

// Down moves the highlight one row down, stopping at the last row. On an
// empty list the cursor stays at -1.
func (c *Cursor) Down() {
	if c.pos < c.count-1 {
		c.pos++
	}
}

// Up moves the highlight one row up, stopping at -1.
func (c *Cursor) Up() {
	if c.pos > -1 {
		c.pos--
	}
}

// Pos returns the highlighted row, or -1 when nothing is highlighted.
func (c *Cursor) Pos() int {
	return c.pos
}

// Active reports whether a row is highlighted.
func (c *Cursor) Active() bool {
	return c.pos >= 0
}
