package vm

// cursor is the bookkeeping shared by NamedStack and EvalStack: the top of
// the live region of a fixed buffer plus at most one snapshot.
//
// While saved, entries below save belong to the snapshot. Writing below save
// moves the write position up to save and records where it came from in
// jump. The range [jump, save) is the hole: snapshot data that later scans
// must skip but that restore brings back.
type cursor struct {
	name  string
	cap   int
	pos   int
	save  int
	jump  int
	saved bool
}

func newCursor(name string, capacity int) cursor {
	return cursor{name: name, cap: capacity}
}

// reserve claims the slot for one new entry and returns its index.
func (c *cursor) reserve(op string) int {
	// don't overwrite saved data; resume above it
	if c.saved && c.pos < c.save {
		c.jump = c.pos
		c.pos = c.save
	}
	if c.pos >= c.cap {
		fatal(c.name, op, ErrStackOverflow)
	}
	c.pos++
	return c.pos - 1
}

// step returns the next index to examine below position i, jumping over the
// hole, or -1 when the bottom is reached.
func (c *cursor) step(i int) int {
	if c.saved && i == c.save {
		i = c.jump
	}
	return i - 1
}

// top returns the logical top: pos, unless pos sits on the snapshot
// boundary with a hole beneath it.
func (c *cursor) top() int {
	if c.saved && c.pos == c.save {
		return c.jump
	}
	return c.pos
}

// markLen is the length of the span that must survive collection: a
// snapshot keeps everything below save alive even when pos is lower.
func (c *cursor) markLen() int {
	if !c.saved || c.pos > c.save {
		return c.pos
	}
	return c.save
}

func (c *cursor) reset() {
	c.pos, c.save, c.jump = 0, 0, 0
	c.saved = false
}

func (c *cursor) snapshot() error {
	if c.saved {
		return &StackError{Stack: c.name, Op: "save", Err: ErrDoubleSave}
	}
	c.save, c.jump = c.pos, c.pos
	c.saved = true
	return nil
}

func (c *cursor) restore() error {
	if !c.saved {
		return &StackError{Stack: c.name, Op: "restore", Err: ErrRestoreWithoutSave}
	}
	c.pos = c.save
	c.save, c.jump = 0, 0
	c.saved = false
	return nil
}

// forget drops the snapshot and returns the hole [lo, hi) the caller must
// invalidate so scans never resurrect it. lo == hi when there is none.
func (c *cursor) forget() (lo, hi int, err error) {
	if !c.saved {
		return 0, 0, &StackError{Stack: c.name, Op: "forget", Err: ErrForgetWithoutSave}
	}

	top := c.top()
	if c.jump < c.save && top > c.jump {
		lo, hi = c.jump, c.save
	}

	c.pos = top
	c.save, c.jump = 0, 0
	c.saved = false
	return lo, hi, nil
}

func (c *cursor) threading(op string) error {
	if c.saved {
		return &StackError{Stack: c.name, Op: op, Err: ErrThreadingWhileSnapshotted}
	}
	return nil
}
