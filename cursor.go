package htmlclean

// cursor is a position in the input being scanned.
type cursor struct {
	src string
	off int
	// limit is the exclusive upper bound for off: the clip offset or
	// len(src).
	limit int
}

func newCursor(src string, limit int) cursor {
	if limit <= 0 || limit > len(src) {
		limit = len(src)
	}
	return cursor{src: src, limit: limit}
}

func (c *cursor) eof() bool { return c.off >= c.limit }

// peek returns the current byte, or 0 at the limit.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.off]
}

// peekAt returns the byte n positions ahead, or 0 past the limit.
func (c *cursor) peekAt(n int) byte {
	if c.off+n >= c.limit {
		return 0
	}
	return c.src[c.off+n]
}

func (c *cursor) bump() byte {
	if c.eof() {
		return 0
	}
	b := c.src[c.off]
	c.off++
	return b
}

// eat consumes the next byte if it is b.
func (c *cursor) eat(b byte) bool {
	if !c.eof() && c.src[c.off] == b {
		c.off++
		return true
	}
	return false
}

// skipSpace consumes HTML whitespace.
func (c *cursor) skipSpace() {
	for !c.eof() && isSpace(c.src[c.off]) {
		c.off++
	}
}

// hasPrefix reports whether the unread input up to the limit starts
// with s.
func (c *cursor) hasPrefix(s string) bool {
	return c.off+len(s) <= c.limit && c.src[c.off:c.off+len(s)] == s
}

// from returns the text between off and the current position.
func (c *cursor) from(off int) string { return c.src[off:c.off] }

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
