package source

import "unicode/utf8"

// UTF16Cursor converts UTF-16 code-unit offsets into byte offsets of a
// string. Queries in ascending order are answered in amortized O(1); a
// query behind the cursor restarts from the beginning.
type UTF16Cursor struct {
	text  string
	bytes int
	units int
}

// NewUTF16Cursor returns a cursor positioned at the start of text.
func NewUTF16Cursor(text string) *UTF16Cursor {
	return &UTF16Cursor{text: text}
}

// ByteOffset returns the byte offset of the given UTF-16 offset. An offset
// that falls inside a surrogate pair resolves to the start of that rune;
// offsets past the end resolve to len(text).
func (c *UTF16Cursor) ByteOffset(units int) int {
	if units <= 0 {
		c.bytes, c.units = 0, 0
		return 0
	}
	if units < c.units {
		c.bytes, c.units = 0, 0
	}
	for c.bytes < len(c.text) && c.units < units {
		r, size := utf8.DecodeRuneInString(c.text[c.bytes:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if c.units+need > units {
			break
		}
		c.units += need
		c.bytes += size
	}
	return c.bytes
}

// UTF16Len returns the number of UTF-16 code units in s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
