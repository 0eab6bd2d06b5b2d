package yamlerr

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrOutOfRange is returned when a line/column pair or a byte offset does not
// address a character of the document text.
var ErrOutOfRange = errors.New("location out of range")

func outOfRange(line, column int) error {
	return fmt.Errorf("%w: line %d column %d", ErrOutOfRange, line, column)
}

// ResolveOffset converts a 1-based line and a 1-based column, counted in
// characters, into the 0-based byte offset of that character in text.
//
// Line terminators are "\r\n", "\n" and a lone "\r"; each ends exactly one
// line. Column 1 of an empty line resolves to the byte right after the
// preceding terminator. Positions past the end of a line or of the text fail
// with ErrOutOfRange instead of being clamped.
func ResolveOffset(text string, line, column int) (int, error) {
	if line < 1 || column < 1 {
		return 0, outOfRange(line, column)
	}

	offset := 0
	for current := 1; current < line; current++ {
		next, ok := nextLineStart(text, offset)
		if !ok {
			return 0, outOfRange(line, column)
		}
		offset = next
	}

	lineStart := offset
	for current := 1; current < column; current++ {
		if offset >= len(text) || terminatorWidth(text, offset) > 0 {
			return 0, outOfRange(line, column)
		}
		_, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
	}

	if offset >= len(text) {
		return 0, outOfRange(line, column)
	}
	// Only an empty line may be addressed by its terminator.
	if offset != lineStart && terminatorWidth(text, offset) > 0 {
		return 0, outOfRange(line, column)
	}

	return offset, nil
}

// LineColumn is the inverse of ResolveOffset: it returns the 1-based line and
// character column of the character starting at offset.
func LineColumn(text string, offset int) (line int, column int, err error) {
	if offset < 0 || offset >= len(text) {
		return 0, 0, fmt.Errorf("%w: offset %d", ErrOutOfRange, offset)
	}

	line, column = 1, 1
	for i := 0; i <= offset; {
		if i == offset {
			return line, column, nil
		}
		if width := terminatorWidth(text, i); width > 0 {
			i += width
			line++
			column = 1
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
		column++
	}

	// offset falls inside a multi-byte character or a "\r\n" pair
	return 0, 0, fmt.Errorf("%w: offset %d is not on a character boundary", ErrOutOfRange, offset)
}

// CharWidth returns the number of bytes taken by the character or line
// terminator starting at offset, or 0 when offset is outside text.
func CharWidth(text string, offset int) int {
	if offset < 0 || offset >= len(text) {
		return 0
	}
	if width := terminatorWidth(text, offset); width > 0 {
		return width
	}
	_, size := utf8.DecodeRuneInString(text[offset:])
	return size
}

// nextLineStart returns the offset following the first line terminator at or
// after offset.
func nextLineStart(text string, offset int) (int, bool) {
	for i := offset; i < len(text); i++ {
		if width := terminatorWidth(text, i); width > 0 {
			return i + width, true
		}
	}
	return 0, false
}

func terminatorWidth(text string, i int) int {
	switch text[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 < len(text) && text[i+1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}
