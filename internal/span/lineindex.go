// Package span converts byte offsets into line/column positions for
// diagnostics rendering.
package span

import "sort"

// LineIndex provides efficient byte offset to line/column conversion.
// It pre-computes line start positions for O(log n) lookups.
type LineIndex struct {
	source     string
	lineStarts []int // byte offset of each line start
}

// NewLineIndex builds a LineIndex over source.
func NewLineIndex(source string) *LineIndex {
	idx := &LineIndex{
		source:     source,
		lineStarts: []int{0},
	}

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case c == '\n':
			if next := i + 1; next < len(source) {
				idx.lineStarts = append(idx.lineStarts, next)
			}
		case c == '\r':
			if i+1 < len(source) && source[i+1] == '\n' {
				if next := i + 2; next < len(source) {
					idx.lineStarts = append(idx.lineStarts, next)
				}
				i++
			} else if next := i + 1; next < len(source) {
				idx.lineStarts = append(idx.lineStarts, next)
			}
		}
	}

	return idx
}

// LineCount returns the number of lines in the source.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// ByteOffsetToLineColumn converts a byte offset to a 0-indexed line and
// column. The column is in bytes.
func (idx *LineIndex) ByteOffsetToLineColumn(offset int) (line, col int) {
	if offset < 0 {
		return 0, 0
	}
	if offset >= len(idx.source) {
		if len(idx.source) == 0 {
			return 0, 0
		}
		offset = len(idx.source)
	}

	line = sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}

	col = offset - idx.lineStarts[line]
	return line, col
}

// LineColumnToByteOffset converts a 0-indexed line and column (in bytes)
// back to a byte offset, clamped to the source bounds.
func (idx *LineIndex) LineColumnToByteOffset(line, col int) int {
	if line < 0 {
		line = 0
	}
	if line >= len(idx.lineStarts) {
		line = len(idx.lineStarts) - 1
	}

	offset := idx.lineStarts[line] + col
	if offset < 0 {
		return 0
	}
	if offset > len(idx.source) {
		return len(idx.source)
	}
	return offset
}

// Source returns the indexed source text.
func (idx *LineIndex) Source() string {
	return idx.source
}
