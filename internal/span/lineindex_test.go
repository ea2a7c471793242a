package span

import (
	"testing"

	"github.com/vellum-lang/vellumc/internal/test"
)

func TestLineIndexSingleLine(t *testing.T) {
	idx := NewLineIndex("let x = 1;")
	line, col := idx.ByteOffsetToLineColumn(4)
	test.AssertEqual(t, line, 0)
	test.AssertEqual(t, col, 4)
}

func TestLineIndexMultiLine(t *testing.T) {
	src := "let x = 1;\nlet y = 2;\nreturn x + y;"
	idx := NewLineIndex(src)
	test.AssertEqual(t, idx.LineCount(), 3)

	line, col := idx.ByteOffsetToLineColumn(15) // 'y' in second line
	test.AssertEqual(t, line, 1)
	test.AssertEqual(t, col, 4)

	back := idx.LineColumnToByteOffset(line, col)
	test.AssertEqual(t, back, 15)
}

func TestLineIndexClampsOutOfRange(t *testing.T) {
	idx := NewLineIndex("abc")
	line, col := idx.ByteOffsetToLineColumn(1000)
	test.AssertEqual(t, line, 0)
	test.AssertEqual(t, col, 3)
}

func TestSpanJoin(t *testing.T) {
	got := Join(Span{Start: 5, End: 10}, Span{Start: 2, End: 7})
	test.AssertEqual(t, got, Span{Start: 2, End: 10})
}

func TestSpanJoinWithZero(t *testing.T) {
	got := Join(None, Span{Start: 2, End: 7})
	test.AssertEqual(t, got, Span{Start: 2, End: 7})
}
