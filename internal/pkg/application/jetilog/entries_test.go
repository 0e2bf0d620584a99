package jetilog

import (
	"testing"

	"github.com/matryer/is"
)

func TestFixedPointDecoding(t *testing.T) {
	is := is.New(t)

	is.Equal(FixedPoint(12345, 2), 123.45)
	is.Equal(FixedPoint(-500, 1), -50.0)
	is.Equal(FixedPoint(7, 0), 7.0)
	is.Equal(FixedPoint(-1, 3), -0.001)
	is.Equal(FixedPoint(1, 23), 1e-23)
	is.Equal(FixedPoint(9007199254740993, 0), 9007199254740992.0)
}

func TestThatSplitLinesHandlesAllLineEndings(t *testing.T) {
	is := is.New(t)

	is.Equal(splitLines("a\nb\r\nc\rd"), []string{"a", "b", "c", "d"})
	is.Equal(splitLines("a\n\nb\n"), []string{"a", "", "b"})
	is.Equal(len(splitLines("")), 0)
	is.Equal(splitLines("a\vb\fc\x1cd\x1de\x1ef"), []string{"a", "b", "c", "d", "e", "f"})
	is.Equal(splitLines("a\u0085b\u2028c\u2029d"), []string{"a", "b", "c", "d"})
	is.Equal(splitLines("a\r\rb"), []string{"a", "", "b"})
	is.Equal(splitLines("M\uFFFDB\nx"), []string{"M\uFFFDB", "x"})
}
