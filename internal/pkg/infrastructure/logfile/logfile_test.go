package logfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestThatInvalidBytesAreReplaced(t *testing.T) {
	is := is.New(t)

	text, err := Decode(bytes.NewReader([]byte("000000000;7;0;MH\xffB\n")))
	is.NoErr(err)
	is.True(strings.Contains(text, "MH�B"))
}

func TestThatReadReturnsFileContents(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "flight.log")
	is.NoErr(os.WriteFile(path, []byte("# header\n1000;7;15;0;2;12345\n"), 0o600))

	text, err := Read(context.Background(), path)
	is.NoErr(err)
	is.Equal(text, "# header\n1000;7;15;0;2;12345\n")
}

func TestThatReadFailsOnMissingFile(t *testing.T) {
	is := is.New(t)

	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "missing.log"))
	is.True(err != nil)
}
