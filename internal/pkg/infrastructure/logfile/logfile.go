package logfile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var tracer = otel.Tracer("jeti-telemetry/logfile")

// Read returns the whole file as text. Invalid UTF-8 is replaced with U+FFFD instead of failing the read.
func Read(ctx context.Context, path string) (string, error) {
	var err error

	_, span := tracer.Start(ctx, "read-log-file")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var f *os.File
	f, err = os.Open(path)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return "", err
	}
	defer f.Close()

	var text string
	text, err = Decode(f)
	if err != nil {
		err = fmt.Errorf("failed to read log file %s: %w", path, err)
		return "", err
	}

	return text, nil
}

func Decode(r io.Reader) (string, error) {
	b, err := io.ReadAll(transform.NewReader(r, unicode.UTF8.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
