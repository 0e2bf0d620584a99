package jetilog

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedLine    = errors.New("malformed line")
	ErrUnknownReference = errors.New("unknown device or channel")
)

// Outcome classifies what a single log line did to the dataset.
type Outcome int

const (
	SkippedComment Outcome = iota
	SkippedNotMetadata
	SkippedMetadata
	DeviceDeclared
	ChannelDeclared
	Applied
	SkippedMalformed
	SkippedUnknownReference
)

func (o Outcome) String() string {
	switch o {
	case SkippedComment:
		return "comment"
	case SkippedNotMetadata:
		return "not-metadata"
	case SkippedMetadata:
		return "metadata"
	case DeviceDeclared:
		return "device-declared"
	case ChannelDeclared:
		return "channel-declared"
	case Applied:
		return "applied"
	case SkippedMalformed:
		return "malformed"
	case SkippedUnknownReference:
		return "unknown-reference"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Counts map[Outcome]int

// Report counts per-line outcomes of both passes.
type Report struct {
	Metadata       Counts
	Entries        Counts
	Devices        int
	Samples        int
	DroppedSamples int
}

func newReport() Report {
	return Report{
		Metadata: Counts{},
		Entries:  Counts{},
	}
}
