package jetilog

import (
	"fmt"
	"strings"

	"github.com/diwise/jeti-telemetry/domain"
)

// Registry maps the numeric device ids of one log to device names. It only lives
// for the duration of a parse and is never part of the returned dataset.
type Registry struct {
	names   map[int]string
	builder *domain.Builder
}

func newRegistry(b *domain.Builder) *Registry {
	return &Registry{
		names:   map[int]string{},
		builder: b,
	}
}

// DeviceName resolves a device id. An id declared with an empty name does not resolve.
func (r *Registry) DeviceName(deviceID int) (string, bool) {
	name, ok := r.names[deviceID]
	return name, ok && name != ""
}

func (r *Registry) HasChannel(deviceName string, channelID int) bool {
	return r.builder.HasChannel(deviceName, channelID)
}

// declare applies a single metadata line. Lines that are not metadata are reported
// as such and leave the registry untouched.
func (r *Registry) declare(line string) (Outcome, error) {
	if isComment(line) {
		return SkippedComment, nil
	}

	fields := strings.Split(line, fieldSeparator)
	if len(fields) < minMetadataField || fields[0] != metadataMarker {
		return SkippedNotMetadata, nil
	}

	deviceID, err := parseInt(fields[1])
	if err != nil {
		return SkippedMalformed, fmt.Errorf("%w: device id %q", ErrMalformedLine, fields[1])
	}

	channelID, err := parseInt(fields[2])
	if err != nil {
		return SkippedMalformed, fmt.Errorf("%w: channel id %q", ErrMalformedLine, fields[2])
	}

	name := strings.TrimSpace(fields[3])

	if channelID == 0 {
		r.names[deviceID] = name
		r.builder.DeclareDevice(name)
		return DeviceDeclared, nil
	}

	deviceName, ok := r.DeviceName(deviceID)
	if !ok {
		return SkippedUnknownReference, fmt.Errorf("%w: channel %d declared for device id %d", ErrUnknownReference, channelID, deviceID)
	}

	c := domain.ChannelDescriptor{Name: name}
	if len(fields) > minMetadataField {
		unit := strings.TrimSpace(fields[4])
		c.Unit = &unit
	}

	r.builder.DeclareChannel(deviceName, channelID, c)

	return ChannelDeclared, nil
}
