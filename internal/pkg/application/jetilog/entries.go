package jetilog

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/diwise/jeti-telemetry/domain"
)

// maxDecimalPlaces bounds the exponent, anything larger underflows every int64 mantissa to zero.
const maxDecimalPlaces int = 400

type stride struct {
	channelID int
	places    int
	raw       int64
}

type resolved struct {
	device  string
	channel int
	sample  domain.Sample
}

type entry struct {
	outcome Outcome
	samples []resolved
	dropped int
}

// decodeEntry resolves one data line against a completed registry. Nothing is
// applied here, the caller appends the resolved samples.
func decodeEntry(r *Registry, line string) (entry, error) {
	if isComment(line) {
		return entry{outcome: SkippedComment}, nil
	}

	fields := strings.Split(line, fieldSeparator)
	if fields[0] == metadataMarker {
		return entry{outcome: SkippedMetadata}, nil
	}

	if len(fields) < minEntryFields {
		return entry{outcome: SkippedMalformed}, fmt.Errorf("%w: %d fields, need at least %d", ErrMalformedLine, len(fields), minEntryFields)
	}

	timestamp, err := parseInt64(fields[0])
	if err != nil {
		return entry{outcome: SkippedMalformed}, fmt.Errorf("%w: timestamp %q", ErrMalformedLine, fields[0])
	}

	deviceID, err := parseInt(fields[1])
	if err != nil {
		return entry{outcome: SkippedMalformed}, fmt.Errorf("%w: device id %q", ErrMalformedLine, fields[1])
	}

	strides, err := parseStrides(fields[2:])
	if err != nil {
		return entry{outcome: SkippedMalformed}, err
	}

	deviceName, ok := r.DeviceName(deviceID)
	if !ok {
		return entry{outcome: SkippedUnknownReference, dropped: len(strides)},
			fmt.Errorf("%w: device id %d", ErrUnknownReference, deviceID)
	}

	e := entry{outcome: Applied}

	for _, s := range strides {
		if !r.HasChannel(deviceName, s.channelID) {
			e.dropped++
			continue
		}

		e.samples = append(e.samples, resolved{
			device:  deviceName,
			channel: s.channelID,
			sample: domain.Sample{
				Timestamp: timestamp,
				Value:     FixedPoint(s.raw, s.places),
			},
		})
	}

	if len(e.samples) == 0 {
		e.outcome = SkippedUnknownReference
		return e, fmt.Errorf("%w: no declared channel on device %q", ErrUnknownReference, deviceName)
	}

	return e, nil
}

// parseStrides walks [channel, type, decimals, raw] groups. A trailing partial group is ignored.
func parseStrides(fields []string) ([]stride, error) {
	strides := make([]stride, 0, len(fields)/sampleStride)

	for i := 0; i+sampleStride <= len(fields); i += sampleStride {
		channelID, err := parseInt(fields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: channel id %q", ErrMalformedLine, fields[i])
		}

		places, err := parseInt(fields[i+2])
		if err != nil || places < 0 || places > maxDecimalPlaces {
			return nil, fmt.Errorf("%w: decimal places %q", ErrMalformedLine, fields[i+2])
		}

		raw, err := parseInt64(fields[i+3])
		if err != nil {
			return nil, fmt.Errorf("%w: value %q", ErrMalformedLine, fields[i+3])
		}

		strides = append(strides, stride{channelID: channelID, places: places, raw: raw})
	}

	return strides, nil
}

// FixedPoint returns raw / 10^places rounded to the nearest float64.
func FixedPoint(raw int64, places int) float64 {
	const exact = 1 << 53

	if places <= 22 && raw > -exact && raw < exact {
		// both operands are exact, so a single IEEE division is correctly rounded
		return float64(raw) / math.Pow10(places)
	}

	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	f, _ := new(big.Rat).SetFrac(big.NewInt(raw), den).Float64()

	return f
}
