package fiware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/diwise/context-broker/pkg/ngsild/client"
	ngsierrors "github.com/diwise/context-broker/pkg/ngsild/errors"
	"github.com/diwise/context-broker/pkg/ngsild/types"
	"github.com/diwise/context-broker/pkg/ngsild/types/entities"
	. "github.com/diwise/context-broker/pkg/ngsild/types/entities/decorators"
	"github.com/diwise/context-broker/pkg/ngsild/types/properties"
	"github.com/diwise/jeti-telemetry/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("jeti-telemetry/fiware")

const (
	DeviceIDPrefix string = "urn:ngsi-ld:Device:"
	DeviceTypeName string = "Device"
)

// CreateOrUpdateDevices publishes the last decoded value of every channel as one entity per device.
func CreateOrUpdateDevices(ctx context.Context, cbClient client.ContextBrokerClient, ds *domain.Dataset, start time.Time) error {
	var errs []error

	for _, d := range ds.Devices() {
		if err := createOrUpdateDevice(ctx, cbClient, d, start); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func createOrUpdateDevice(ctx context.Context, cbClient client.ContextBrokerClient, d *domain.Device, start time.Time) error {
	var err error

	ctx, span := tracer.Start(ctx, "create-or-update-device")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, ctx, logger := o11y.AddTraceIDToLoggerAndStoreInContext(span, logging.GetFromContext(ctx), ctx)

	headers := map[string][]string{"Content-Type": {"application/ld+json"}}

	decorators := []entities.EntityDecoratorFunc{
		entities.DefaultContext(),
		Text("name", d.Name()),
	}

	readings, latest := createFragmentsFromChannels(d, start)
	if len(readings) == 0 {
		logger.Debug().Str("device", d.Name()).Msg("no samples to publish")
		return nil
	}

	decorators = append(decorators, DateTime(properties.DateObserved, observedAt(start, latest)))
	decorators = append(decorators, readings...)

	entityID := DeviceIDPrefix + d.Name()

	var fragment types.EntityFragment
	fragment, err = entities.NewFragment(decorators...)
	if err != nil {
		err = fmt.Errorf("failed to create entity fragment: %w", err)
		return err
	}

	_, err = cbClient.MergeEntity(ctx, entityID, fragment, headers)
	if err == nil {
		logger.Info().Msgf("updated entity %s", entityID)
		return nil
	}

	if !errors.Is(err, ngsierrors.ErrNotFound) {
		logger.Error().Err(err).Msg("failed to merge entity")
		return err
	}

	var entity types.Entity
	entity, err = entities.New(entityID, DeviceTypeName, decorators...)
	if err != nil {
		err = fmt.Errorf("failed to create new entity: %w", err)
		return err
	}

	_, err = cbClient.CreateEntity(ctx, entity, headers)
	if err != nil {
		logger.Error().Err(err).Msg("failed to post entity to context broker")
		return err
	}

	logger.Info().Msgf("created entity %s", entityID)

	return nil
}

func createFragmentsFromChannels(d *domain.Device, start time.Time) ([]entities.EntityDecoratorFunc, int64) {
	readings := []entities.EntityDecoratorFunc{}
	used := map[string]bool{}

	var latest int64

	for _, c := range d.Channels() {
		series, _ := d.Series(c.ID)
		if len(series) == 0 {
			continue
		}

		last := series[len(series)-1]
		if len(readings) == 0 || last.Timestamp > latest {
			latest = last.Timestamp
		}

		name := PropertyName(c.Descriptor.Name)
		if name == "" || used[name] {
			name = name + "Channel" + strconv.Itoa(c.ID)
		}
		used[name] = true

		ts := observedAt(start, last.Timestamp)

		if code, ok := unitCodes[c.Descriptor.UnitOrEmpty()]; ok {
			readings = append(readings, Number(name, last.Value, properties.UnitCode(code), properties.ObservedAt(ts)))
		} else {
			readings = append(readings, Number(name, last.Value, properties.ObservedAt(ts)))
		}
	}

	return readings, latest
}

func observedAt(start time.Time, ms int64) string {
	return start.Add(time.Duration(ms) * time.Millisecond).UTC().Format(time.RFC3339Nano)
}

// PropertyName turns a channel name such as "Rx Voltage" into "rxVoltage".
func PropertyName(channelName string) string {
	words := strings.FieldsFunc(channelName, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	b := strings.Builder{}
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if i > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}

	name := b.String()
	if name != "" && unicode.IsDigit([]rune(name)[0]) {
		name = "ch" + name
	}

	return name
}

var unitCodes map[string]string = map[string]string{
	"m":    "MTR",
	"km":   "KMT",
	"m/s":  "MTS",
	"km/h": "KMH",
	"V":    "VLT",
	"A":    "AMP",
	"mAh":  "E09",
	"W":    "WTT",
	"°C":   "CEL",
	"%":    "P1",
	"hPa":  "A97",
	"rpm":  "RPM",
	"°":    "DD",
	"s":    "SEC",
}
