package influx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/diwise/jeti-telemetry/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	client "github.com/influxdata/influxdb/client/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("jeti-telemetry/influx")

const Measurement string = "telemetry"

type Exporter interface {
	Export(ctx context.Context, ds *domain.Dataset, start time.Time) error
	Close() error
}

type exporter struct {
	client   client.Client
	database string
}

func New(url, database string) (Exporter, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{Addr: url})
	if err != nil {
		return nil, fmt.Errorf("failed to create influx client: %w", err)
	}

	return &exporter{
		client:   c,
		database: database,
	}, nil
}

func (e *exporter) Close() error {
	return e.client.Close()
}

// Export writes one batch per device. Devices without samples are skipped.
func (e *exporter) Export(ctx context.Context, ds *domain.Dataset, start time.Time) error {
	logger := logging.GetFromContext(ctx)

	var errs []error

	for _, d := range ds.Devices() {
		err := e.write(ctx, d, start)
		if err != nil {
			logger.Error().Err(err).Str("device", d.Name()).Msg("could not write points")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *exporter) write(ctx context.Context, d *domain.Device, start time.Time) error {
	var err error

	_, span := tracer.Start(ctx, "write-points")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var points []*client.Point
	points, err = NewPoints(d, start)
	if err != nil || len(points) == 0 {
		return err
	}

	var bp client.BatchPoints
	bp, err = client.NewBatchPoints(client.BatchPointsConfig{
		Database:  e.database,
		Precision: "ms",
	})
	if err != nil {
		return err
	}

	bp.AddPoints(points)

	err = e.client.Write(bp)
	if err != nil {
		err = fmt.Errorf("failed to write %d points: %w", len(points), err)
	}

	return err
}

// NewPoints converts every sample of a device into a point tagged with device and channel.
func NewPoints(d *domain.Device, start time.Time) ([]*client.Point, error) {
	points := []*client.Point{}

	for _, c := range d.Channels() {
		series, _ := d.Series(c.ID)

		tags := map[string]string{
			"device":  d.Name(),
			"channel": strconv.Itoa(c.ID),
			"name":    c.Descriptor.Name,
		}
		if unit := c.Descriptor.UnitOrEmpty(); unit != "" {
			tags["unit"] = unit
		}

		for _, s := range series {
			fields := map[string]interface{}{
				"value": s.Value,
			}

			pt, err := client.NewPoint(Measurement, tags, fields, start.Add(time.Duration(s.Timestamp)*time.Millisecond))
			if err != nil {
				return nil, err
			}

			points = append(points, pt)
		}
	}

	return points, nil
}
