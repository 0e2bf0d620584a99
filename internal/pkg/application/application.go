package application

import (
	"context"
	"fmt"
	"time"

	"github.com/diwise/context-broker/pkg/ngsild/client"
	"github.com/diwise/jeti-telemetry/domain"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/chart"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/fiware"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/influx"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/jetilog"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/senmlpack"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/summary"
	"github.com/diwise/jeti-telemetry/internal/pkg/infrastructure/logfile"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
)

type TelemetryApp interface {
	Load(ctx context.Context, path string) (*domain.Dataset, jetilog.Report, error)
	Decode(ctx context.Context, text string) (*domain.Dataset, jetilog.Report)
	Summarize(ds *domain.Dataset) []summary.ChannelSummary
	Plot(ds *domain.Dataset, device string, channel int, out string) error
	ExportSenML(ctx context.Context, ds *domain.Dataset, url string) error
	ExportInflux(ctx context.Context, ds *domain.Dataset, url, database string) error
	Publish(ctx context.Context, ds *domain.Dataset) error
}

type Config struct {
	Shards        int
	Start         time.Time
	ContextBroker client.ContextBrokerClient
	SenMLSender   senmlpack.SenderFunc
}

type telemetryApp struct {
	shards        int
	start         time.Time
	contextBroker client.ContextBrokerClient
	sender        senmlpack.SenderFunc
}

var tracer = otel.Tracer("jeti-telemetry/app")

func New(cfg Config) TelemetryApp {
	app := &telemetryApp{
		shards:        cfg.Shards,
		start:         cfg.Start,
		contextBroker: cfg.ContextBroker,
		sender:        cfg.SenMLSender,
	}

	if app.start.IsZero() {
		app.start = time.Now().UTC()
	}
	if app.sender == nil {
		app.sender = senmlpack.Send
	}

	return app
}

func (a *telemetryApp) Load(ctx context.Context, path string) (*domain.Dataset, jetilog.Report, error) {
	var err error

	ctx, span := tracer.Start(ctx, "load-log")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var text string
	text, err = logfile.Read(ctx, path)
	if err != nil {
		return nil, jetilog.Report{}, err
	}

	logger := logging.GetFromContext(ctx)
	logger.Debug().Str("path", path).Int("bytes", len(text)).Msg("log file read")

	ds, report := a.Decode(ctx, text)

	return ds, report, nil
}

func (a *telemetryApp) Decode(ctx context.Context, text string) (*domain.Dataset, jetilog.Report) {
	return jetilog.Parse(ctx, text, jetilog.WithShards(a.shards))
}

func (a *telemetryApp) Summarize(ds *domain.Dataset) []summary.ChannelSummary {
	return summary.Summarize(ds)
}

func (a *telemetryApp) Plot(ds *domain.Dataset, device string, channel int, out string) error {
	return chart.Save(ds, device, channel, out)
}

func (a *telemetryApp) ExportSenML(ctx context.Context, ds *domain.Dataset, url string) error {
	if url == "" {
		return fmt.Errorf("no senml endpoint configured")
	}
	return senmlpack.CreateAndSend(ctx, ds, a.start, url, a.sender)
}

func (a *telemetryApp) ExportInflux(ctx context.Context, ds *domain.Dataset, url, database string) error {
	if url == "" {
		return fmt.Errorf("no influx url configured")
	}

	e, err := influx.New(url, database)
	if err != nil {
		return err
	}
	defer e.Close()

	return e.Export(ctx, ds, a.start)
}

func (a *telemetryApp) Publish(ctx context.Context, ds *domain.Dataset) error {
	if a.contextBroker == nil {
		return fmt.Errorf("no context broker configured")
	}
	return fiware.CreateOrUpdateDevices(ctx, a.contextBroker, ds, a.start)
}
