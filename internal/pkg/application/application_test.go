package application

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diwise/jeti-telemetry/internal/pkg/application/jetilog"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/farshidtz/senml/v2"
	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var method = expects.RequestMethod

func TestThatLoadDecodesLogFile(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "flight.log")
	is.NoErr(os.WriteFile(path, []byte(flightLog), 0o600))

	app := newTestApp(Config{Shards: 2})

	ds, report, err := app.Load(context.Background(), path)
	is.NoErr(err)
	is.Equal(ds.DeviceNames(), []string{"MHB"})
	is.Equal(report.Samples, 2)
	is.Equal(report.Entries[jetilog.SkippedMalformed], 1)

	summaries := app.Summarize(ds)
	is.Equal(len(summaries), 2)
	is.Equal(summaries[0].Samples, 2)
}

func TestThatLoadFailsIfFileIsMissing(t *testing.T) {
	is := is.New(t)

	app := newTestApp(Config{})

	ds, _, err := app.Load(context.Background(), filepath.Join(t.TempDir(), "nope.log"))
	is.True(err != nil)
	is.True(ds == nil)
}

func TestThatExportSenMLUsesConfiguredSender(t *testing.T) {
	is := is.New(t)

	sent := 0
	app := newTestApp(Config{
		SenMLSender: func(ctx context.Context, url string, p senml.Pack) error {
			sent++
			return nil
		},
	})

	ds, _ := app.Decode(context.Background(), flightLog)

	is.NoErr(app.ExportSenML(context.Background(), ds, "http://senml.local"))
	is.Equal(sent, 1)

	is.True(app.ExportSenML(context.Background(), ds, "") != nil)
}

func TestThatExportInfluxWritesPoints(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
		),
		Returns(
			response.Code(http.StatusNoContent),
			response.Body([]byte("")),
		),
	)

	app := newTestApp(Config{})
	ds, _ := app.Decode(context.Background(), flightLog)

	is.NoErr(app.ExportInflux(context.Background(), ds, s.URL(), "telemetry"))
}

func TestThatPublishRequiresContextBroker(t *testing.T) {
	is := is.New(t)

	app := newTestApp(Config{})
	ds, _ := app.Decode(context.Background(), flightLog)

	is.True(app.Publish(context.Background(), ds) != nil)
}

func TestThatPlotWritesChart(t *testing.T) {
	is := is.New(t)

	app := newTestApp(Config{})
	ds, _ := app.Decode(context.Background(), flightLog)

	out := filepath.Join(t.TempDir(), "chart.png")
	is.NoErr(app.Plot(ds, "MHB", 15, out))

	_, err := os.Stat(out)
	is.NoErr(err)
}

func newTestApp(cfg Config) *telemetryApp {
	cfg.Start = time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)
	app := New(cfg)
	return app.(*telemetryApp)
}

const flightLog string = `# Model: Cularis
000000000;7;0;MHB
000000000;7;15;Altitude;m
000000000;7;16;Voltage;V
1000;7;15;0;2;12345
1000;7;15;0;2
1100;7;15;0;2;12401
`
