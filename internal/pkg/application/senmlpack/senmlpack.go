package senmlpack

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/diwise/jeti-telemetry/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/farshidtz/senml/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var tlsSkipVerify bool

func init() {
	tlsSkipVerify = env.GetVariableOrDefault(zerolog.Logger{}, "TLS_SKIP_VERIFY", "0") == "1"
}

var tracer = otel.Tracer("jeti-telemetry/senmlpack")

type SenderFunc = func(context.Context, string, senml.Pack) error

// CreateAndSend builds one pack per channel with samples and hands each to sender.
// A failing pack does not stop the others, all failures are returned joined.
func CreateAndSend(ctx context.Context, ds *domain.Dataset, start time.Time, url string, sender SenderFunc) error {
	logger := logging.GetFromContext(ctx)

	var errs []error

	for _, d := range ds.Devices() {
		log := logger.With().Str("device", d.Name()).Logger()

		for _, c := range d.Channels() {
			series, _ := d.Series(c.ID)
			if len(series) == 0 {
				continue
			}

			p := NewPack(d.Name(), c, series, start)

			err := sender(ctx, url, p)
			if err != nil {
				log.Error().Err(err).Int("channel", c.ID).Msg("could not send pack")
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// NewPack encodes a series with the device and channel as base name and the log start as base time.
func NewPack(device string, c domain.Channel, series []domain.Sample, start time.Time) senml.Pack {
	p := make(senml.Pack, 0, len(series))

	for i, s := range series {
		rec := newRec(c.Descriptor.Name, s)
		if i == 0 {
			rec.BaseName = device + "/" + strconv.Itoa(c.ID) + "/"
			rec.BaseTime = float64(start.UnixMilli()) / 1000
			rec.BaseUnit = c.Descriptor.UnitOrEmpty()
		}
		p = append(p, rec)
	}

	return p
}

func newRec(name string, s domain.Sample) senml.Record {
	v := s.Value
	return senml.Record{
		Name:  name,
		Value: &v,
		Time:  float64(s.Timestamp) / 1000,
	}
}

func Send(ctx context.Context, url string, pack senml.Pack) error {
	var err error

	ctx, span := tracer.Start(ctx, "send-pack")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var httpClient http.Client

	if tlsSkipVerify {
		customTransport := http.DefaultTransport.(*http.Transport).Clone()
		customTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		httpClient = http.Client{
			Transport: otelhttp.NewTransport(customTransport),
		}
	} else {
		httpClient = http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	var b []byte
	b, err = json.Marshal(pack)
	if err != nil {
		return err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(b))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/senml+json")

	var resp *http.Response
	resp, err = httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err = fmt.Errorf("unexpected response code %d", resp.StatusCode)
	}

	return err
}
