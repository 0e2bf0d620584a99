package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diwise/jeti-telemetry/internal/pkg/application/jetilog"
	"github.com/go-chi/chi"
	"github.com/matryer/is"
	"github.com/rs/zerolog/log"
)

func TestThatHealthEndpointReturns204(t *testing.T) {
	is := is.New(t)

	r := newRouterForTesting()
	ts := httptest.NewServer(r.router)
	defer ts.Close()

	resp, _ := testRequest(is, ts, "GET", "/health", nil)

	is.Equal(resp.StatusCode, http.StatusNoContent) // health endpoint status code not ok
}

func TestThatDevicesAreListed(t *testing.T) {
	is := is.New(t)

	r := newRouterForTesting()
	ts := httptest.NewServer(r.router)
	defer ts.Close()

	resp, body := testRequest(is, ts, "GET", "/api/devices", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	devices := []deviceDTO{}
	is.NoErr(json.Unmarshal([]byte(body), &devices))

	is.Equal(len(devices), 2)
	is.Equal(devices[0].Name, "MHB")
	is.Equal(devices[0].Channels[0].ID, 15)
	is.Equal(*devices[0].Channels[0].Unit, "m")
	is.Equal(devices[0].Channels[0].Samples, 2)
	is.True(devices[1].Channels[0].Unit == nil)
}

func TestThatSeriesIsReturned(t *testing.T) {
	is := is.New(t)

	r := newRouterForTesting()
	ts := httptest.NewServer(r.router)
	defer ts.Close()

	resp, body := testRequest(is, ts, "GET", "/api/devices/MHB/channels/15", nil)
	is.Equal(resp.StatusCode, http.StatusOK)

	series := seriesDTO{}
	is.NoErr(json.Unmarshal([]byte(body), &series))

	is.Equal(series.Name, "Altitude")
	is.Equal(series.Samples, [][2]float64{{1000, 123.45}, {1100, -50}})
}

func TestThatUnknownSeriesReturns404(t *testing.T) {
	is := is.New(t)

	r := newRouterForTesting()
	ts := httptest.NewServer(r.router)
	defer ts.Close()

	resp, _ := testRequest(is, ts, "GET", "/api/devices/MHB/channels/99", nil)
	is.Equal(resp.StatusCode, http.StatusNotFound)

	resp, _ = testRequest(is, ts, "GET", "/api/devices/Nope/channels/15", nil)
	is.Equal(resp.StatusCode, http.StatusNotFound)

	resp, _ = testRequest(is, ts, "GET", "/api/devices/MHB/channels/abc", nil)
	is.Equal(resp.StatusCode, http.StatusBadRequest)
}

func newRouterForTesting() *routerStruct {
	r := chi.NewRouter()
	log := log.Logger

	ds, _ := jetilog.Parse(context.Background(), flightLog)

	return SetupRouter(r, log, ds)
}

func testRequest(is *is.I, ts *httptest.Server, method, path string, body io.Reader) (*http.Response, string) {
	req, _ := http.NewRequest(method, ts.URL+path, body)
	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	respBody, _ := io.ReadAll(resp.Body)
	defer resp.Body.Close()

	return resp, string(respBody)
}

const flightLog string = `000000000;7;0;MHB
000000000;7;15;Altitude;m
000000000;4;0;Tx
000000000;4;1;Quality
1000;7;15;0;2;12345
1100;7;15;0;1;-500
`
