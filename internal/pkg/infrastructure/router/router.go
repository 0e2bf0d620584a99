package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diwise/jeti-telemetry/domain"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
)

type Router interface {
	Start(port string) error
}

type routerStruct struct {
	router chi.Router
	log    zerolog.Logger
	ds     *domain.Dataset
}

type channelDTO struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Unit    *string `json:"unit"`
	Samples int     `json:"samples"`
}

type deviceDTO struct {
	Name     string       `json:"name"`
	Channels []channelDTO `json:"channels"`
}

type seriesDTO struct {
	Device  string       `json:"device"`
	Channel int          `json:"channel"`
	Name    string       `json:"name"`
	Unit    *string      `json:"unit"`
	Samples [][2]float64 `json:"samples"`
}

func SetupRouter(chiRouter chi.Router, log zerolog.Logger, ds *domain.Dataset) *routerStruct {
	r := &routerStruct{
		router: chiRouter,
		log:    log,
		ds:     ds,
	}

	chiRouter.Use(middleware.Logger)
	chiRouter.Get("/health", r.health)

	chiRouter.Route("/api/devices", func(api chi.Router) {
		api.Get("/", r.devices)
		api.Get("/{device}/channels/{channel}", r.series)
	})

	return r
}

func (r *routerStruct) Start(port string) error {
	r.log.Info().Str("port", port).Msg("starting to listen for connections")
	return http.ListenAndServe(fmt.Sprintf(":%s", port), r.router)
}

func (router *routerStruct) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (router *routerStruct) devices(w http.ResponseWriter, r *http.Request) {
	devices := []deviceDTO{}

	for _, d := range router.ds.Devices() {
		dto := deviceDTO{Name: d.Name(), Channels: []channelDTO{}}
		for _, c := range d.Channels() {
			dto.Channels = append(dto.Channels, channelDTO{
				ID:      c.ID,
				Name:    c.Descriptor.Name,
				Unit:    c.Descriptor.Unit,
				Samples: d.SampleCount(c.ID),
			})
		}
		devices = append(devices, dto)
	}

	router.writeJSON(w, devices)
}

func (router *routerStruct) series(w http.ResponseWriter, r *http.Request) {
	deviceName := chi.URLParam(r, "device")

	channelID, err := strconv.Atoi(chi.URLParam(r, "channel"))
	if err != nil {
		http.Error(w, "channel must be numeric", http.StatusBadRequest)
		return
	}

	d, ok := router.ds.Device(deviceName)
	if !ok {
		http.Error(w, fmt.Sprintf("device %q not found", deviceName), http.StatusNotFound)
		return
	}

	c, ok := d.Channel(channelID)
	if !ok {
		http.Error(w, fmt.Sprintf("channel %d not found", channelID), http.StatusNotFound)
		return
	}

	samples, _ := d.Series(channelID)

	dto := seriesDTO{
		Device:  deviceName,
		Channel: channelID,
		Name:    c.Name,
		Unit:    c.Unit,
		Samples: make([][2]float64, 0, len(samples)),
	}

	for _, s := range samples {
		dto.Samples = append(dto.Samples, [2]float64{float64(s.Timestamp), s.Value})
	}

	router.writeJSON(w, dto)
}

func (router *routerStruct) writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		router.log.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
