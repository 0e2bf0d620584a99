package summary

import (
	"github.com/diwise/jeti-telemetry/domain"
	"github.com/montanaflynn/stats"
)

type ChannelSummary struct {
	Device    string  `json:"device" yaml:"device"`
	ChannelID int     `json:"channel" yaml:"channel"`
	Name      string  `json:"name" yaml:"name"`
	Unit      string  `json:"unit" yaml:"unit"`
	Samples   int     `json:"samples" yaml:"samples"`
	FirstTime int64   `json:"firstTimestamp" yaml:"firstTimestamp"`
	LastTime  int64   `json:"lastTimestamp" yaml:"lastTimestamp"`
	Min       float64 `json:"min" yaml:"min"`
	Max       float64 `json:"max" yaml:"max"`
	Mean      float64 `json:"mean" yaml:"mean"`
	StdDev    float64 `json:"stddev" yaml:"stddev"`
}

// Summarize returns one entry per declared channel, devices and channels in declaration order.
func Summarize(ds *domain.Dataset) []ChannelSummary {
	summaries := []ChannelSummary{}

	for _, d := range ds.Devices() {
		for _, c := range d.Channels() {
			series, _ := d.Series(c.ID)
			summaries = append(summaries, summarize(d.Name(), c, series))
		}
	}

	return summaries
}

func summarize(device string, c domain.Channel, series []domain.Sample) ChannelSummary {
	s := ChannelSummary{
		Device:    device,
		ChannelID: c.ID,
		Name:      c.Descriptor.Name,
		Unit:      c.Descriptor.UnitOrEmpty(),
		Samples:   len(series),
	}

	if len(series) == 0 {
		return s
	}

	s.FirstTime = series[0].Timestamp
	s.LastTime = series[len(series)-1].Timestamp

	values := make(stats.Float64Data, 0, len(series))
	for _, sample := range series {
		values = append(values, sample.Value)
	}

	// errors are only returned for empty input, which is handled above
	s.Min, _ = values.Min()
	s.Max, _ = values.Max()
	s.Mean, _ = values.Mean()
	s.StdDev, _ = values.StandardDeviationPopulation()

	return s
}
