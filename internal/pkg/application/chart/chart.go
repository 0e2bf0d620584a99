package chart

import (
	"errors"
	"fmt"

	"github.com/diwise/jeti-telemetry/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("no data to plot")

const (
	width  vg.Length = 10 * vg.Inch
	height vg.Length = 6 * vg.Inch
)

// New builds a time series chart for one channel of a device.
func New(ds *domain.Dataset, device string, channel int) (*plot.Plot, error) {
	d, ok := ds.Device(device)
	if !ok {
		return nil, fmt.Errorf("device %q not found", device)
	}

	c, ok := d.Channel(channel)
	if !ok {
		return nil, fmt.Errorf("channel %d not found on device %q", channel, device)
	}

	series, _ := d.Series(channel)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w for device %q, channel %d", ErrNoData, device, channel)
	}

	xys := make(plotter.XYs, 0, len(series))
	for _, s := range series {
		xys = append(xys, plotter.XY{X: float64(s.Timestamp), Y: s.Value})
	}

	label := Label(c)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s, channel %d", device, channel)
	p.X.Label.Text = "Timestamp (ms)"
	p.Y.Label.Text = label
	p.Legend.Top = true

	p.Add(plotter.NewGrid())

	if err := plotutil.AddLines(p, label, xys); err != nil {
		return nil, fmt.Errorf("failed to add line: %w", err)
	}

	return p, nil
}

// Save renders the chart, the format follows the file extension (png, svg, pdf, ...).
func Save(ds *domain.Dataset, device string, channel int, path string) error {
	p, err := New(ds, device, channel)
	if err != nil {
		return err
	}

	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}

	return nil
}

func Label(c domain.ChannelDescriptor) string {
	if c.Unit == nil || *c.Unit == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, *c.Unit)
}
