package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/diwise/context-broker/pkg/ngsild/client"
	"github.com/diwise/jeti-telemetry/domain"
	"github.com/diwise/jeti-telemetry/internal/pkg/application"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/jetilog"
	"github.com/diwise/jeti-telemetry/internal/pkg/application/summary"
	"github.com/diwise/jeti-telemetry/internal/pkg/infrastructure/router"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/go-chi/chi"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type options struct {
	shards int
	start  string
}

func newRootCommand(logger zerolog.Logger) *cobra.Command {
	opts := &options{}

	shards, _ := strconv.Atoi(env.GetVariableOrDefault(logger, "DECODE_SHARDS", "1"))

	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Decode JETI telemetry logs into per channel time series",
		SilenceUsage: true,
	}

	root.PersistentFlags().IntVar(&opts.shards, "shards", shards, "number of goroutines decoding data lines")
	root.PersistentFlags().StringVar(&opts.start, "start", env.GetVariableOrDefault(logger, "LOG_START_TIME", ""), "RFC3339 wall clock time of timestamp 0, defaults to now")

	root.AddCommand(
		newSummaryCommand(opts),
		newDumpCommand(opts),
		newPlotCommand(opts),
		newServeCommand(opts, logger),
		newExportCommand(opts, logger),
		newPublishCommand(opts, logger),
	)

	return root
}

func (o *options) app(broker client.ContextBrokerClient) (application.TelemetryApp, error) {
	cfg := application.Config{
		Shards:        o.shards,
		ContextBroker: broker,
	}

	if o.start != "" {
		start, err := time.Parse(time.RFC3339, o.start)
		if err != nil {
			return nil, fmt.Errorf("invalid start time %q: %w", o.start, err)
		}
		cfg.Start = start
	}

	return application.New(cfg), nil
}

func (o *options) load(cmd *cobra.Command, path string, broker client.ContextBrokerClient) (application.TelemetryApp, *domain.Dataset, error) {
	app, err := o.app(broker)
	if err != nil {
		return nil, nil, err
	}

	ds, _, err := app.Load(cmd.Context(), path)
	if err != nil {
		return nil, nil, err
	}

	return app, ds, nil
}

func newSummaryCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <log>",
		Short: "Show devices, channels and statistics of a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(nil)
			if err != nil {
				return err
			}

			ds, report, err := app.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			renderSummary(cmd.OutOrStdout(), app.Summarize(ds), report)
			return nil
		},
	}
}

func renderSummary(w io.Writer, summaries []summary.ChannelSummary, report jetilog.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Device", "Channel", "Name", "Unit", "Samples", "First (ms)", "Last (ms)", "Min", "Max", "Mean", "StdDev"})

	for _, s := range summaries {
		t.AppendRow(table.Row{s.Device, s.ChannelID, s.Name, s.Unit, s.Samples, s.FirstTime, s.LastTime, s.Min, s.Max, s.Mean, s.StdDev})
	}

	t.AppendFooter(table.Row{"", "", "", "", report.Samples, "", "", "", "", "dropped", report.DroppedSamples})
	t.Render()
}

type channelDump struct {
	ID      int             `json:"id" yaml:"id"`
	Name    string          `json:"name" yaml:"name"`
	Unit    *string         `json:"unit" yaml:"unit"`
	Samples []domain.Sample `json:"samples" yaml:"samples"`
}

type deviceDump struct {
	Name     string        `json:"name" yaml:"name"`
	Channels []channelDump `json:"channels" yaml:"channels"`
}

func newDumpCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump <log>",
		Short: "Write the decoded dataset as json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ds, err := opts.load(cmd, args[0], nil)
			if err != nil {
				return err
			}
			return dump(cmd.OutOrStdout(), ds, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, yaml)")

	return cmd
}

func dump(w io.Writer, ds *domain.Dataset, format string) error {
	devices := []deviceDump{}

	for _, d := range ds.Devices() {
		dd := deviceDump{Name: d.Name(), Channels: []channelDump{}}
		for _, c := range d.Channels() {
			samples, _ := d.Series(c.ID)
			dd.Channels = append(dd.Channels, channelDump{
				ID:      c.ID,
				Name:    c.Descriptor.Name,
				Unit:    c.Descriptor.Unit,
				Samples: samples,
			})
		}
		devices = append(devices, dd)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(devices)
	}

	return fmt.Errorf("unsupported format %q", format)
}

func newPlotCommand(opts *options) *cobra.Command {
	var device, out string
	var channel int

	cmd := &cobra.Command{
		Use:   "plot <log>",
		Short: "Render one channel of a device as a chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ds, err := opts.load(cmd, args[0], nil)
			if err != nil {
				return err
			}
			return app.Plot(ds, device, channel, out)
		},
	}

	cmd.Flags().StringVarP(&device, "device", "d", "", "device name")
	cmd.Flags().IntVarP(&channel, "channel", "c", 0, "channel id")
	cmd.Flags().StringVarP(&out, "out", "o", "chart.png", "output file, format follows the extension")
	cmd.MarkFlagRequired("device")
	cmd.MarkFlagRequired("channel")

	return cmd
}

func newServeCommand(opts *options, logger zerolog.Logger) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve <log>",
		Short: "Serve the decoded dataset over http",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ds, err := opts.load(cmd, args[0], nil)
			if err != nil {
				return err
			}

			r := router.SetupRouter(chi.NewRouter(), logger, ds)
			return r.Start(port)
		},
	}

	cmd.Flags().StringVar(&port, "port", env.GetVariableOrDefault(logger, "SERVICE_PORT", "8080"), "http port")

	return cmd
}

func newExportCommand(opts *options, logger zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Send decoded series to an external store",
	}

	var senmlURL string
	senmlCmd := &cobra.Command{
		Use:   "senml <log>",
		Short: "Post every channel as a SenML pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ds, err := opts.load(cmd, args[0], nil)
			if err != nil {
				return err
			}
			return app.ExportSenML(cmd.Context(), ds, senmlURL)
		},
	}
	senmlCmd.Flags().StringVar(&senmlURL, "url", env.GetVariableOrDefault(logger, "SENML_ENDPOINT", ""), "senml endpoint")

	var influxURL, database string
	influxCmd := &cobra.Command{
		Use:   "influx <log>",
		Short: "Write every sample as an InfluxDB point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ds, err := opts.load(cmd, args[0], nil)
			if err != nil {
				return err
			}
			return app.ExportInflux(cmd.Context(), ds, influxURL, database)
		},
	}
	influxCmd.Flags().StringVar(&influxURL, "url", env.GetVariableOrDefault(logger, "INFLUX_URL", ""), "influxdb url")
	influxCmd.Flags().StringVar(&database, "database", env.GetVariableOrDefault(logger, "INFLUX_DATABASE", "telemetry"), "influxdb database")

	cmd.AddCommand(senmlCmd, influxCmd)

	return cmd
}

func newPublishCommand(opts *options, logger zerolog.Logger) *cobra.Command {
	var brokerURL string

	cmd := &cobra.Command{
		Use:   "publish <log>",
		Short: "Publish the latest value of every channel to a context broker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if brokerURL == "" {
				return fmt.Errorf("no context broker url configured")
			}

			app, ds, err := opts.load(cmd, args[0], client.NewContextBrokerClient(brokerURL))
			if err != nil {
				return err
			}
			return app.Publish(cmd.Context(), ds)
		},
	}

	cmd.Flags().StringVar(&brokerURL, "broker", env.GetVariableOrDefault(logger, "CONTEXT_BROKER_URL", ""), "context broker url")

	return cmd
}
