package summary

import (
	"context"
	"testing"

	"github.com/diwise/jeti-telemetry/internal/pkg/application/jetilog"
	"github.com/matryer/is"
)

func TestThatChannelsAreSummarized(t *testing.T) {
	is := is.New(t)

	ds, _ := jetilog.Parse(context.Background(), flightLog)

	summaries := Summarize(ds)
	is.Equal(len(summaries), 3)

	alt := summaries[0]
	is.Equal(alt.Device, "MHB")
	is.Equal(alt.ChannelID, 15)
	is.Equal(alt.Unit, "m")
	is.Equal(alt.Samples, 4)
	is.Equal(alt.FirstTime, int64(1000))
	is.Equal(alt.LastTime, int64(1000))
	is.Equal(alt.Min, 1.0)
	is.Equal(alt.Max, 4.0)
	is.Equal(alt.Mean, 2.5)

	empty := summaries[2]
	is.Equal(empty.Name, "Speed")
	is.Equal(empty.Samples, 0)
	is.Equal(empty.Mean, 0.0)
}

func TestThatStdDevIsPopulationStdDev(t *testing.T) {
	is := is.New(t)

	ds, _ := jetilog.Parse(context.Background(), flightLog)

	volt := Summarize(ds)[1]
	is.Equal(volt.Samples, 2)
	is.Equal(volt.StdDev, 1.0)
}

const flightLog string = `000000000;7;0;MHB
000000000;7;15;Altitude;m
000000000;7;16;Voltage;V
000000000;7;17;Speed;km/h
1000;7;15;0;0;1;16;0;0;10
2000;7;15;0;0;2
1500;7;15;0;0;3;16;0;0;12
1000;7;15;0;0;4
`
