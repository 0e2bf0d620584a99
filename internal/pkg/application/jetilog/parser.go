package jetilog

import (
	"context"
	"errors"

	"github.com/diwise/jeti-telemetry/domain"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("jeti-telemetry/jetilog")

type Parser struct {
	shards int
}

type Option func(*Parser)

// WithShards splits the entry pass across n goroutines. Values below 2 decode sequentially.
func WithShards(n int) Option {
	return func(p *Parser) {
		p.shards = n
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{shards: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes a complete log with a fresh parser.
func Parse(ctx context.Context, text string, opts ...Option) (*domain.Dataset, Report) {
	return New(opts...).Parse(ctx, text)
}

// Parse builds the device registry from every metadata line and only then decodes
// the data lines against it, so declarations may appear anywhere in the log.
func (p *Parser) Parse(ctx context.Context, text string) (*domain.Dataset, Report) {
	ctx, span := tracer.Start(ctx, "parse-log")
	defer span.End()

	logger := logging.GetFromContext(ctx)

	lines := splitLines(text)
	report := newReport()
	b := domain.NewBuilder()

	registry := newRegistry(b)
	for i, line := range lines {
		outcome, err := registry.declare(line)
		report.Metadata[outcome]++
		if err != nil {
			logger.Debug().Int("line", i+1).Err(err).Msg("skipping metadata line")
		}
	}

	shards := p.decodeEntries(ctx, registry, lines)

	for _, s := range shards {
		for outcome, n := range s.counts {
			report.Entries[outcome] += n
		}
		report.DroppedSamples += s.dropped

		for _, k := range s.order {
			b.Append(k.device, k.channel, s.series[k]...)
			report.Samples += len(s.series[k])
		}
	}

	span.SetAttributes(
		attribute.Int("lines", len(lines)),
		attribute.Int("samples", report.Samples),
		attribute.Int("dropped", report.DroppedSamples),
	)

	ds := b.Build()
	report.Devices = len(ds.DeviceNames())

	logger.Info().
		Int("lines", len(lines)).
		Int("devices", report.Devices).
		Int("channels", report.Metadata[ChannelDeclared]).
		Int("samples", report.Samples).
		Int("dropped", report.DroppedSamples).
		Int("malformed", report.Metadata[SkippedMalformed]+report.Entries[SkippedMalformed]).
		Msg("telemetry log decoded")

	return ds, report
}

type seriesKey struct {
	device  string
	channel int
}

type shard struct {
	counts  Counts
	dropped int
	order   []seriesKey
	series  map[seriesKey][]domain.Sample
}

func (s *shard) add(r resolved) {
	k := seriesKey{device: r.device, channel: r.channel}
	if _, ok := s.series[k]; !ok {
		s.order = append(s.order, k)
	}
	s.series[k] = append(s.series[k], r.sample)
}

// decodeEntries runs the entry pass over contiguous line ranges. The registry is
// only read here. Shards come back in line order so concatenating them keeps each
// series in encounter order.
func (p *Parser) decodeEntries(ctx context.Context, r *Registry, lines []string) []*shard {
	n := p.shards
	if n < 1 {
		n = 1
	}
	if n > len(lines) {
		n = max(len(lines), 1)
	}

	size := (len(lines) + n - 1) / n
	shards := make([]*shard, n)

	g := errgroup.Group{}

	for i := range shards {
		lo := min(i*size, len(lines))
		hi := min(lo+size, len(lines))

		s := &shard{counts: Counts{}, series: map[seriesKey][]domain.Sample{}}
		shards[i] = s

		g.Go(func() error {
			s.decode(ctx, r, lines[lo:hi], lo)
			return nil
		})
	}

	_ = g.Wait()

	return shards
}

func (s *shard) decode(ctx context.Context, r *Registry, lines []string, offset int) {
	logger := logging.GetFromContext(ctx)

	for i, line := range lines {
		e, err := decodeEntry(r, line)
		s.counts[e.outcome]++
		s.dropped += e.dropped

		for _, rs := range e.samples {
			s.add(rs)
		}

		if err != nil && !errors.Is(err, ErrUnknownReference) {
			logger.Debug().Int("line", offset+i+1).Err(err).Msg("skipping data line")
		} else if err != nil || e.dropped > 0 {
			logger.Debug().Int("line", offset+i+1).Int("dropped", e.dropped).Msg("dropped unresolved samples")
		}
	}
}
