package sim

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "tank-arena/internal/sim"

type metrics struct {
	frames     metric.Int64Counter
	shots      metric.Int64Counter
	impacts    metric.Int64Counter
	deaths     metric.Int64Counter
	population metric.Int64UpDownCounter
}

// newMetrics builds the counters on mp, or on the global provider when mp is
// nil.
func newMetrics(mp metric.MeterProvider, log zerolog.Logger) *metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m, err := buildMetrics(mp.Meter(instrumentationName))
	if err != nil {
		log.Warn().Err(err).Msg("metrics unavailable, using no-op meter")
		m, _ = buildMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func buildMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	if m.frames, err = meter.Int64Counter("tankarena.frames",
		metric.WithDescription("Simulated frames")); err != nil {
		return nil, err
	}
	if m.shots, err = meter.Int64Counter("tankarena.shots",
		metric.WithDescription("Projectiles fired")); err != nil {
		return nil, err
	}
	if m.impacts, err = meter.Int64Counter("tankarena.impacts",
		metric.WithDescription("Projectile impacts")); err != nil {
		return nil, err
	}
	if m.deaths, err = meter.Int64Counter("tankarena.deaths",
		metric.WithDescription("Tank deaths")); err != nil {
		return nil, err
	}
	if m.population, err = meter.Int64UpDownCounter("tankarena.population",
		metric.WithDescription("Live entities")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *metrics) add(c metric.Int64Counter, n int64) {
	c.Add(context.Background(), n)
}

func (m *metrics) populationDelta(n int64) {
	if n != 0 {
		m.population.Add(context.Background(), n)
	}
}
