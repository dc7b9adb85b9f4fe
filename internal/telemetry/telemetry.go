// Package telemetry owns the OpenTelemetry meter provider of the process.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Provider is an in-process meter provider read on demand.
type Provider struct {
	reader *sdkmetric.ManualReader
	mp     *sdkmetric.MeterProvider
}

// New creates a provider backed by a manual reader.
func New() *Provider {
	reader := sdkmetric.NewManualReader()
	return &Provider{
		reader: reader,
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// Install makes p the global meter provider.
func (p *Provider) Install() {
	otel.SetMeterProvider(p.mp)
}

func (p *Provider) MeterProvider() metric.MeterProvider { return p.mp }

// Totals collects every integer sum recorded so far, keyed by instrument
// name. Up-down counters report their current value.
func (p *Provider) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out, nil
}

// Shutdown stops the provider. Totals fails afterwards.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}
