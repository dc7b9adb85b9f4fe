package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotals(t *testing.T) {
	p := New()
	meter := p.MeterProvider().Meter("test")
	shots, err := meter.Int64Counter("shots")
	require.NoError(t, err)
	live, err := meter.Int64UpDownCounter("live")
	require.NoError(t, err)
	_, err = meter.Float64Counter("ignored")
	require.NoError(t, err)

	ctx := context.Background()
	shots.Add(ctx, 2)
	shots.Add(ctx, 3)
	live.Add(ctx, 10)
	live.Add(ctx, -4)

	got, err := p.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"shots": 5, "live": 6}, got)

	require.NoError(t, p.Shutdown(ctx))
	_, err = p.Totals(ctx)
	assert.Error(t, err)
}
