package updatemanager

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/downloader"
)

// Metrics holds the update cycle instruments
type Metrics struct {
	cycles        metric.Int64Counter
	downloadBytes metric.Int64Counter
	downloadTimes metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	cycles, err := meter.Int64Counter("oap_ota_cycles_total",
		metric.WithDescription("Number of completed update cycles by outcome"))
	if err != nil {
		return nil, err
	}

	downloadBytes, err := meter.Int64Counter("oap_ota_download_bytes_total",
		metric.WithDescription("Firmware bytes received"))
	if err != nil {
		return nil, err
	}

	downloadTimes, err := meter.Float64Histogram("oap_ota_download_duration_ms",
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 5000, 10000, 30000, 60000, 300000))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cycles:        cycles,
		downloadBytes: downloadBytes,
		downloadTimes: downloadTimes,
	}, nil
}

func newNoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(""))
	return m
}

func (m *Metrics) countCycle(ctx context.Context, kind OutcomeKind) {
	m.cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", kind.String())))
}

func (m *Metrics) recordDownload(ctx context.Context, res downloader.Result) {
	m.downloadBytes.Add(ctx, res.Size)
	m.downloadTimes.Record(ctx, float64(res.Duration.Milliseconds()))
}
