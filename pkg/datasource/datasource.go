// Package datasource reads measured demand for a supply point from a
// metrics backend.
package datasource

import (
	"context"
	"time"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/models"
)

// DemandSource defines the interface for collecting load curves
type DemandSource interface {
	// DemandSamples returns power readings (kW) grouped by time-of-use period.
	DemandSamples(ctx context.Context, supplyID string, start, end time.Time, step time.Duration) (map[models.Period][]analyzer.DemandSample, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

type Config struct {
	PrometheusURL string
	// Metric is a gauge in kW labelled supply_id and period.
	Metric  string
	Timeout time.Duration
}

const (
	DefaultMetric = "supply_power_demand_kw"
	DefaultStep   = 15 * time.Minute
)

// MaxDemand reads the lookback window ending at end and reduces it to one
// figure per period.
func MaxDemand(ctx context.Context, src DemandSource, supplyID string, end time.Time, lookback time.Duration, stat analyzer.Statistic) (*analyzer.DemandAnalysis, error) {
	samples, err := src.DemandSamples(ctx, supplyID, end.Add(-lookback), end, DefaultStep)
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(supplyID, samples, stat), nil
}
