package datasource

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/models"
)

type PrometheusSource struct {
	client  v1.API
	metric  string
	timeout time.Duration
	log     zerolog.Logger
}

func NewPrometheusSource(cfg Config, log zerolog.Logger) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: cfg.PrometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return newPrometheusSource(v1.NewAPI(client), cfg, log), nil
}

func newPrometheusSource(client v1.API, cfg Config, log zerolog.Logger) *PrometheusSource {
	metric := cfg.Metric
	if metric == "" {
		metric = DefaultMetric
	}
	return &PrometheusSource{
		client:  client,
		metric:  metric,
		timeout: cfg.Timeout,
		log:     log.With().Str("component", "prometheus").Logger(),
	}
}

func (p *PrometheusSource) query(supplyID string) string {
	return fmt.Sprintf(`max by (period) (%s{supply_id=%q})`, p.metric, supplyID)
}

func (p *PrometheusSource) DemandSamples(ctx context.Context, supplyID string, start, end time.Time, step time.Duration) (map[models.Period][]analyzer.DemandSample, error) {
	if supplyID == "" {
		return nil, fmt.Errorf("supply id is required")
	}
	if step <= 0 {
		step = DefaultStep
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	query := p.query(supplyID)
	r := v1.Range{Start: start, End: end, Step: step}

	p.log.Debug().
		Str("query", query).
		Time("start", start).
		Time("end", end).
		Dur("step", step).
		Msg("querying demand")

	result, warnings, err := p.client.QueryRange(ctx, query, r)
	if err != nil {
		return nil, fmt.Errorf("prometheus query failed: %w", err)
	}
	if len(warnings) > 0 {
		p.log.Warn().Strs("warnings", warnings).Msg("prometheus returned warnings")
	}

	samples, err := p.parseResult(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse demand results: %w", err)
	}
	return samples, nil
}

// parseResult groups matrix series by their period label. Series with an
// unknown period and non-finite values are skipped.
func (p *PrometheusSource) parseResult(result model.Value) (map[models.Period][]analyzer.DemandSample, error) {
	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}

	out := make(map[models.Period][]analyzer.DemandSample)
	for _, series := range matrix {
		label := string(series.Metric["period"])
		period, err := models.ParsePeriod(label)
		if err != nil {
			p.log.Warn().Str("period", label).Msg("skipping series with unknown period")
			continue
		}
		for _, value := range series.Values {
			v := float64(value.Value)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				continue
			}
			out[period] = append(out[period], analyzer.DemandSample{
				Timestamp: value.Timestamp.Time(),
				Value:     v,
			})
		}
	}
	return out, nil
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
