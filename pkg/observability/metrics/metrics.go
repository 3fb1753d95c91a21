// Package metrics exposes Prometheus counters for simulations and catalogue
// loads.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

const (
	metricPrefix = "tariff_sim_"

	ResultSuccess      = "success"
	ResultInvalidInput = "invalid_input"
	ResultNoCandidates = "no_candidates"
	ResultDomainError  = "domain_error"
	ResultError        = "error"
)

var (
	registerOnce sync.Once

	simulationsTotal   *prometheus.CounterVec
	simulationLatency  *prometheus.HistogramVec
	candidatesEvaluated prometheus.Histogram
	bestSavings        prometheus.Histogram
	opportunitiesTotal *prometheus.CounterVec
	catalogueLoads     *prometheus.CounterVec
)

// Init registers the metrics with the default registry. Calling it more
// than once is a no-op.
func Init() {
	registerOnce.Do(func() {
		simulationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "simulations_total",
				Help: "Total simulations by result",
			},
			[]string{"result"},
		)
		simulationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "simulation_latency_seconds",
				Help:    "Simulation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		candidatesEvaluated = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "candidates_evaluated",
				Help:    "Number of tariff candidates per simulation",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
		)
		bestSavings = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "best_annual_savings",
				Help:    "Annual savings of the best offer",
				Buckets: []float64{0, 50, 100, 250, 500, 1000, 2500, 5000},
			},
		)
		opportunitiesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "opportunities_total",
				Help: "Detected opportunities by type",
			},
			[]string{"type"},
		)
		catalogueLoads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "catalogue_loads_total",
				Help: "Catalogue loads by source and result",
			},
			[]string{"source", "result"},
		)

		prometheus.MustRegister(
			simulationsTotal,
			simulationLatency,
			candidatesEvaluated,
			bestSavings,
			opportunitiesTotal,
			catalogueLoads,
		)
	})
}

// ObserveSimulation records the outcome and duration of one simulation.
func ObserveSimulation(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if simulationsTotal != nil {
		simulationsTotal.WithLabelValues(result).Inc()
	}
	if simulationLatency != nil {
		simulationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ResultFor maps an engine error to its result label.
func ResultFor(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, models.ErrInvalidInput):
		return ResultInvalidInput
	case errors.Is(err, models.ErrNoCandidates):
		return ResultNoCandidates
	case errors.Is(err, models.ErrDomain):
		return ResultDomainError
	default:
		return ResultError
	}
}

// ObserveResult records offers and opportunities of a completed simulation.
func ObserveResult(res *models.EngineResult) {
	if res == nil {
		return
	}
	var best float64
	if b := res.Best(); b != nil {
		best = b.AnnualSavings
	}
	ObserveOffers(len(res.Offers), best)
	for _, o := range res.Opportunities {
		IncOpportunity(string(o.Kind))
	}
}

// ObserveOffers records the size of the ranked list and the best saving.
func ObserveOffers(candidates int, best float64) {
	if candidatesEvaluated != nil {
		candidatesEvaluated.Observe(float64(candidates))
	}
	if bestSavings != nil {
		bestSavings.Observe(best)
	}
}

func IncOpportunity(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if opportunitiesTotal != nil {
		opportunitiesTotal.WithLabelValues(kind).Inc()
	}
}

func IncCatalogueLoad(source, result string) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if catalogueLoads != nil {
		catalogueLoads.WithLabelValues(source, result).Inc()
	}
}
