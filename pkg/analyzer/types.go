package analyzer

import (
	"time"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// DemandSample is one power reading of a supply point, in kW.
type DemandSample struct {
	Timestamp time.Time
	Value     float64
}

// Statistic selects which figure becomes the period's maximum demand.
type Statistic string

const (
	StatisticPeak Statistic = "peak"
	StatisticP99  Statistic = "p99"
)

// Percentiles contains statistical percentiles
type Percentiles struct {
	Average float64
	P50     float64
	P90     float64
	P95     float64
	P99     float64
	Peak    float64
	Min     float64
}

// LoadPattern describes how demand varies within a period
type LoadPattern struct {
	Type       string  // "steady", "moderate", "spiky", "highly-variable", "unknown"
	Variation  float64 // Coefficient of variation
	Confidence float64 // How confident we are (0-1)
}

// GrowthTrend describes demand growth over time
type GrowthTrend struct {
	RatePerMonth    float64 // % growth per month
	Confidence      float64
	Predicted3Month float64
	Predicted6Month float64
	IsGrowing       bool
}

// PeriodDemand is the analysis of one time-of-use period.
type PeriodDemand struct {
	Period      models.Period
	SampleCount int
	Percentiles Percentiles
	Pattern     LoadPattern
	Growth      GrowthTrend
}

// DemandAnalysis summarizes a load curve split by period.
type DemandAnalysis struct {
	SupplyID  string
	StartTime time.Time
	EndTime   time.Time
	Periods   []PeriodDemand

	// MaxDemand holds the selected statistic per period, zero where no
	// samples exist. It feeds the normalizer's manual overrides.
	MaxDemand   models.PeriodValues
	Statistic   Statistic
	DataQuality float64 // 0-1
	Profile     string  // daily shape over all samples
}
