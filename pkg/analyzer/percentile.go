package analyzer

import (
	"fmt"
	"math"
	"sort"
)

// CalculatePercentiles computes P50, P90, P95, P99, and peak from samples
func CalculatePercentiles(samples []DemandSample) (*Percentiles, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	values := make([]float64, len(samples))
	for i, sample := range samples {
		values[i] = sample.Value
	}
	sort.Float64s(values)

	return &Percentiles{
		Average: calculateAverage(values),
		P50:     calculatePercentile(values, 50),
		P90:     calculatePercentile(values, 90),
		P95:     calculatePercentile(values, 95),
		P99:     calculatePercentile(values, 99),
		Peak:    values[len(values)-1],
		Min:     values[0],
	}, nil
}

// Pick returns the figure named by the statistic; unknown names mean peak.
func (p *Percentiles) Pick(stat Statistic) float64 {
	if stat == StatisticP99 {
		return p.P99
	}
	return p.Peak
}

// calculatePercentile computes the Nth percentile using linear interpolation
func calculatePercentile(sortedValues []float64, percentile float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	rank := (percentile / 100.0) * float64(len(sortedValues)-1)
	lowerIndex := int(math.Floor(rank))
	upperIndex := int(math.Ceil(rank))
	if lowerIndex == upperIndex {
		return sortedValues[lowerIndex]
	}

	lowerValue := sortedValues[lowerIndex]
	upperValue := sortedValues[upperIndex]
	fraction := rank - float64(lowerIndex)

	return lowerValue + (upperValue-lowerValue)*fraction
}

func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func calculateCoefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := calculateAverage(values)
	if mean == 0 {
		return 0
	}

	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	stdDev := math.Sqrt(sumSquaredDiff / float64(len(values)))

	return stdDev / mean
}

// CalculateCoefficientOfVariation measures the relative variability
// High CV (>0.5) = spiky load
// Low CV (<0.2) = steady load
func CalculateCoefficientOfVariation(samples []DemandSample) float64 {
	return calculateCoefficientOfVariation(sampleValues(samples))
}

// AnalyzeLoadPattern classifies demand as steady, moderate, spiky or
// highly variable.
func AnalyzeLoadPattern(samples []DemandSample) LoadPattern {
	if len(samples) < 10 {
		return LoadPattern{Type: "unknown"}
	}

	cv := CalculateCoefficientOfVariation(samples)

	var patternType string
	var confidence float64
	switch {
	case cv < 0.15:
		patternType, confidence = "steady", 0.95
	case cv < 0.35:
		patternType, confidence = "moderate", 0.85
	case cv < 0.70:
		patternType, confidence = "spiky", 0.80
	default:
		patternType, confidence = "highly-variable", 0.75
	}

	return LoadPattern{
		Type:       patternType,
		Variation:  cv,
		Confidence: confidence,
	}
}

func sampleValues(samples []DemandSample) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	return values
}
