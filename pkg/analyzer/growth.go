package analyzer

import (
	"fmt"
)

// MinTrendSamples is one day of quarter-hour meter readings.
const MinTrendSamples = 96

// CalculateGrowthTrend fits a line through demand over time
func CalculateGrowthTrend(samples []DemandSample) (*GrowthTrend, error) {
	if len(samples) < MinTrendSamples {
		return &GrowthTrend{}, fmt.Errorf("insufficient data for trend analysis (need %d+ samples, got %d)",
			MinTrendSamples, len(samples))
	}

	startTime := samples[0].Timestamp
	x := make([]float64, len(samples)) // hours since start
	y := make([]float64, len(samples)) // kW

	for i, sample := range samples {
		x[i] = sample.Timestamp.Sub(startTime).Hours()
		y[i] = sample.Value
	}

	slope, intercept, r2 := linearRegression(x, y)
	currentAvg := calculateAverage(y)

	// slope is kW per hour
	hoursPerMonth := 24.0 * 30.0
	var ratePerMonth float64
	if currentAvg > 0 {
		ratePerMonth = (slope * hoursPerMonth / currentAvg) * 100.0
	}

	currentHours := x[len(x)-1]
	predicted3Month := slope*(currentHours+24*90) + intercept
	predicted6Month := slope*(currentHours+24*180) + intercept
	if predicted3Month < 0 {
		predicted3Month = currentAvg
	}
	if predicted6Month < 0 {
		predicted6Month = currentAvg
	}

	return &GrowthTrend{
		RatePerMonth:    ratePerMonth,
		Confidence:      r2,
		Predicted3Month: predicted3Month,
		Predicted6Month: predicted6Month,
		IsGrowing:       ratePerMonth > 3.0,
	}, nil
}

// linearRegression returns slope, intercept and R²
func linearRegression(x, y []float64) (slope, intercept, r2 float64) {
	if len(x) == 0 {
		return 0, 0, 0
	}

	meanX := calculateAverage(x)
	meanY := calculateAverage(y)

	numerator := 0.0
	denominator := 0.0
	for i := range x {
		numerator += (x[i] - meanX) * (y[i] - meanY)
		denominator += (x[i] - meanX) * (x[i] - meanX)
	}
	if denominator == 0 {
		return 0, meanY, 0
	}

	slope = numerator / denominator
	intercept = meanY - slope*meanX

	ssTotal := 0.0
	ssRes := 0.0
	for i := range x {
		predicted := slope*x[i] + intercept
		ssRes += (y[i] - predicted) * (y[i] - predicted)
		ssTotal += (y[i] - meanY) * (y[i] - meanY)
	}
	if ssTotal != 0 {
		r2 = 1.0 - (ssRes / ssTotal)
	}

	if r2 < 0 {
		r2 = 0
	} else if r2 > 1 {
		r2 = 1
	}
	return slope, intercept, r2
}

// DetectDailyProfile reports the shape of an average day: "daytime" when
// working hours clearly dominate the night, "flat", or "variable".
func DetectDailyProfile(samples []DemandSample) string {
	if len(samples) < MinTrendSamples {
		return "insufficient-data"
	}

	byHour := make([][]float64, 24)
	for _, sample := range samples {
		hour := sample.Timestamp.Hour()
		byHour[hour] = append(byHour[hour], sample.Value)
	}

	hourlyMeans := make([]float64, 24)
	for hour, values := range byHour {
		hourlyMeans[hour] = calculateAverage(values)
	}

	dayAvg := (hourlyMeans[9] + hourlyMeans[12] + hourlyMeans[15]) / 3.0
	nightAvg := (hourlyMeans[0] + hourlyMeans[3] + hourlyMeans[23]) / 3.0
	if dayAvg > nightAvg*1.5 {
		return "daytime"
	}

	if calculateCoefficientOfVariation(hourlyMeans) < 0.15 {
		return "flat"
	}
	return "variable"
}
