// Package analyzer reduces a load curve to per-period demand figures.
package analyzer

import (
	"sort"
	"time"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// Analyze summarizes samples grouped by period. Periods without samples are
// left out of Periods and stay zero in MaxDemand.
func Analyze(supplyID string, byPeriod map[models.Period][]DemandSample, stat Statistic) *DemandAnalysis {
	if stat != StatisticP99 {
		stat = StatisticPeak
	}
	analysis := &DemandAnalysis{SupplyID: supplyID, Statistic: stat}

	var all []DemandSample
	for _, p := range models.Periods {
		samples := byPeriod[p]
		if len(samples) == 0 {
			continue
		}
		samples = sortedByTime(samples)
		all = append(all, samples...)

		pct, err := CalculatePercentiles(samples)
		if err != nil {
			continue
		}
		pd := PeriodDemand{
			Period:      p,
			SampleCount: len(samples),
			Percentiles: *pct,
			Pattern:     AnalyzeLoadPattern(samples),
		}
		if trend, err := CalculateGrowthTrend(samples); err == nil {
			pd.Growth = *trend
		}
		analysis.Periods = append(analysis.Periods, pd)
		analysis.MaxDemand[p] = pct.Pick(stat)
	}

	if len(all) == 0 {
		analysis.Profile = "insufficient-data"
		return analysis
	}

	all = sortedByTime(all)
	analysis.StartTime = all[0].Timestamp
	analysis.EndTime = all[len(all)-1].Timestamp
	analysis.DataQuality = calculateDataQuality(len(all), analysis.EndTime.Sub(analysis.StartTime))
	analysis.Profile = DetectDailyProfile(all)
	return analysis
}

func sortedByTime(samples []DemandSample) []DemandSample {
	out := append([]DemandSample(nil), samples...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// calculateDataQuality returns a 0-1 score. A full billing month of
// quarter-hour readings scores 1.
func calculateDataQuality(sampleCount int, timeSpan time.Duration) float64 {
	idealSamples := 30.0 * 96
	sampleScore := float64(sampleCount) / idealSamples
	if sampleScore > 1.0 {
		sampleScore = 1.0
	}

	idealDays := 30.0
	timeScore := timeSpan.Hours() / 24.0 / idealDays
	if timeScore > 1.0 {
		timeScore = 1.0
	}

	return (sampleScore * 0.6) + (timeScore * 0.4)
}
