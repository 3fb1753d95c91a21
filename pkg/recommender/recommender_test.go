package recommender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/models"
)

func kinds(ops []models.Opportunity) []models.OpportunityKind {
	out := make([]models.OpportunityKind, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Kind)
	}
	return out
}

func find(ops []models.Opportunity, kind models.OpportunityKind) *models.Opportunity {
	for i := range ops {
		if ops[i].Kind == kind {
			return &ops[i]
		}
	}
	return nil
}

func TestDetectCleanInvoice(t *testing.T) {
	inv := &models.NormalizedInvoice{
		AccessTariff: "2.0A",
		PeriodDays:   30,
		Energy:       models.PeriodValues{300},
		PowerCost:    300,
	}
	ops := New(DefaultThresholds()).Detect(inv, nil)
	assert.NotNil(t, ops)
	assert.Empty(t, ops)
}

func TestDetectAllRulesFireInOrder(t *testing.T) {
	inv := &models.NormalizedInvoice{
		AccessTariff:    "3.0TD",
		PeriodDays:      30,
		ContractedPower: models.PeriodValues{10, 10},
		MaxDemand:       models.PeriodValues{12, 8},
		Energy:          models.PeriodValues{1200, 900, 600},
		PowerCost:       2400,
		ReactivePenalty: 15,
	}
	opt := &models.OptimizationResult{
		PowerPrice:     models.PeriodValues{0.05, 0.04},
		SuggestedPower: models.PeriodValues{12, 8},
		AnnualSavings:  -7.3,
	}

	ops := New(DefaultThresholds()).Detect(inv, opt)
	assert.Equal(t, []models.OpportunityKind{
		models.OpportunityHighConsumption,
		models.OpportunityPowerTooHigh,
		models.OpportunityPowerOverrun,
		models.OpportunityReactiveEnergy,
		models.OpportunityLoadShifting,
	}, kinds(ops))

	tooHigh := find(ops, models.OpportunityPowerTooHigh)
	assert.Zero(t, tooHigh.EstimatedAnnualSavings, "negative optimization savings are not reused")

	overrun := find(ops, models.OpportunityPowerOverrun)
	assert.InDelta(t, 2*0.05*365*(2.0-1), overrun.EstimatedAnnualSavings, 1e-9)
	assert.Contains(t, overrun.Message, "P1")
	assert.NotContains(t, overrun.Message, "P2")
}

func TestDetectHighConsumptionIsInformational(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 10, Energy: models.PeriodValues{600}}
	ops := New(DefaultThresholds()).Detect(inv, nil)
	require.Len(t, ops, 1)
	assert.Equal(t, models.CategoryInformation, ops[0].Category)
	assert.Zero(t, ops[0].EstimatedAnnualSavings)
	assert.Nil(t, ops[0].PaybackMonths)
}

func TestDetectLowConsumptionIsDataQuality(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 30, Energy: models.PeriodValues{12}}
	ops := New(DefaultThresholds()).Detect(inv, nil)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OpportunityDataQuality, ops[0].Kind)
	assert.Equal(t, models.CategoryDataQuality, ops[0].Category)

	zero := &models.NormalizedInvoice{PeriodDays: 30}
	assert.Empty(t, New(DefaultThresholds()).Detect(zero, nil), "zero total is not a low reading")
}

func TestDetectPowerTooHighUsesOptimizationSavings(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 30, PowerCost: 1800, Energy: models.PeriodValues{900}}
	opt := &models.OptimizationResult{SuggestedPower: models.PeriodValues{5}, AnnualSavings: 91.25}

	op := find(New(DefaultThresholds()).Detect(inv, opt), models.OpportunityPowerTooHigh)
	require.NotNil(t, op)
	assert.Equal(t, 91.25, op.EstimatedAnnualSavings)
	assert.Equal(t, models.ImpactLow, op.Impact)

	op = find(New(DefaultThresholds()).Detect(inv, nil), models.OpportunityPowerTooHigh)
	require.NotNil(t, op)
	assert.Zero(t, op.EstimatedAnnualSavings)
	assert.Equal(t, models.ImpactNone, op.Impact)
}

func TestDetectReactiveEnergy(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 30, Energy: models.PeriodValues{900}, ReactivePenalty: 30}

	op := find(New(DefaultThresholds()).Detect(inv, nil), models.OpportunityReactiveEnergy)
	require.NotNil(t, op)
	assert.Zero(t, op.EstimatedAnnualSavings, "no savings without a remediation cost")
	assert.Nil(t, op.PaybackMonths)

	th := DefaultThresholds()
	th.CapacitorBankCost = 730
	op = find(New(th).Detect(inv, nil), models.OpportunityReactiveEnergy)
	require.NotNil(t, op)
	assert.InDelta(t, 365, op.EstimatedAnnualSavings, 1e-9)
	require.NotNil(t, op.PaybackMonths)
	assert.InDelta(t, 24, *op.PaybackMonths, 1e-9)
}

func TestDetectOverrunWithoutOptimization(t *testing.T) {
	inv := &models.NormalizedInvoice{
		PeriodDays:      30,
		ContractedPower: models.PeriodValues{3},
		MaxDemand:       models.PeriodValues{4},
		Energy:          models.PeriodValues{300},
	}
	op := find(New(DefaultThresholds()).Detect(inv, nil), models.OpportunityPowerOverrun)
	require.NotNil(t, op)
	assert.Zero(t, op.EstimatedAnnualSavings)
}

func TestDetectSkipsDailyRulesWithoutPeriod(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 0, Energy: models.PeriodValues{5}, ReactivePenalty: 3}
	th := DefaultThresholds()
	th.CapacitorBankCost = 500

	ops := New(th).Detect(inv, nil)
	assert.Equal(t, []models.OpportunityKind{models.OpportunityReactiveEnergy}, kinds(ops))
	assert.Nil(t, ops[0].PaybackMonths)
}

func TestDetectLoadShifting(t *testing.T) {
	for class, want := range map[string]bool{"2.0TD": true, "6.1": true, "2.0A": false, "": false} {
		inv := &models.NormalizedInvoice{AccessTariff: class, PeriodDays: 30, Energy: models.PeriodValues{300}}
		op := find(New(DefaultThresholds()).Detect(inv, nil), models.OpportunityLoadShifting)
		assert.Equal(t, want, op != nil, class)
		if op != nil {
			assert.Zero(t, op.EstimatedAnnualSavings)
		}
	}
}

func TestImpactFor(t *testing.T) {
	assert.Equal(t, models.ImpactHigh, impactFor(1000))
	assert.Equal(t, models.ImpactMedium, impactFor(300))
	assert.Equal(t, models.ImpactLow, impactFor(10))
	assert.Equal(t, models.ImpactNone, impactFor(0))
}

func TestOutlookDemandGrowth(t *testing.T) {
	inv := &models.NormalizedInvoice{ContractedPower: models.PeriodValues{10, 10}}
	analysis := &analyzer.DemandAnalysis{Periods: []analyzer.PeriodDemand{
		{Period: models.P1, Growth: analyzer.GrowthTrend{IsGrowing: true, RatePerMonth: 6, Predicted6Month: 12.5}},
		{Period: models.P2, Growth: analyzer.GrowthTrend{IsGrowing: true, RatePerMonth: 4, Predicted6Month: 9}},
	}}

	ops := New(DefaultThresholds()).Outlook(inv, analysis)
	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, models.OpportunityDemandGrowth, op.Kind)
	assert.Equal(t, models.CategoryInformation, op.Category)
	assert.Contains(t, op.Message, "P1 12.5 kW against 10.0 kW")
	assert.NotContains(t, op.Message, "P2")
}

func TestOutlookIgnoresFlatOrUncontractedDemand(t *testing.T) {
	inv := &models.NormalizedInvoice{ContractedPower: models.PeriodValues{10}}
	analysis := &analyzer.DemandAnalysis{Periods: []analyzer.PeriodDemand{
		{Period: models.P1, Growth: analyzer.GrowthTrend{IsGrowing: false, Predicted6Month: 30}},
		{Period: models.P2, Growth: analyzer.GrowthTrend{IsGrowing: true, Predicted6Month: 30}},
	}}

	r := New(DefaultThresholds())
	assert.Empty(t, r.Outlook(inv, analysis))
	assert.Nil(t, r.Outlook(inv, nil))
	assert.Nil(t, r.Outlook(inv, &analyzer.DemandAnalysis{}))
}

func TestOutlookPeakShaving(t *testing.T) {
	inv := &models.NormalizedInvoice{ContractedPower: models.PeriodValues{10, 10, 10}}
	analysis := &analyzer.DemandAnalysis{Periods: []analyzer.PeriodDemand{
		{Period: models.P1, Pattern: analyzer.LoadPattern{Type: "spiky"}, Percentiles: analyzer.Percentiles{P95: 8, Peak: 14}},
		{Period: models.P2, Pattern: analyzer.LoadPattern{Type: "steady"}, Percentiles: analyzer.Percentiles{P95: 8, Peak: 14}},
		{Period: models.P3, Pattern: analyzer.LoadPattern{Type: "highly-variable"}, Percentiles: analyzer.Percentiles{P95: 11, Peak: 14}},
	}}

	ops := New(DefaultThresholds()).Outlook(inv, analysis)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OpportunityPeakShaving, ops[0].Kind)
	assert.Contains(t, ops[0].Message, "P1")
	assert.NotContains(t, ops[0].Message, "P2")
	assert.NotContains(t, ops[0].Message, "P3")
}

func TestOutlookFromAnalyzedCurve(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var samples []analyzer.DemandSample
	for i := 0; i < 2*analyzer.MinTrendSamples; i++ {
		ts := start.Add(time.Duration(i) * 15 * time.Minute)
		samples = append(samples, analyzer.DemandSample{Timestamp: ts, Value: 3 + 0.05*ts.Sub(start).Hours()})
	}
	analysis := analyzer.Analyze("ES001", map[models.Period][]analyzer.DemandSample{models.P1: samples}, analyzer.StatisticPeak)
	require.Len(t, analysis.Periods, 1)
	require.True(t, analysis.Periods[0].Growth.IsGrowing)

	inv := &models.NormalizedInvoice{ContractedPower: models.PeriodValues{6}}
	ops := New(DefaultThresholds()).Outlook(inv, analysis)
	assert.Equal(t, []models.OpportunityKind{models.OpportunityDemandGrowth}, kinds(ops))
}
