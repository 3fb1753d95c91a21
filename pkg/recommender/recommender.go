// Package recommender detects billing anomalies and savings opportunities
// on a normalized invoice.
package recommender

import (
	"fmt"
	"strings"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/normalizer"
	"github.com/opscart/tariff-optimizer/pkg/pricing"
)

// Thresholds parameterize the detection rules.
type Thresholds struct {
	HighDailyKWh     float64 // average kWh/day above which consumption is flagged
	LowDailyKWh      float64 // average kWh/day below which a reading looks wrong
	MonthlyPowerCost float64 // EUR/month of power cost considered too high

	// OverrunPenaltyMultiplier is the factor applied to the power price for
	// demand above the contracted level.
	OverrunPenaltyMultiplier float64

	// CapacitorBankCost is the installed cost of power-factor correction.
	// Zero disables the reactive-energy payback estimate.
	CapacitorBankCost float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HighDailyKWh:             50,
		LowDailyKWh:              1,
		MonthlyPowerCost:         100,
		OverrunPenaltyMultiplier: 2.0,
	}
}

type Recommender struct {
	thresholds Thresholds
}

func New(thresholds Thresholds) *Recommender {
	return &Recommender{thresholds: thresholds}
}

// Detect evaluates every rule against the invoice and returns all findings
// in rule order. opt may be nil; it is only used to put a value on power
// findings.
func (r *Recommender) Detect(inv *models.NormalizedInvoice, opt *models.OptimizationResult) []models.Opportunity {
	found := []models.Opportunity{}

	rules := []func(*models.NormalizedInvoice, *models.OptimizationResult) *models.Opportunity{
		r.highConsumption,
		r.lowConsumption,
		r.powerTooHigh,
		r.powerOverrun,
		r.reactiveEnergy,
		r.loadShifting,
	}
	for _, rule := range rules {
		if op := rule(inv, opt); op != nil {
			found = append(found, *op)
		}
	}
	return found
}

// Outlook evaluates measured demand against the contracted power. It
// complements Detect when a load curve is available and returns nil
// without one.
func (r *Recommender) Outlook(inv *models.NormalizedInvoice, analysis *analyzer.DemandAnalysis) []models.Opportunity {
	if inv == nil || analysis == nil || len(analysis.Periods) == 0 {
		return nil
	}
	var found []models.Opportunity
	for _, rule := range []func(*models.NormalizedInvoice, *analyzer.DemandAnalysis) *models.Opportunity{
		r.demandGrowth,
		r.peakShaving,
	} {
		if op := rule(inv, analysis); op != nil {
			found = append(found, *op)
		}
	}
	return found
}

// demandGrowth flags periods whose growing demand is projected past the
// contracted power within six months.
func (r *Recommender) demandGrowth(inv *models.NormalizedInvoice, analysis *analyzer.DemandAnalysis) *models.Opportunity {
	var parts []string
	for _, pd := range analysis.Periods {
		contracted := inv.ContractedPower[pd.Period]
		g := pd.Growth
		if !g.IsGrowing || contracted <= 0 || g.Predicted6Month <= contracted {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.1f kW against %.1f kW (+%.1f%%/month)",
			pd.Period, g.Predicted6Month, contracted, g.RatePerMonth))
	}
	if len(parts) == 0 {
		return nil
	}
	return &models.Opportunity{
		Kind:     models.OpportunityDemandGrowth,
		Category: models.CategoryInformation,
		Message: fmt.Sprintf("Measured demand is growing and will exceed contracted power within six months: %s; review the contract before overruns are billed",
			strings.Join(parts, ", ")),
		Impact: models.ImpactNone,
	}
}

// peakShaving flags spiky periods where only short peaks pass the
// contracted power while the 95th percentile stays below it.
func (r *Recommender) peakShaving(inv *models.NormalizedInvoice, analysis *analyzer.DemandAnalysis) *models.Opportunity {
	var periods []string
	for _, pd := range analysis.Periods {
		contracted := inv.ContractedPower[pd.Period]
		if contracted <= 0 || !spiky(pd.Pattern) {
			continue
		}
		if pd.Percentiles.Peak > contracted && pd.Percentiles.P95 <= contracted {
			periods = append(periods, pd.Period.String())
		}
	}
	if len(periods) == 0 {
		return nil
	}
	return &models.Opportunity{
		Kind:     models.OpportunityPeakShaving,
		Category: models.CategoryInformation,
		Message: fmt.Sprintf("Demand in %s is spiky and only brief peaks exceed contracted power; staggering large loads avoids the overrun",
			strings.Join(periods, ", ")),
		Impact: models.ImpactNone,
	}
}

func spiky(p analyzer.LoadPattern) bool {
	return p.Type == "spiky" || p.Type == "highly-variable"
}

func dailyEnergy(inv *models.NormalizedInvoice) (float64, bool) {
	if inv.PeriodDays <= 0 {
		return 0, false
	}
	return inv.TotalEnergy() / float64(inv.PeriodDays), true
}

func (r *Recommender) highConsumption(inv *models.NormalizedInvoice, _ *models.OptimizationResult) *models.Opportunity {
	daily, ok := dailyEnergy(inv)
	if !ok || r.thresholds.HighDailyKWh <= 0 || daily <= r.thresholds.HighDailyKWh {
		return nil
	}
	return &models.Opportunity{
		Kind:     models.OpportunityHighConsumption,
		Category: models.CategoryInformation,
		Message: fmt.Sprintf("Average consumption of %.1f kWh/day is above %.0f kWh/day; review equipment schedules and efficiency",
			daily, r.thresholds.HighDailyKWh),
		Impact: models.ImpactNone,
	}
}

func (r *Recommender) lowConsumption(inv *models.NormalizedInvoice, _ *models.OptimizationResult) *models.Opportunity {
	daily, ok := dailyEnergy(inv)
	if !ok || inv.TotalEnergy() <= 0 || daily >= r.thresholds.LowDailyKWh {
		return nil
	}
	return &models.Opportunity{
		Kind:     models.OpportunityDataQuality,
		Category: models.CategoryDataQuality,
		Message: fmt.Sprintf("Average consumption of %.2f kWh/day is unusually low; check the meter reading",
			daily),
		Impact: models.ImpactNone,
	}
}

func (r *Recommender) powerTooHigh(inv *models.NormalizedInvoice, opt *models.OptimizationResult) *models.Opportunity {
	monthly := inv.PowerCost / pricing.MonthsPerYear
	if r.thresholds.MonthlyPowerCost <= 0 || monthly <= r.thresholds.MonthlyPowerCost {
		return nil
	}

	op := &models.Opportunity{
		Kind:     models.OpportunityPowerTooHigh,
		Category: models.CategorySavings,
		Message: fmt.Sprintf("Power cost of %.2f EUR/month suggests contracted power above actual needs",
			monthly),
	}
	if opt != nil && opt.AnnualSavings > 0 {
		op.EstimatedAnnualSavings = opt.AnnualSavings
		op.Message += fmt.Sprintf("; adjusting to %s saves about %.2f EUR/year",
			formatPower(opt.SuggestedPower), opt.AnnualSavings)
	}
	op.Impact = impactFor(op.EstimatedAnnualSavings)
	return op
}

func (r *Recommender) powerOverrun(inv *models.NormalizedInvoice, opt *models.OptimizationResult) *models.Opportunity {
	var periods []string
	var excess models.PeriodValues
	for _, p := range models.Periods {
		if d := inv.MaxDemand[p] - inv.ContractedPower[p]; inv.MaxDemand[p] > 0 && d > 0 {
			excess[p] = d
			periods = append(periods, p.String())
		}
	}
	if len(periods) == 0 {
		return nil
	}

	op := &models.Opportunity{
		Kind:     models.OpportunityPowerOverrun,
		Category: models.CategorySavings,
		Message: fmt.Sprintf("Maximum demand exceeds contracted power in %s; overrun is billed at a penalty rate",
			strings.Join(periods, ", ")),
	}
	if opt != nil && r.thresholds.OverrunPenaltyMultiplier > 1 {
		op.EstimatedAnnualSavings = excess.Dot(opt.PowerPrice) * pricing.DaysPerYear * (r.thresholds.OverrunPenaltyMultiplier - 1)
	}
	op.Impact = impactFor(op.EstimatedAnnualSavings)
	return op
}

func (r *Recommender) reactiveEnergy(inv *models.NormalizedInvoice, _ *models.OptimizationResult) *models.Opportunity {
	if inv.ReactivePenalty <= 0 {
		return nil
	}

	op := &models.Opportunity{
		Kind:     models.OpportunityReactiveEnergy,
		Category: models.CategorySavings,
		Message: fmt.Sprintf("Reactive energy penalty of %.2f EUR indicates a poor power factor; consider a capacitor bank",
			inv.ReactivePenalty),
	}
	if r.thresholds.CapacitorBankCost > 0 {
		if factor, err := pricing.AnnualizationFactor(inv.PeriodDays); err == nil {
			savings := inv.ReactivePenalty * factor
			payback := r.thresholds.CapacitorBankCost / savings * pricing.MonthsPerYear
			op.EstimatedAnnualSavings = savings
			op.PaybackMonths = &payback
		}
	}
	op.Impact = impactFor(op.EstimatedAnnualSavings)
	return op
}

func (r *Recommender) loadShifting(inv *models.NormalizedInvoice, _ *models.OptimizationResult) *models.Opportunity {
	if !normalizer.IsTimeDiscriminated(inv.AccessTariff) {
		return nil
	}
	return &models.Opportunity{
		Kind:     models.OpportunityLoadShifting,
		Category: models.CategoryInformation,
		Message: fmt.Sprintf("Tariff %s bills energy by time of use; moving flexible loads to off-peak periods lowers the energy cost",
			inv.AccessTariff),
		Impact: models.ImpactNone,
	}
}

// impactFor bands an annual EUR figure.
func impactFor(annual float64) models.Impact {
	switch {
	case annual > 600:
		return models.ImpactHigh
	case annual > 240:
		return models.ImpactMedium
	case annual > 0:
		return models.ImpactLow
	default:
		return models.ImpactNone
	}
}

func formatPower(v models.PeriodValues) string {
	parts := make([]string, 0, models.NumPeriods)
	for _, p := range models.Periods {
		if v[p] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%.1f kW", p, v[p]))
		}
	}
	return strings.Join(parts, " ")
}
