package pricing

import (
	"fmt"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

const (
	// DaysPerYear is the calendar year used for annualization.
	DaysPerYear = 365.0
	// MonthsPerYear multiplies monthly fees.
	MonthsPerYear = 12.0
)

// Methodology describes how figures are annualized. It travels with every
// result so callers see the uniform-consumption approximation.
const Methodology = "power cost = power price x contracted kW x 365; " +
	"energy cost = energy price x period kWh x 365/billing days (consumption assumed uniform across the year); " +
	"fixed fee = monthly fee x 12; no rounding applied"

// AnnualizationFactor scales a billing window to a calendar year.
func AnnualizationFactor(periodDays int) (float64, error) {
	if periodDays <= 0 {
		return 0, &models.DomainError{
			Op:     "annualize",
			Reason: fmt.Sprintf("billing period of %d days", periodDays),
		}
	}
	return DaysPerYear / float64(periodDays), nil
}

// AnnualPowerCost prices contracted power for a full year.
func AnnualPowerCost(price, power models.PeriodValues) float64 {
	return price.Dot(power) * DaysPerYear
}

// ComputeCost returns the annualized cost of a candidate for an invoice.
func ComputeCost(inv *models.NormalizedInvoice, c *models.TariffCandidate) (models.CostBreakdown, error) {
	factor, err := AnnualizationFactor(inv.PeriodDays)
	if err != nil {
		return models.CostBreakdown{}, err
	}

	var energy float64
	for _, p := range models.Periods {
		energy += c.EnergyPrice[p] * inv.Energy[p] * factor
	}

	cost := models.CostBreakdown{
		PowerCost:  AnnualPowerCost(c.PowerPrice, inv.ContractedPower),
		EnergyCost: energy,
		FixedFee:   c.MonthlyFee * MonthsPerYear,
	}
	cost.Total = cost.PowerCost + cost.EnergyCost + cost.FixedFee
	return cost, nil
}

// CurrentAnnualCost reconstructs the yearly cost of the invoice as billed.
// Energy and reactive amounts scale by 365/billing days; power and fixed
// charges are taken as annual-equivalent figures.
func CurrentAnnualCost(inv *models.NormalizedInvoice) (float64, error) {
	factor, err := AnnualizationFactor(inv.PeriodDays)
	if err != nil {
		return 0, err
	}
	return inv.PowerCost + inv.FixedCharges + (inv.EnergyCost+inv.ReactivePenalty)*factor, nil
}
