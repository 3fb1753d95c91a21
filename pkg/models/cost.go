package models

// CostBreakdown is the annualized cost of one candidate for one invoice.
type CostBreakdown struct {
	PowerCost  float64 `json:"power_cost"`
	EnergyCost float64 `json:"energy_cost"`
	FixedFee   float64 `json:"fixed_fee"`
	Total      float64 `json:"total"`
}

// OptimizationResult is the power optimizer's proposal for one candidate.
type OptimizationResult struct {
	CurrentPower   PeriodValues `json:"current_power"`
	SuggestedPower PeriodValues `json:"suggested_power"`

	// PowerPrice is the candidate price the proposal was costed with.
	PowerPrice PeriodValues `json:"power_price"`

	// FixedCostDelta is optimized minus current annual power cost;
	// negative when the proposal is cheaper.
	FixedCostDelta float64 `json:"fixed_cost_delta"`
	AnnualSavings  float64 `json:"annual_savings"`
}

// Offer is one ranked entry of the engine output.
type Offer struct {
	Candidate       TariffCandidate `json:"candidate"`
	Cost            CostBreakdown   `json:"cost"`
	OfferAnnualCost float64         `json:"offer_annual_cost"`
	AnnualSavings   float64         `json:"annual_savings"`
	SavingsPercent  float64         `json:"savings_percent"`

	Optimization *OptimizationResult `json:"optimization,omitempty"`

	// PotentialAnnualSavings adds optimization savings, when positive, to
	// the tariff switch savings. Ranking does not use it.
	PotentialAnnualSavings float64 `json:"potential_annual_savings"`
}

// EngineResult is the complete output of one simulation run.
type EngineResult struct {
	SupplyID          string        `json:"supply_id,omitempty"`
	AccessTariff      string        `json:"access_tariff,omitempty"`
	PeriodDays        int           `json:"period_days"`
	CurrentAnnualCost float64       `json:"current_annual_cost"`
	Offers            []Offer       `json:"offers"`
	Opportunities     []Opportunity `json:"opportunities"`
	Methodology       string        `json:"methodology"`
}

// Best returns the top-ranked offer, or nil for an empty result.
func (r *EngineResult) Best() *Offer {
	if r == nil || len(r.Offers) == 0 {
		return nil
	}
	return &r.Offers[0]
}
