package models

// NormalizedInvoice is the canonical billing record the engine works on.
// Every physical and monetary quantity is a plain number; absence has
// already been resolved to zero by the normalizer.
type NormalizedInvoice struct {
	SupplyID        string `json:"supply_id,omitempty"`
	CurrentSupplier string `json:"current_supplier,omitempty"`

	// AccessTariff is the regulated class, e.g. "2.0TD", "3.0TD", "6.1".
	AccessTariff string `json:"access_tariff,omitempty"`

	PeriodDays int `json:"period_days"`

	ContractedPower PeriodValues `json:"contracted_power"` // kW
	MaxDemand       PeriodValues `json:"max_demand"`       // kW, zero when not measured
	Energy          PeriodValues `json:"energy"`           // kWh over the billing period

	// Billed amounts in EUR.
	PowerCost       float64 `json:"power_cost"`
	EnergyCost      float64 `json:"energy_cost"`
	FixedCharges    float64 `json:"fixed_charges"`
	ReactivePenalty float64 `json:"reactive_penalty"`
}

// HasDemand reports whether any period carries a maximum-demand reading.
func (inv *NormalizedInvoice) HasDemand() bool {
	return !inv.MaxDemand.IsZero()
}

// TotalEnergy returns the consumption summed over all periods.
func (inv *NormalizedInvoice) TotalEnergy() float64 {
	return inv.Energy.Sum()
}
