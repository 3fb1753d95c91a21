package models

import "time"

// SimulationRecord is a persisted simulation run.
type SimulationRecord struct {
	ID                string        `json:"id"`
	SupplyID          string        `json:"supply_id"`
	AccessTariff      string        `json:"access_tariff,omitempty"`
	CurrentAnnualCost float64       `json:"current_annual_cost"`
	BestOfferID       string        `json:"best_offer_id,omitempty"`
	BestSavings       float64       `json:"best_savings"`
	OfferCount        int           `json:"offer_count"`
	Result            *EngineResult `json:"result,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	CreatedBy         string        `json:"created_by,omitempty"`
}

// SavingsSummary aggregates stored simulations for one supply point.
type SavingsSummary struct {
	SupplyID         string    `json:"supply_id"`
	Simulations      int       `json:"simulations"`
	MaxSavings       float64   `json:"max_savings"`
	AvgSavings       float64   `json:"avg_savings"`
	LastSimulationAt time.Time `json:"last_simulation_at"`
}
