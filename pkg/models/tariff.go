package models

import (
	"fmt"
	"math"
)

// PricingKind distinguishes fixed-price offers from market-indexed ones.
type PricingKind string

const (
	PricingFixed   PricingKind = "fixed"
	PricingIndexed PricingKind = "indexed"
)

// TariffCandidate is one marketable offer from the catalogue.
type TariffCandidate struct {
	ID       string      `json:"id" yaml:"id"`
	Supplier string      `json:"supplier" yaml:"supplier"`
	Name     string      `json:"name,omitempty" yaml:"name"`
	Kind     PricingKind `json:"kind" yaml:"kind"`

	// AccessTariff restricts the offer to one class; empty means any.
	AccessTariff string `json:"access_tariff,omitempty" yaml:"access_tariff"`

	PowerPrice  PeriodValues `json:"power_price" yaml:"power_price"`   // EUR/kW/day
	EnergyPrice PeriodValues `json:"energy_price" yaml:"energy_price"` // EUR/kWh
	MonthlyFee  float64      `json:"monthly_fee" yaml:"monthly_fee"`   // EUR/month

	DurationMonths   int `json:"duration_months,omitempty" yaml:"duration_months"`
	PermanenceMonths int `json:"permanence_months,omitempty" yaml:"permanence_months"`
}

// Validate checks the catalogue invariants: identity present, prices finite
// and >= 0.
func (c *TariffCandidate) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("tariff candidate: empty id")
	}
	if c.Kind != "" && c.Kind != PricingFixed && c.Kind != PricingIndexed {
		return fmt.Errorf("tariff candidate %s: unknown pricing kind %q", c.ID, c.Kind)
	}
	for _, p := range Periods {
		if !validPrice(c.PowerPrice[p]) {
			return fmt.Errorf("tariff candidate %s: invalid power price %v in %s", c.ID, c.PowerPrice[p], p)
		}
		if !validPrice(c.EnergyPrice[p]) {
			return fmt.Errorf("tariff candidate %s: invalid energy price %v in %s", c.ID, c.EnergyPrice[p], p)
		}
	}
	if !validPrice(c.MonthlyFee) {
		return fmt.Errorf("tariff candidate %s: invalid monthly fee %v", c.ID, c.MonthlyFee)
	}
	return nil
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
