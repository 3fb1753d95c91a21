// Package optimizer proposes the contracted power per period that covers the
// measured maximum demand at the lowest power cost.
package optimizer

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/pricing"
)

// DefaultIncrement is the admissible step (kW) for classes missing from the table.
const DefaultIncrement = 0.1

// Rules are the contracting rules the optimizer honours.
type Rules struct {
	// SafetyMargin is fractional headroom added to demand before rounding,
	// e.g. 0.05 for 5%.
	SafetyMargin float64

	DefaultIncrement float64

	// Increments maps an access-tariff class to its admissible step in kW.
	// A key ending in "x" ("6.x") covers the whole family. Keys are
	// case-insensitive.
	Increments map[string]float64
}

func DefaultRules() Rules {
	return Rules{
		DefaultIncrement: DefaultIncrement,
		Increments: map[string]float64{
			"2.0TD": 0.1,
			"3.0TD": 1,
			"6.x":   1,
		},
	}
}

type Optimizer struct {
	rules Rules
}

func New(rules Rules) *Optimizer {
	if rules.DefaultIncrement <= 0 {
		rules.DefaultIncrement = DefaultIncrement
	}
	if rules.SafetyMargin < 0 {
		rules.SafetyMargin = 0
	}
	rules.Increments = CanonicalIncrements(rules.Increments)
	return &Optimizer{rules: rules}
}

// CanonicalClass is the form access-tariff classes are compared in.
func CanonicalClass(class string) string {
	return strings.ToUpper(strings.TrimSpace(class))
}

// CanonicalIncrements returns a copy keyed by CanonicalClass. When several
// keys fold to the same class, the one sorting last wins, so the outcome
// does not depend on map order.
func CanonicalIncrements(in map[string]float64) map[string]float64 {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]float64, len(in))
	for _, k := range keys {
		out[CanonicalClass(k)] = in[k]
	}
	return out
}

// Increment returns the admissible step for an access-tariff class: the
// exact class first, then its "N.x" family, then the default.
func (o *Optimizer) Increment(accessTariff string) float64 {
	class := CanonicalClass(accessTariff)
	if step := o.rules.Increments[class]; step > 0 {
		return step
	}
	if len(class) >= 2 {
		if step := o.rules.Increments[class[:2]+"X"]; step > 0 {
			return step
		}
	}
	return o.rules.DefaultIncrement
}

// Suggest rounds demand plus margin up to the next multiple of step. The
// result is never below demand.
func (o *Optimizer) Suggest(demand, step float64) float64 {
	target := decimal.NewFromFloat(demand)
	if o.rules.SafetyMargin > 0 {
		target = target.Mul(decimal.NewFromFloat(1 + o.rules.SafetyMargin))
	}
	if step <= 0 {
		return target.InexactFloat64()
	}
	inc := decimal.NewFromFloat(step)
	// Div keeps DivisionPrecision digits, so a quotient far below one step
	// can truncate to zero.
	rounded := target.Div(inc).Ceil().Mul(inc)
	if rounded.LessThan(target) {
		rounded = rounded.Add(inc)
	}
	return rounded.InexactFloat64()
}

// OptimizePower returns nil when the invoice has no demand reading in any
// period. Periods without a reading keep their current contracted power, so
// an invoice already at the optimum yields a zero-savings result.
func (o *Optimizer) OptimizePower(inv *models.NormalizedInvoice, c *models.TariffCandidate) *models.OptimizationResult {
	if !inv.HasDemand() {
		return nil
	}

	step := o.Increment(inv.AccessTariff)
	suggested := inv.ContractedPower
	for _, p := range models.Periods {
		if demand := inv.MaxDemand[p]; demand > 0 {
			suggested[p] = o.Suggest(demand, step)
		}
	}

	current := pricing.AnnualPowerCost(c.PowerPrice, inv.ContractedPower)
	optimized := pricing.AnnualPowerCost(c.PowerPrice, suggested)

	return &models.OptimizationResult{
		CurrentPower:   inv.ContractedPower,
		SuggestedPower: suggested,
		PowerPrice:     c.PowerPrice,
		FixedCostDelta: optimized - current,
		AnnualSavings:  current - optimized,
	}
}
