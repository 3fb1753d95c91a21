// Package normalizer turns heterogeneous invoice fields, as produced by
// document extraction or manual entry, into a models.NormalizedInvoice.
package normalizer

import (
	"math"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// DefaultPeriodDays is used when the billing length is absent, not positive
// or above MaxPeriodDays.
const DefaultPeriodDays = 30

// MaxPeriodDays bounds a plausible billing length. Larger values are read
// as garbage.
const MaxPeriodDays = 3660

// RawInvoice is the unstructured input: field name to raw value.
type RawInvoice map[string]any

// Overrides carries manual corrections entered by a consultant.
// A non-zero override wins over the extracted value for the same period.
type Overrides struct {
	MaxDemand models.PeriodValues `json:"max_demand" yaml:"max_demand"`
}

// Normalizer holds the defaults applied during normalization.
type Normalizer struct {
	defaultPeriodDays int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDefaultPeriodDays overrides the billing length used when absent.
func WithDefaultPeriodDays(days int) Option {
	return func(n *Normalizer) {
		if days > 0 {
			n.defaultPeriodDays = days
		}
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{defaultPeriodDays: DefaultPeriodDays}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize applies the package defaults.
func Normalize(raw RawInvoice, overrides *Overrides) (*models.NormalizedInvoice, error) {
	return New().Normalize(raw, overrides)
}

// Normalize builds the canonical invoice. Malformed values become zero; only a
// nil raw input is rejected.
func (n *Normalizer) Normalize(raw RawInvoice, overrides *Overrides) (*models.NormalizedInvoice, error) {
	if raw == nil {
		return nil, &models.InvalidInputError{Reason: "raw invoice is missing"}
	}

	inv := &models.NormalizedInvoice{
		SupplyID:        lookupString(raw, keysSupplyID),
		CurrentSupplier: lookupString(raw, keysSupplier),
		PeriodDays:      n.periodDays(raw),
		ContractedPower: lookupPeriods(raw, keysContractedPower),
		MaxDemand:       lookupPeriods(raw, keysMaxDemand),
		Energy:          lookupPeriods(raw, keysEnergy),
		PowerCost:       lookupNumber(raw, keysPowerCost),
		EnergyCost:      lookupNumber(raw, keysEnergyCost),
		FixedCharges:    lookupNumber(raw, keysFixedCharges),
		ReactivePenalty: lookupNumber(raw, keysReactive),
	}

	if overrides != nil {
		for _, p := range models.Periods {
			if v := overrides.MaxDemand[p]; v > 0 && !math.IsInf(v, 0) {
				inv.MaxDemand[p] = v
			}
		}
	}

	inv.AccessTariff = InferAccessTariff(lookupString(raw, keysAccessTariff))
	if inv.AccessTariff == "" {
		inv.AccessTariff = inferFromShape(inv.ContractedPower, inv.Energy)
	}

	return inv, nil
}

func (n *Normalizer) periodDays(raw RawInvoice) int {
	v := math.Round(lookupNumber(raw, keysPeriodDays))
	if math.IsNaN(v) || v <= 0 || v > MaxPeriodDays {
		return n.defaultPeriodDays
	}
	return int(v)
}
