package normalizer

import (
	"fmt"
	"strings"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// Source keys per canonical field, in priority order. Extraction tools and
// manual forms label the same field in uppercase Spanish, lowercase Spanish,
// English and abbreviated variants.
var (
	keysPeriodDays = []string{
		"DIAS_FACTURADOS", "dias_facturados", "DIAS", "dias",
		"periodo_dias", "billing_days", "period_days", "days",
	}
	keysAccessTariff = []string{
		"TARIFA_ACCESO", "tarifa_acceso", "TARIFA", "tarifa", "peaje",
		"access_tariff", "tariff_name", "tariff",
	}
	keysSupplyID = []string{
		"CUPS", "cups", "supply_point", "supply_id",
	}
	keysSupplier = []string{
		"COMERCIALIZADORA", "comercializadora", "supplier", "retailer",
	}
	keysPowerCost = []string{
		"IMPORTE_POTENCIA", "importe_potencia", "TERMINO_POTENCIA", "termino_potencia",
		"power_cost", "power_term",
	}
	keysEnergyCost = []string{
		"IMPORTE_ENERGIA", "importe_energia", "TERMINO_ENERGIA", "termino_energia",
		"energy_cost", "energy_term",
	}
	keysFixedCharges = []string{
		"CARGOS_FIJOS", "cargos_fijos", "OTROS_CONCEPTOS", "otros_conceptos",
		"fixed_charges", "other_charges",
	}
	keysReactive = []string{
		"ENERGIA_REACTIVA", "energia_reactiva", "IMPORTE_REACTIVA", "importe_reactiva",
		"reactive_penalty", "reactive_energy_cost",
	}

	keysContractedPower = periodKeys(
		"POTENCIA_P%d", "potencia_p%d", "POT_P%d", "pot_p%d",
		"contracted_power_p%d", "power_p%d",
	)
	keysMaxDemand = periodKeys(
		"MAXIMETRO_P%d", "maximetro_p%d", "MAX_P%d", "max_p%d",
		"max_demand_p%d", "demand_p%d",
	)
	keysEnergy = periodKeys(
		"CONSUMO_P%d", "consumo_p%d", "ENERGIA_P%d", "energia_p%d", "E_P%d", "e_p%d",
		"energy_p%d", "consumption_p%d",
	)
)

// periodKeys expands patterns into one priority list per period.
func periodKeys(patterns ...string) [models.NumPeriods][]string {
	var out [models.NumPeriods][]string
	for _, p := range models.Periods {
		keys := make([]string, len(patterns))
		for i, pattern := range patterns {
			keys[i] = fmt.Sprintf(pattern, int(p)+1)
		}
		out[p] = keys
	}
	return out
}

// lookup returns the first present, non-empty value among keys.
func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && !isEmpty(v) {
			return v, true
		}
	}
	return nil, false
}

func lookupNumber(raw map[string]any, keys []string) float64 {
	v, ok := lookup(raw, keys)
	if !ok {
		return 0
	}
	return ParseNumber(v)
}

func lookupString(raw map[string]any, keys []string) string {
	v, ok := lookup(raw, keys)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case *string:
		return strings.TrimSpace(*x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func lookupPeriods(raw map[string]any, keys [models.NumPeriods][]string) models.PeriodValues {
	var out models.PeriodValues
	for _, p := range models.Periods {
		out[p] = lookupNumber(raw, keys[p])
	}
	return out
}
