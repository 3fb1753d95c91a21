package normalizer

import (
	"regexp"
	"strings"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// accessTariffPattern matches "2.0TD", "3.0 TD", "6.1", "2.0DHA", "2,0 A".
var accessTariffPattern = regexp.MustCompile(`(?:^|[^0-9.,])([236])[.,]([0-4])(?:\s*(TD|DHA|DHS|DH|A))?(?:[^0-9A-Z]|$)`)

// InferAccessTariff extracts the access-tariff class from free text such as
// "Peaje de acceso 3.0TD" or "ATR 2.0 TD". It returns "" when nothing matches.
func InferAccessTariff(text string) string {
	upper := strings.ToUpper(text)
	m := accessTariffPattern.FindStringSubmatch(upper)
	if m == nil {
		return ""
	}
	return m[1] + "." + m[2] + m[3]
}

// inferFromShape guesses the class from which periods carry data when the
// invoice has no usable tariff name.
func inferFromShape(power, energy models.PeriodValues) string {
	powered := 0
	for _, p := range models.Periods {
		if power[p] > 0 {
			powered++
		}
	}
	switch {
	case powered > 2:
		return "3.0TD"
	case powered > 0 || energy[models.P2] > 0 || energy[models.P3] > 0:
		if energy[models.P4]+energy[models.P5]+energy[models.P6] > 0 {
			return "3.0TD"
		}
		return "2.0TD"
	default:
		return ""
	}
}

// IsTimeDiscriminated reports whether a class bills energy by time of use.
func IsTimeDiscriminated(class string) bool {
	c := strings.ToUpper(class)
	if strings.HasSuffix(c, "TD") || strings.Contains(c, "DH") {
		return true
	}
	return strings.HasPrefix(c, "3.") || strings.HasPrefix(c, "6.")
}
