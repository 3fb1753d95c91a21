package pricing

import (
	"context"
	"time"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// Provider supplies the tariff catalogue a simulation runs against.
type Provider interface {
	// ListCandidates returns active offers. A non-empty accessTariff keeps
	// only offers for that class plus offers valid for any class.
	ListCandidates(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error)
	Name() string
}

type Config struct {
	Source   string // static, file, postgres
	Path     string
	CacheTTL time.Duration
}

// filterByAccessTariff keeps catalogue order.
func filterByAccessTariff(candidates []models.TariffCandidate, accessTariff string) []models.TariffCandidate {
	if accessTariff == "" {
		return append([]models.TariffCandidate(nil), candidates...)
	}
	out := make([]models.TariffCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AccessTariff == "" || c.AccessTariff == accessTariff {
			out = append(out, c)
		}
	}
	return out
}
