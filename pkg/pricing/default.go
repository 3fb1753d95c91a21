package pricing

import (
	"context"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// StaticProvider serves a fixed in-memory catalogue.
type StaticProvider struct {
	candidates []models.TariffCandidate
}

func NewStaticProvider(candidates []models.TariffCandidate) *StaticProvider {
	return &StaticProvider{
		candidates: append([]models.TariffCandidate(nil), candidates...),
	}
}

func (s *StaticProvider) Name() string {
	return "static"
}

func (s *StaticProvider) ListCandidates(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error) {
	return filterByAccessTariff(s.candidates, accessTariff), nil
}
