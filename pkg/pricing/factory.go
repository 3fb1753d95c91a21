package pricing

import (
	"context"
	"fmt"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// TariffLister is the storage capability the postgres source needs.
type TariffLister interface {
	ListActiveTariffs(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error)
}

// StoreProvider reads active tariffs from the relational store.
type StoreProvider struct {
	store TariffLister
}

func NewStoreProvider(store TariffLister) *StoreProvider {
	return &StoreProvider{store: store}
}

func (s *StoreProvider) Name() string {
	return "postgres"
}

func (s *StoreProvider) ListCandidates(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error) {
	candidates, err := s.store.ListActiveTariffs(ctx, accessTariff)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tariffs: %w", err)
	}
	return candidates, nil
}

// NewProvider creates a catalogue provider from config. The store is only
// required for the postgres source.
func NewProvider(config *Config, store TariffLister) (Provider, error) {
	var provider Provider

	switch config.Source {
	case "file":
		if config.Path == "" {
			return nil, fmt.Errorf("catalogue path is required for the file source")
		}
		provider = NewFileProvider(config.Path)
	case "postgres":
		if store == nil {
			return nil, fmt.Errorf("postgres catalogue requires storage")
		}
		provider = NewStoreProvider(store)
	case "static", "":
		provider = NewStaticProvider(nil)
	default:
		return nil, fmt.Errorf("unknown catalogue source: %s", config.Source)
	}

	if config.CacheTTL > 0 {
		return NewCachedProvider(provider, config.CacheTTL), nil
	}
	return provider, nil
}
