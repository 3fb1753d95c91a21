package storage

import (
	"context"
	"errors"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// ErrNotFound is returned when a stored simulation does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for persistent storage
type Store interface {
	SaveSimulation(ctx context.Context, rec *models.SimulationRecord) error
	GetSimulation(ctx context.Context, id string) (*models.SimulationRecord, error)
	ListSimulations(ctx context.Context, supplyID string, limit int) ([]*models.SimulationRecord, error)
	GetSavingsSummary(ctx context.Context, supplyID string) (*models.SavingsSummary, error)

	// ListActiveTariffs returns active catalogue rows as candidates. An empty
	// accessTariff returns every active row.
	ListActiveTariffs(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error)
	UpsertTariff(ctx context.Context, c *models.TariffCandidate) error

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Type string
	URL  string
}
