package output

import (
	"context"
	"fmt"
	"io"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// Handler defines the interface for output formatting
type Handler interface {
	DisplayResult(ctx context.Context, result *models.EngineResult) error
	DisplayHistory(ctx context.Context, summary *models.SavingsSummary, records []*models.SimulationRecord) error
	Format() string
}

// NewHandler returns the handler for a format name.
func NewHandler(format string, w io.Writer) (Handler, error) {
	switch format {
	case "text", "":
		return NewTextHandler(w), nil
	case "json":
		return NewJSONHandler(w), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
