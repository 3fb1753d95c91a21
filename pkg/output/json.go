package output

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// JSONHandler writes indented JSON documents.
type JSONHandler struct {
	w io.Writer
}

func NewJSONHandler(w io.Writer) *JSONHandler {
	return &JSONHandler{w: w}
}

func (h *JSONHandler) Format() string {
	return "json"
}

func (h *JSONHandler) encode(v any) error {
	enc := json.NewEncoder(h.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (h *JSONHandler) DisplayResult(ctx context.Context, result *models.EngineResult) error {
	return h.encode(result)
}

type historyEntry struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	BestOfferID string    `json:"best_offer_id,omitempty"`
	BestSavings float64   `json:"best_savings"`
	OfferCount  int       `json:"offer_count"`
}

type historyDocument struct {
	SupplyID    string         `json:"supply_id"`
	Simulations int            `json:"simulations"`
	MaxSavings  float64        `json:"max_savings"`
	AvgSavings  float64        `json:"avg_savings"`
	Entries     []historyEntry `json:"entries"`
}

func (h *JSONHandler) DisplayHistory(ctx context.Context, summary *models.SavingsSummary, records []*models.SimulationRecord) error {
	doc := historyDocument{Entries: make([]historyEntry, 0, len(records))}
	if summary != nil {
		doc.SupplyID = summary.SupplyID
		doc.Simulations = summary.Simulations
		doc.MaxSavings = summary.MaxSavings
		doc.AvgSavings = summary.AvgSavings
	}
	for _, rec := range records {
		doc.Entries = append(doc.Entries, historyEntry{
			ID:          rec.ID,
			CreatedAt:   rec.CreatedAt,
			BestOfferID: rec.BestOfferID,
			BestSavings: rec.BestSavings,
			OfferCount:  rec.OfferCount,
		})
	}
	return h.encode(doc)
}
