// Package converter maps between storage rows, engine inputs and engine
// outputs.
package converter

import (
	"database/sql"
	"math"
	"strings"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/normalizer"
)

// TariffRow is one row of the tariffs table. Period prices may be NULL.
type TariffRow struct {
	ID               string
	Supplier         string
	Name             sql.NullString
	Kind             sql.NullString
	AccessTariff     sql.NullString
	PowerPrice       [models.NumPeriods]sql.NullFloat64
	EnergyPrice      [models.NumPeriods]sql.NullFloat64
	MonthlyFee       sql.NullFloat64
	DurationMonths   sql.NullInt64
	PermanenceMonths sql.NullInt64
}

// RowToCandidate coerces NULL, negative and non-finite prices to 0.
func RowToCandidate(row *TariffRow) models.TariffCandidate {
	c := models.TariffCandidate{
		ID:               row.ID,
		Supplier:         row.Supplier,
		Name:             row.Name.String,
		Kind:             models.PricingFixed,
		AccessTariff:     strings.TrimSpace(row.AccessTariff.String),
		MonthlyFee:       coerce(row.MonthlyFee),
		DurationMonths:   int(row.DurationMonths.Int64),
		PermanenceMonths: int(row.PermanenceMonths.Int64),
	}
	if strings.EqualFold(row.Kind.String, string(models.PricingIndexed)) {
		c.Kind = models.PricingIndexed
	}
	for _, p := range models.Periods {
		c.PowerPrice[p] = coerce(row.PowerPrice[p])
		c.EnergyPrice[p] = coerce(row.EnergyPrice[p])
	}
	return c
}

func RowsToCandidates(rows []TariffRow) []models.TariffCandidate {
	out := make([]models.TariffCandidate, 0, len(rows))
	for i := range rows {
		out = append(out, RowToCandidate(&rows[i]))
	}
	return out
}

func coerce(v sql.NullFloat64) float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) || v.Float64 < 0 {
		return 0
	}
	return v.Float64
}

// ResultToRecord prepares a result for storage. ID and CreatedAt are
// assigned by the store.
func ResultToRecord(result *models.EngineResult, createdBy string) *models.SimulationRecord {
	record := &models.SimulationRecord{
		SupplyID:          result.SupplyID,
		AccessTariff:      result.AccessTariff,
		CurrentAnnualCost: result.CurrentAnnualCost,
		OfferCount:        len(result.Offers),
		Result:            result,
		CreatedBy:         createdBy,
	}
	if best := result.Best(); best != nil {
		record.BestOfferID = best.Candidate.ID
		record.BestSavings = best.AnnualSavings
	}
	return record
}

// AnalysisToOverrides turns measured demand into manual overrides.
func AnalysisToOverrides(analysis *analyzer.DemandAnalysis) *normalizer.Overrides {
	if analysis == nil || analysis.MaxDemand.IsZero() {
		return nil
	}
	return &normalizer.Overrides{MaxDemand: analysis.MaxDemand}
}
