package reporter

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "markdown"
	FormatCSV      ReportFormat = "csv"
)

// Report contains all data for exporting one simulation
type Report struct {
	SupplyID          string
	AccessTariff      string
	GeneratedAt       time.Time
	Result            *models.EngineResult
	CurrentAnnualCost float64
	BestSavings       float64
	SavingOffers      int // offers cheaper than the current bill
	PotentialSavings  float64
	SupplierStats     []*SupplierStats
	OpportunityStats  []*OpportunityStats
}

// SupplierStats holds statistics per supplier
type SupplierStats struct {
	Supplier    string
	Offers      int
	BestSavings float64
	AvgCost     float64
}

// OpportunityStats holds statistics per opportunity category
type OpportunityStats struct {
	Category      models.Category
	Count         int
	AnnualSavings float64
}

// Reporter generates simulation reports
type Reporter struct {
	format ReportFormat
	now    func() time.Time
}

// New creates a new reporter
func New(format ReportFormat) *Reporter {
	return &Reporter{
		format: format,
		now:    time.Now,
	}
}

// Generate builds a report from an engine result
func (r *Reporter) Generate(result *models.EngineResult) (*Report, error) {
	if result == nil {
		return nil, fmt.Errorf("no simulation result to report")
	}

	report := &Report{
		SupplyID:          result.SupplyID,
		AccessTariff:      result.AccessTariff,
		GeneratedAt:       r.now(),
		Result:            result,
		CurrentAnnualCost: result.CurrentAnnualCost,
	}
	r.calculateStats(report)
	return report, nil
}

// Write generates the report and renders it in the reporter's format.
func (r *Reporter) Write(result *models.EngineResult, w io.Writer) error {
	report, err := r.Generate(result)
	if err != nil {
		return err
	}
	switch r.format {
	case FormatCSV:
		return GenerateCSV(report, w)
	case FormatMarkdown, "md", "":
		return GenerateMarkdown(report, w)
	default:
		return fmt.Errorf("unsupported report format: %s", r.format)
	}
}

func (r *Reporter) calculateStats(report *Report) {
	result := report.Result
	if best := result.Best(); best != nil {
		report.BestSavings = best.AnnualSavings
		report.PotentialSavings = best.PotentialAnnualSavings
	}

	suppliers := make(map[string]*SupplierStats)
	for _, offer := range result.Offers {
		if offer.AnnualSavings > 0 {
			report.SavingOffers++
		}

		name := offer.Candidate.Supplier
		if name == "" {
			name = "unknown"
		}
		stat, exists := suppliers[name]
		if !exists {
			stat = &SupplierStats{Supplier: name, BestSavings: offer.AnnualSavings}
			suppliers[name] = stat
		}
		stat.Offers++
		stat.AvgCost += offer.OfferAnnualCost
		if offer.AnnualSavings > stat.BestSavings {
			stat.BestSavings = offer.AnnualSavings
		}
	}
	for _, stat := range suppliers {
		stat.AvgCost /= float64(stat.Offers)
		report.SupplierStats = append(report.SupplierStats, stat)
	}
	sort.Slice(report.SupplierStats, func(i, j int) bool {
		return report.SupplierStats[i].Supplier < report.SupplierStats[j].Supplier
	})

	categories := make(map[models.Category]*OpportunityStats)
	for _, op := range result.Opportunities {
		stat, exists := categories[op.Category]
		if !exists {
			stat = &OpportunityStats{Category: op.Category}
			categories[op.Category] = stat
			report.OpportunityStats = append(report.OpportunityStats, stat)
		}
		stat.Count++
		stat.AnnualSavings += op.EstimatedAnnualSavings
	}
}
