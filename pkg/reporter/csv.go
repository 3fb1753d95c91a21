package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// GenerateCSV creates a CSV report
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{
		"Rank",
		"Offer",
		"Supplier",
		"Kind",
		"Power Cost (EUR/yr)",
		"Energy Cost (EUR/yr)",
		"Fixed Fee (EUR/yr)",
		"Total (EUR/yr)",
		"Annual Savings (EUR)",
		"Savings (%)",
		"Optimization Savings (EUR/yr)",
		"Potential Savings (EUR/yr)",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, offer := range report.Result.Offers {
		optSavings := ""
		if offer.Optimization != nil {
			optSavings = fmt.Sprintf("%.2f", offer.Optimization.AnnualSavings)
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			offer.Candidate.ID,
			offer.Candidate.Supplier,
			string(offer.Candidate.Kind),
			fmt.Sprintf("%.2f", offer.Cost.PowerCost),
			fmt.Sprintf("%.2f", offer.Cost.EnergyCost),
			fmt.Sprintf("%.2f", offer.Cost.FixedFee),
			fmt.Sprintf("%.2f", offer.Cost.Total),
			fmt.Sprintf("%.2f", offer.AnnualSavings),
			fmt.Sprintf("%.1f", offer.SavingsPercent),
			optSavings,
			fmt.Sprintf("%.2f", offer.PotentialAnnualSavings),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	rows := [][]string{
		{},
		{"SUMMARY"},
		{"Supply Point", report.SupplyID},
		{"Access Tariff", report.AccessTariff},
		{"Current Annual Cost", fmt.Sprintf("%.2f", report.CurrentAnnualCost)},
		{"Best Annual Savings", fmt.Sprintf("%.2f", report.BestSavings)},
		{"Offers With Savings", fmt.Sprintf("%d", report.SavingOffers)},
		{},
		{"OPPORTUNITIES"},
		{"Kind", "Category", "Impact", "Estimated Savings (EUR/yr)", "Message"},
	}
	for _, op := range report.Result.Opportunities {
		rows = append(rows, []string{
			string(op.Kind),
			string(op.Category),
			string(op.Impact),
			fmt.Sprintf("%.2f", op.EstimatedAnnualSavings),
			op.Message,
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV summary: %w", err)
	}
	return nil
}
