package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// GenerateMarkdown creates a Markdown report
func GenerateMarkdown(report *Report, writer io.Writer) error {
	var b strings.Builder

	b.WriteString("# Tariff Simulation Report\n\n")
	if report.SupplyID != "" {
		fmt.Fprintf(&b, "**Supply point:** %s  \n", report.SupplyID)
	}
	if report.AccessTariff != "" {
		fmt.Fprintf(&b, "**Access tariff:** %s  \n", report.AccessTariff)
	}
	fmt.Fprintf(&b, "**Billing period:** %d days  \n", report.Result.PeriodDays)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Current annual cost: %.2f EUR\n", report.CurrentAnnualCost)
	fmt.Fprintf(&b, "- Best annual savings: %.2f EUR\n", report.BestSavings)
	fmt.Fprintf(&b, "- Potential savings with power optimization: %.2f EUR\n", report.PotentialSavings)
	fmt.Fprintf(&b, "- Offers cheaper than the current bill: %d of %d\n\n", report.SavingOffers, len(report.Result.Offers))

	b.WriteString("## Offers\n\n")
	b.WriteString("| # | Offer | Supplier | Total (EUR/yr) | Savings (EUR/yr) | Savings % |\n")
	b.WriteString("|---|---|---|---:|---:|---:|\n")
	for i, offer := range report.Result.Offers {
		fmt.Fprintf(&b, "| %d | %s | %s | %.2f | %.2f | %.1f |\n",
			i+1, cell(offer.Candidate.ID), cell(offer.Candidate.Supplier),
			offer.OfferAnnualCost, offer.AnnualSavings, offer.SavingsPercent)
	}

	if best := report.Result.Best(); best != nil && best.Optimization != nil {
		b.WriteString("\n## Contracted Power\n\n")
		b.WriteString("| Period | Current (kW) | Suggested (kW) |\n")
		b.WriteString("|---|---:|---:|\n")
		for _, p := range models.Periods {
			cur, sug := best.Optimization.CurrentPower[p], best.Optimization.SuggestedPower[p]
			if cur == 0 && sug == 0 {
				continue
			}
			fmt.Fprintf(&b, "| %s | %.1f | %.1f |\n", p, cur, sug)
		}
		fmt.Fprintf(&b, "\nOptimization savings: %.2f EUR/yr\n", best.Optimization.AnnualSavings)
	}

	if len(report.SupplierStats) > 0 {
		b.WriteString("\n## Suppliers\n\n")
		b.WriteString("| Supplier | Offers | Best savings (EUR/yr) | Average cost (EUR/yr) |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, s := range report.SupplierStats {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f |\n", cell(s.Supplier), s.Offers, s.BestSavings, s.AvgCost)
		}
	}

	if len(report.Result.Opportunities) > 0 {
		b.WriteString("\n## Opportunities\n\n")
		for _, op := range report.Result.Opportunities {
			fmt.Fprintf(&b, "- **[%s] %s**: %s", op.Impact, op.Kind, op.Message)
			if op.EstimatedAnnualSavings > 0 {
				fmt.Fprintf(&b, " (about %.2f EUR/yr", op.EstimatedAnnualSavings)
				if op.PaybackMonths != nil {
					fmt.Fprintf(&b, ", payback %.1f months", *op.PaybackMonths)
				}
				b.WriteString(")")
			}
			b.WriteString("\n")
		}
	}

	if report.Result.Methodology != "" {
		fmt.Fprintf(&b, "\n---\n_Methodology: %s_\n", report.Result.Methodology)
	}

	_, err := io.WriteString(writer, b.String())
	return err
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
