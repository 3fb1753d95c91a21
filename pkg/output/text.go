package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// TextHandler prints human-readable tables.
type TextHandler struct {
	w io.Writer
}

func NewTextHandler(w io.Writer) *TextHandler {
	return &TextHandler{w: w}
}

func (h *TextHandler) Format() string {
	return "text"
}

func (h *TextHandler) DisplayResult(ctx context.Context, result *models.EngineResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Supply point:   %s\n", orDash(result.SupplyID))
	fmt.Fprintf(&b, "Access tariff:  %s\n", orDash(result.AccessTariff))
	fmt.Fprintf(&b, "Billing period: %d days\n", result.PeriodDays)
	fmt.Fprintf(&b, "Current cost:   %.2f EUR/yr\n\n", result.CurrentAnnualCost)

	fmt.Fprintf(&b, "%-4s %-24s %-16s %12s %12s %8s\n", "#", "OFFER", "SUPPLIER", "COST/YR", "SAVINGS/YR", "SAVING%")
	for i, offer := range result.Offers {
		fmt.Fprintf(&b, "%-4d %-24s %-16s %12.2f %12.2f %7.1f%%\n",
			i+1, truncate(offer.Candidate.ID, 24), truncate(offer.Candidate.Supplier, 16),
			offer.OfferAnnualCost, offer.AnnualSavings, offer.SavingsPercent)
	}

	if best := result.Best(); best != nil && best.Optimization != nil {
		opt := best.Optimization
		b.WriteString("\nContracted power (best offer):\n")
		for _, p := range models.Periods {
			if opt.CurrentPower[p] == 0 && opt.SuggestedPower[p] == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %s: %.1f kW -> %.1f kW\n", p, opt.CurrentPower[p], opt.SuggestedPower[p])
		}
		fmt.Fprintf(&b, "  Optimization savings: %.2f EUR/yr\n", opt.AnnualSavings)
	}

	if len(result.Opportunities) > 0 {
		b.WriteString("\nOpportunities:\n")
		for _, op := range result.Opportunities {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", op.Impact, op.Kind, op.Message)
			if op.EstimatedAnnualSavings > 0 {
				fmt.Fprintf(&b, "      Estimated savings: %.2f EUR/yr", op.EstimatedAnnualSavings)
				if op.PaybackMonths != nil {
					fmt.Fprintf(&b, ", payback %.1f months", *op.PaybackMonths)
				}
				b.WriteString("\n")
			}
		}
	}

	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *TextHandler) DisplayHistory(ctx context.Context, summary *models.SavingsSummary, records []*models.SimulationRecord) error {
	var b strings.Builder

	if summary != nil {
		fmt.Fprintf(&b, "Supply point %s: %d simulations, max savings %.2f EUR/yr, average %.2f EUR/yr\n\n",
			summary.SupplyID, summary.Simulations, summary.MaxSavings, summary.AvgSavings)
	}
	if len(records) == 0 {
		b.WriteString("No stored simulations\n")
	} else {
		fmt.Fprintf(&b, "%-36s  %-16s  %-24s %12s %6s\n", "ID", "CREATED", "BEST OFFER", "SAVINGS/YR", "OFFERS")
		for _, rec := range records {
			fmt.Fprintf(&b, "%-36s  %-16s  %-24s %12.2f %6d\n",
				rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), truncate(orDash(rec.BestOfferID), 24),
				rec.BestSavings, rec.OfferCount)
		}
	}

	_, err := io.WriteString(h.w, b.String())
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
