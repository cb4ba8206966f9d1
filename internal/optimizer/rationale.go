package optimizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/price-optimizer/internal/constraint"
	"github.com/iwvelando/price-optimizer/internal/elasticity"
	"github.com/iwvelando/price-optimizer/pkg/format"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
)

// Changes smaller than this (percent) are reported as keeping the price.
const nearOptimalPct = 1.0

func (r *Runner) money(amount float64) string {
	if r.currency == "" {
		return format.NumericCurrency(amount * r.displayRate)
	}
	return format.Currency(amount*r.displayRate, r.currency)
}

// rationale explains the selected price in one paragraph.
func (r *Runner) rationale(result optimization.Result, band constraint.Band, adj elasticity.Adjustment) string {
	var b strings.Builder
	change := result.PriceChangePct
	regime := fmt.Sprintf("With %s demand (adjusted elasticity: %.2f)", result.ElasticityType, result.AdjustedElasticity)

	switch {
	case math.Abs(change) < nearOptimalPct:
		fmt.Fprintf(&b, "The current price of %s is near-optimal. %s, it already gives the best balance of profit and volume.",
			r.money(result.CurrentPrice), regime)
	case change > 0:
		markup := 0.0
		if result.EstimatedCost > 0 {
			markup = (result.OptimalPrice - result.EstimatedCost) / result.EstimatedCost * 100
		}
		fmt.Fprintf(&b, "Raise the price by %.1f%% to %s. %s, demand falls %.1f%% to %.0f units, "+
			"but the wider margin (%.1f%% markup) more than offsets the lost volume and profit grows by %.1f%%.",
			change, r.money(result.OptimalPrice), regime, math.Abs(result.Improvements.DemandPct),
			result.Optimal.Demand, markup, result.Improvements.ProfitPct)
	default:
		fmt.Fprintf(&b, "Cut the price by %.1f%% to %s. %s, demand rises %.1f%% to %.0f units "+
			"and the extra volume outweighs the thinner margin, growing profit by %.1f%%.",
			math.Abs(change), r.money(result.OptimalPrice), regime, result.Improvements.DemandPct,
			result.Optimal.Demand, result.Improvements.ProfitPct)
	}

	tolerance := r.conf.BoundaryTolerance
	switch {
	case !result.Constrained:
		b.WriteString(" The optimum lies inside the demand-adjusted range.")
	case result.OptimalPrice >= band.MaxPrice-tolerance:
		fmt.Fprintf(&b, " The price sits at the +%.0f%% ceiling allowed for %s demand.",
			band.MaxIncreasePct, band.DemandLevel)
	case band.MarginRelaxed:
		fmt.Fprintf(&b, " The price sits at the relaxed floor; the minimum %.0f%% margin could not be met within the demand cap.",
			band.MinMarginPct)
	case band.MarginFloor >= band.MinPrice-tolerance:
		fmt.Fprintf(&b, " The price is held up by the minimum %.0f%% margin; anything lower would be unprofitable.",
			band.MinMarginPct)
	default:
		fmt.Fprintf(&b, " The price sits at the deepest allowed cut of %.0f%%.", band.MaxDecreasePct)
	}

	if adj.Tier != "" && adj.Factor != 1 {
		fmt.Fprintf(&b, " Elasticity reshaped as a %s (factor %.2f).", adj.Tier, adj.Factor)
	}
	return b.String()
}

// Interpret describes the adjusted elasticity of a result and the direction
// the recommendation moves the price.
func Interpret(result optimization.Result) optimization.Interpretation {
	category := elasticity.Classify(result.AdjustedElasticity)
	var text string
	switch category {
	case "elastic":
		text = "Demand is highly responsive to price changes; lower prices noticeably increase volume."
	case "inelastic":
		text = "Demand is relatively insensitive to price changes; increases will not reduce volume much."
	default:
		text = "Demand moves in proportion to price; revenue stays roughly stable."
	}
	text += fmt.Sprintf(" A 1%% price change moves demand by about %.2f%%.", math.Abs(result.AdjustedElasticity))

	direction := "hold"
	switch {
	case result.OptimalPrice > result.CurrentPrice:
		direction = "increase"
	case result.OptimalPrice < result.CurrentPrice:
		direction = "decrease"
	}
	return optimization.Interpretation{
		Coefficient:        result.AdjustedElasticity,
		Category:           category,
		Text:               text,
		MinPrice:           result.Band.MinPrice,
		MaxPrice:           result.Band.MaxPrice,
		SuggestedDirection: direction,
	}
}
