package optimizer

import (
	"context"
	"math"

	"github.com/iwvelando/price-optimizer/pkg/constants"
	"go.uber.org/zap"
)

// Cost sources reported in results.
const (
	CostSourceRequest = "request"
	CostSourceCatalog = "catalog"
	CostSourceMargin  = "margin"
)

// CategoryMargins are typical gross margins used when no unit cost is known.
var CategoryMargins = map[string]float64{
	"BREAKFAST CEREAL":                  0.35,
	"TOTAL COFFEE":                      0.40,
	"ICE COFFEE":                        0.35,
	"MUESLI / CEREAL & NUTRITIONAL BAR": 0.38,
	"PET CARE":                          0.35,
	"CONFECTIONERY":                     0.38,
	"DAIRY":                             0.25,
	"HOT BEVERAGES":                     0.40,
}

// EstimateCost asks the cost oracle first and falls back to the category
// margin table. The second return value names the source used.
func (r *Runner) EstimateCost(ctx context.Context, category, productName string, price float64) (float64, string) {
	if r.costs != nil {
		cost, err := r.costs.EstimateCost(ctx, productName)
		switch {
		case err != nil:
			r.logger.Debug("cost oracle had no cost, using margin table",
				zap.String("op", "optimizer.EstimateCost"),
				zap.String("product", productName),
				zap.Error(err),
			)
		case cost > 0:
			return cost, CostSourceCatalog
		}
	}
	return r.marginCost(category, price), CostSourceMargin
}

// marginCost is price×(1−margin), never below half the price.
func (r *Runner) marginCost(category string, price float64) float64 {
	margin := r.marginFor(category)
	return math.Max(price*(1-margin), price*constants.DefaultMinCostRatio)
}

func (r *Runner) marginFor(category string) float64 {
	key := canonicalCategory(category)
	if margin, ok := r.conf.CategoryMargins[key]; ok {
		return margin
	}
	if margin, ok := CategoryMargins[key]; ok {
		return margin
	}
	return constants.DefaultFallbackMargin
}
