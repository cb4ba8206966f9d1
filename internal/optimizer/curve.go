package optimizer

import (
	"github.com/iwvelando/price-optimizer/internal/elasticity"
	"github.com/iwvelando/price-optimizer/pkg/mathutil"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
)

// DemandCurve samples points evenly spaced prices across the result's band
// using the adjusted elasticity at the optimum.
func DemandCurve(result optimization.Result, points int) []optimization.PricePoint {
	if result.CurrentPrice <= 0 || points <= 0 {
		return nil
	}
	prices := mathutil.Linspace(result.Band.MinPrice, result.Band.MaxPrice, points)
	curve := make([]optimization.PricePoint, 0, len(prices))
	for _, price := range prices {
		demand := elasticity.DemandAt(result.Current.Demand, result.AdjustedElasticity, result.CurrentPrice, price)
		curve = append(curve, pricePoint(price, demand, result.EstimatedCost,
			mathutil.PercentChange(result.CurrentPrice, price), result.AdjustedElasticity))
	}
	return curve
}

// DemandCurve samples the configured number of display points for result.
func (r *Runner) DemandCurve(result optimization.Result) []optimization.PricePoint {
	return DemandCurve(result, r.conf.DemandCurvePoints)
}
