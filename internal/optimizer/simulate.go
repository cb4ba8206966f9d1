package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/iwvelando/price-optimizer/internal/elasticity"
	"github.com/iwvelando/price-optimizer/pkg/mathutil"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/iwvelando/price-optimizer/pkg/validation"
	"go.uber.org/zap"
)

var simulationLevels = []struct {
	ratio float64
	label string
}{
	{1.3, "Exceptional"},
	{1.15, "Very High"},
	{1.05, "High"},
	{0.95, "Normal"},
	{0.85, "Below Average"},
	{0.7, "Low"},
}

// Simulate evaluates a single proposed price, dc.CurrentPrice, against the
// product's latest observed price. Oracle demand at the proposed price is
// blended with the elasticity model's demand whenever the two prices differ.
func (r *Runner) Simulate(ctx context.Context, dc optimization.DemandContext) (optimization.Simulation, error) {
	if err := validation.ValidateDemandContext(dc); err != nil {
		return optimization.Simulation{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if r.demand == nil {
		return optimization.Simulation{}, fmt.Errorf("%w: no demand oracle configured", ErrOracleUnavailable)
	}

	price := dc.CurrentPrice
	baselinePrice := price
	if r.prices != nil {
		latest, err := r.prices.LatestPrice(ctx, dc.ProductName)
		if err == nil && latest > 0 {
			baselinePrice = latest
		}
	}

	baselineContext := dc
	baselineContext.CurrentPrice = baselinePrice
	baselineDemand, err := r.demand.EstimateDemand(ctx, baselineContext)
	if err != nil {
		return optimization.Simulation{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	oracleDemand, err := r.demand.EstimateDemand(ctx, dc)
	if err != nil {
		return optimization.Simulation{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	baselineDemand = math.Max(baselineDemand, 0)
	oracleDemand = math.Max(oracleDemand, 0)

	base := r.estimator.ForProduct(dc.Category, dc.ProductName)
	pct := mathutil.PercentChange(baselinePrice, price)
	adj := elasticity.Explain(base, baselineDemand, oracleDemand, pct)

	demand := oracleDemand
	if !mathutil.IsZero(price - baselinePrice) {
		modelDemand := elasticity.DemandAt(baselineDemand, adj.Elasticity, baselinePrice, price)
		demand = r.conf.OracleWeight*oracleDemand + (1-r.conf.OracleWeight)*modelDemand
	}

	sim := optimization.Simulation{
		ProductName:        dc.ProductName,
		Price:              price,
		BaselinePrice:      baselinePrice,
		BaselineDemand:     baselineDemand,
		OracleDemand:       oracleDemand,
		PriceChangePct:     pct,
		BaseElasticity:     base,
		AdjustedElasticity: adj.Elasticity,
		PredictedDemand:    demand,
		PredictedRevenue:   price * demand,
		DemandLevel:        SimulationLevel(demand, baselineDemand),
		Reason:             adj.Reason,
	}

	r.logger.Info("optimizer simulated price",
		zap.String("op", "optimizer.Simulate"),
		zap.String("product", dc.ProductName),
		zap.Float64("price", price),
		zap.Float64("baselinePrice", baselinePrice),
		zap.Float64("baselineDemand", baselineDemand),
		zap.Float64("oracleDemand", oracleDemand),
		zap.Float64("predictedDemand", demand),
		zap.String("demandLevel", sim.DemandLevel),
	)
	if r.observer != nil {
		r.observer.ObserveSimulation(sim)
	}
	return sim, nil
}

// SimulationLevel labels predicted demand relative to the baseline.
func SimulationLevel(predicted, baseline float64) string {
	for _, level := range simulationLevels {
		if predicted > baseline*level.ratio {
			return level.label
		}
	}
	return "Very Low"
}
