// Package optimizer searches the feasible price band of a product for the
// profit-maximizing price under a dynamically adjusted elasticity model.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/iwvelando/price-optimizer/internal/config"
	"github.com/iwvelando/price-optimizer/internal/constraint"
	"github.com/iwvelando/price-optimizer/internal/elasticity"
	"github.com/iwvelando/price-optimizer/pkg/constants"
	"github.com/iwvelando/price-optimizer/pkg/mathutil"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/iwvelando/price-optimizer/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidInput marks requests rejected before any optimization runs.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOracleUnavailable marks failures of the demand oracle.
	ErrOracleUnavailable = errors.New("demand oracle unavailable")
)

// CostOracle returns the unit cost of a product.
type CostOracle interface {
	EstimateCost(ctx context.Context, productName string) (float64, error)
}

// DemandOracle returns the expected demand for a product in a selling context
// at dc.CurrentPrice.
type DemandOracle interface {
	EstimateDemand(ctx context.Context, dc optimization.DemandContext) (float64, error)
}

// PriceOracle returns the most recent observed price of a product.
type PriceOracle interface {
	LatestPrice(ctx context.Context, productName string) (float64, error)
}

// Observer is notified of every completed optimization and simulation.
type Observer interface {
	ObserveOptimization(result optimization.Result)
	ObserveSimulation(sim optimization.Simulation)
}

// Option configures a Runner.
type Option func(*Runner)

// WithCostOracle sets the source of unit costs used by Recommend.
func WithCostOracle(oracle CostOracle) Option {
	return func(r *Runner) { r.costs = oracle }
}

// WithDemandOracle sets the source of baseline demand.
func WithDemandOracle(oracle DemandOracle) Option {
	return func(r *Runner) { r.demand = oracle }
}

// WithPriceOracle sets the source of baseline prices for simulations.
func WithPriceOracle(oracle PriceOracle) Option {
	return func(r *Runner) { r.prices = oracle }
}

// WithRandomSource replaces the jitter source of the elasticity estimator.
// The source must be safe for concurrent use when batches are optimized.
func WithRandomSource(source elasticity.RandomSource) Option {
	return func(r *Runner) { r.source = source }
}

// WithObserver registers an Observer, typically a metrics recorder.
func WithObserver(observer Observer) Option {
	return func(r *Runner) { r.observer = observer }
}

// WithDisplayCurrency renders rationale amounts as price×rate in the given
// currency code.
func WithDisplayCurrency(code string, rate float64) Option {
	return func(r *Runner) {
		r.currency = code
		if rate > 0 {
			r.displayRate = rate
		}
	}
}

// Runner runs price optimizations. It holds no per-call state and is safe
// for concurrent use.
type Runner struct {
	logger      *zap.Logger
	conf        config.PricingConfig
	policy      constraint.Policy
	estimator   *elasticity.Estimator
	source      elasticity.RandomSource
	costs       CostOracle
	demand      DemandOracle
	prices      PriceOracle
	observer    Observer
	currency    string
	displayRate float64
}

// Input is one direct optimization request. A non-positive Cost is replaced
// by the category margin estimate.
type Input struct {
	ProductName   string
	Category      string
	CurrentPrice  float64
	CurrentDemand float64
	Cost          float64
	CostSource    string
}

// evaluation is one candidate price together with how its elasticity was derived.
type evaluation struct {
	point      optimization.PricePoint
	adjustment elasticity.Adjustment
}

// NewRunner constructs a Runner for the provided pricing configuration.
func NewRunner(logger *zap.Logger, conf config.PricingConfig, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing configuration: %w", err)
	}

	r := &Runner{
		logger:      logger,
		conf:        conf,
		policy:      policyFrom(conf),
		displayRate: 1,
	}
	if conf.Seed != 0 {
		r.source = newLockedSource(rand.New(rand.NewPCG(conf.Seed, conf.Seed^pcgStream)))
	}
	for _, opt := range opts {
		opt(r)
	}
	r.estimator = elasticity.NewEstimator(r.source, conf.EffectiveJitter())
	return r, nil
}

func policyFrom(conf config.PricingConfig) constraint.Policy {
	return constraint.Policy{
		BaselineDemand:     conf.BaselineDemand,
		MinMargin:          conf.MinMargin,
		MinPriceChange:     conf.MinPriceChange,
		MaxIncreaseFloor:   conf.MaxIncreaseFloor,
		MaxIncreaseCeiling: conf.MaxIncreaseCeiling,
		ScalingExponent:    conf.ScalingExponent,
		RelaxedFloor:       conf.RelaxedFloor,
	}
}

// Policy returns the constraint policy the runner searches within.
func (r *Runner) Policy() constraint.Policy {
	return r.policy
}

// EstimateBaseElasticity returns the jittered base coefficient for a
// category or product name.
func (r *Runner) EstimateBaseElasticity(categoryOrName string) float64 {
	return r.estimator.BaseElasticity(categoryOrName)
}

// Optimize finds the profit-maximizing price inside the constraint band.
// It performs no I/O and never fails: degenerate inputs resolve to numeric
// fallbacks and are described in the result notes.
func (r *Runner) Optimize(in Input) optimization.Result {
	result := optimization.Result{
		ProductName:  in.ProductName,
		Category:     in.Category,
		CurrentPrice: in.CurrentPrice,
		OptimalPrice: in.CurrentPrice,
	}
	if in.CurrentPrice <= 0 {
		result.Notes = []string{"current price must be positive; no optimization performed"}
		return result
	}

	cost, costSource := in.Cost, in.CostSource
	if cost <= 0 {
		cost, costSource = r.marginCost(in.Category, in.CurrentPrice), CostSourceMargin
	} else if costSource == "" {
		costSource = CostSourceRequest
	}
	base := r.estimator.ForProduct(in.Category, in.ProductName)
	band := r.policy.Band(in.CurrentPrice, in.CurrentDemand, cost)

	current := evaluation{
		point:      pricePoint(in.CurrentPrice, in.CurrentDemand, cost, 0, base),
		adjustment: elasticity.Explain(base, in.CurrentDemand, in.CurrentDemand, 0),
	}

	// The current point seeds the search so nothing worse than doing nothing
	// is chosen. A current price outside the band cannot be recommended, so
	// the first candidate seeds instead.
	seeded := band.Contains(in.CurrentPrice)
	if !seeded {
		result.Notes = append(result.Notes, fmt.Sprintf(
			"current price %s lies outside the feasible band [%s, %s]; best feasible candidate chosen",
			r.money(in.CurrentPrice), r.money(band.MinPrice), r.money(band.MaxPrice)))
	}

	prices := mathutil.Linspace(band.MinPrice, band.MaxPrice, r.conf.Candidates)
	candidates := make([]optimization.PricePoint, 0, len(prices))
	best := current
	for i, price := range prices {
		eval := r.evaluate(in, base, cost, price)
		candidates = append(candidates, eval.point)

		if (!seeded && i == 0) || eval.point.Profit > best.point.Profit {
			best = eval
		}
	}

	tolerance := r.conf.BoundaryTolerance
	constrained := mathutil.WithinTolerance(best.point.Price, band.MinPrice, tolerance) ||
		mathutil.WithinTolerance(best.point.Price, band.MaxPrice, tolerance)

	result.OptimalPrice = best.point.Price
	result.PriceChangePct = mathutil.PercentChange(in.CurrentPrice, best.point.Price)
	result.BaseElasticity = base
	result.AdjustedElasticity = best.point.AdjustedElasticity
	result.ElasticityType = elasticityType(best.point.AdjustedElasticity)
	result.EstimatedCost = cost
	result.CostSource = costSource
	result.Constrained = constrained
	result.Current = metricsFor(current.point, cost)
	result.Optimal = metricsFor(best.point, cost)
	result.Improvements = optimization.Improvements{
		ProfitPct:  mathutil.PercentChange(current.point.Profit, best.point.Profit),
		RevenuePct: mathutil.PercentChange(current.point.Revenue, best.point.Revenue),
		DemandPct:  mathutil.PercentChange(current.point.Demand, best.point.Demand),
	}
	result.Band = band.Constraints()
	result.Candidates = candidates
	result.Curve = subsample(candidates, r.conf.CurveStride)
	if band.MarginRelaxed {
		result.Notes = append(result.Notes, fmt.Sprintf(
			"minimum %.0f%% margin conflicts with the demand cap; floor relaxed to %.0f%% of the current price",
			band.MinMarginPct, r.policy.RelaxedFloor*constants.PercentageMultiplier))
	}
	result.Rationale = r.rationale(result, band, best.adjustment)

	r.logger.Info("optimizer selected price",
		zap.String("op", "optimizer.Optimize"),
		zap.String("product", in.ProductName),
		zap.String("category", in.Category),
		zap.Float64("currentPrice", in.CurrentPrice),
		zap.Float64("currentDemand", in.CurrentDemand),
		zap.Float64("cost", cost),
		zap.String("costSource", costSource),
		zap.Float64("baseElasticity", base),
		zap.Float64("adjustedElasticity", best.point.AdjustedElasticity),
		zap.String("demandLevel", band.DemandLevel),
		zap.Float64("minPrice", band.MinPrice),
		zap.Float64("maxPrice", band.MaxPrice),
		zap.Float64("optimalPrice", best.point.Price),
		zap.Float64("profitImprovementPct", result.Improvements.ProfitPct),
		zap.Bool("constrained", constrained),
		zap.Bool("marginRelaxed", band.MarginRelaxed),
	)
	if r.observer != nil {
		r.observer.ObserveOptimization(result)
	}
	return result
}

// evaluate prices one candidate. Every candidate's demand trend is measured
// against the unmodified current demand.
func (r *Runner) evaluate(in Input, base, cost, price float64) evaluation {
	pct := mathutil.PercentChange(in.CurrentPrice, price)
	adj := elasticity.Explain(base, in.CurrentDemand, in.CurrentDemand, pct)
	demand := elasticity.DemandAt(in.CurrentDemand, adj.Elasticity, in.CurrentPrice, price)

	if ce := r.logger.Check(zap.DebugLevel, "optimizer evaluated candidate"); ce != nil {
		ce.Write(
			zap.String("op", "optimizer.evaluate"),
			zap.String("product", in.ProductName),
			zap.Float64("price", price),
			zap.Float64("priceChangePct", pct),
			zap.Float64("factor", adj.Factor),
			zap.Float64("adjustedElasticity", adj.Elasticity),
			zap.String("tier", adj.Tier),
			zap.Float64("demand", demand),
		)
	}
	return evaluation{
		point:      pricePoint(price, demand, cost, pct, adj.Elasticity),
		adjustment: adj,
	}
}

// Recommend resolves demand and cost for a selling context and optimizes it.
// A zero CurrentDemand asks the demand oracle; a zero Cost asks the cost
// oracle and falls back to the category margin table.
func (r *Runner) Recommend(ctx context.Context, dc optimization.DemandContext) (optimization.Result, error) {
	if err := validation.ValidateDemandContext(dc); err != nil {
		return optimization.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return optimization.Result{}, err
	}

	demand := dc.CurrentDemand
	if demand == 0 && r.demand != nil {
		estimated, err := r.demand.EstimateDemand(ctx, dc)
		if err != nil {
			return optimization.Result{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
		}
		demand = math.Max(estimated, 0)
	}

	cost, source := dc.Cost, CostSourceRequest
	if cost <= 0 {
		cost, source = r.EstimateCost(ctx, dc.Category, dc.ProductName, dc.CurrentPrice)
	}

	return r.Optimize(Input{
		ProductName:   dc.ProductName,
		Category:      dc.Category,
		CurrentPrice:  dc.CurrentPrice,
		CurrentDemand: demand,
		Cost:          cost,
		CostSource:    source,
	}), nil
}

// OptimizeBatch recommends prices for many contexts concurrently, bounded by
// the configured concurrency. Results keep the order of the input; the first
// failure cancels the rest.
func (r *Runner) OptimizeBatch(ctx context.Context, requests []optimization.DemandContext) ([]optimization.Result, error) {
	results := make([]optimization.Result, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.conf.Concurrency)

	for i, request := range requests {
		g.Go(func() error {
			result, err := r.Recommend(gctx, request)
			if err != nil {
				return fmt.Errorf("request %d (%s): %w", i+1, request.ProductName, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("optimizer batch complete",
		zap.String("op", "optimizer.OptimizeBatch"),
		zap.Int("requests", len(requests)),
	)
	return results, nil
}

func pricePoint(price, demand, cost, pct, elasticityValue float64) optimization.PricePoint {
	return optimization.PricePoint{
		Price:              price,
		Demand:             demand,
		Revenue:            price * demand,
		Profit:             (price - cost) * demand,
		PriceChangePct:     pct,
		AdjustedElasticity: elasticityValue,
	}
}

func metricsFor(point optimization.PricePoint, cost float64) optimization.Metrics {
	margin := 0.0
	if point.Price > 0 {
		margin = mathutil.CalculatePercentage(point.Price-cost, point.Price)
	}
	return optimization.Metrics{
		Price:     point.Price,
		Demand:    point.Demand,
		Revenue:   point.Revenue,
		Profit:    point.Profit,
		MarginPct: margin,
	}
}

func subsample(points []optimization.PricePoint, stride int) []optimization.PricePoint {
	if stride <= 1 {
		return append([]optimization.PricePoint(nil), points...)
	}
	out := make([]optimization.PricePoint, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	return out
}

// elasticityType is the binary label reported with results.
func elasticityType(adjusted float64) string {
	if math.Abs(adjusted) > 1 {
		return "elastic"
	}
	return "inelastic"
}

func canonicalCategory(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}
