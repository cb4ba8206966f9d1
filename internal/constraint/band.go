// Package constraint derives the feasible price band for one optimization:
// a margin floor, a maximum cut and a demand-scaled ceiling on increases.
package constraint

import (
	"math"

	"github.com/iwvelando/price-optimizer/pkg/constants"
	"github.com/iwvelando/price-optimizer/pkg/mathutil"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
)

// Demand levels, from the busiest to the quietest.
const (
	LevelExceptional  = "EXCEPTIONAL"
	LevelVeryHigh     = "VERY HIGH"
	LevelHigh         = "HIGH"
	LevelAboveAverage = "ABOVE AVERAGE"
	LevelAverage      = "AVERAGE"
	LevelBelowAverage = "BELOW AVERAGE"
	LevelLow          = "LOW"
	LevelVeryLow      = "VERY LOW"
)

const (
	// Demand ratios between these two bounds interpolate the increase ceiling.
	scalingLowRatio  = 0.4
	scalingHighRatio = 2.0
)

var levelThresholds = []struct {
	ratio float64
	label string
}{
	{1.5, LevelVeryHigh},
	{1.2, LevelHigh},
	{0.9, LevelAboveAverage},
	{0.7, LevelAverage},
	{0.5, LevelBelowAverage},
}

// Policy holds the constants the band is computed from. Fractions, not
// percentages: MinMargin 0.15 is a 15% markup over cost.
type Policy struct {
	BaselineDemand     float64
	MinMargin          float64
	MinPriceChange     float64
	MaxIncreaseFloor   float64
	MaxIncreaseCeiling float64
	ScalingExponent    float64
	RelaxedFloor       float64
}

// DefaultPolicy returns the standard demand-responsive policy.
func DefaultPolicy() Policy {
	return Policy{
		BaselineDemand:     constants.DefaultBaselineDemand,
		MinMargin:          constants.DefaultMinMargin,
		MinPriceChange:     constants.DefaultMinPriceChange,
		MaxIncreaseFloor:   constants.DefaultMaxIncreaseFloor,
		MaxIncreaseCeiling: constants.DefaultMaxIncreaseCeiling,
		ScalingExponent:    constants.DefaultScalingExponent,
		RelaxedFloor:       constants.DefaultRelaxedFloor,
	}
}

// Band is the closed interval of candidate prices for one optimization.
type Band struct {
	MinPrice       float64
	MaxPrice       float64
	MarginFloor    float64
	MaxIncreasePct float64
	MaxDecreasePct float64
	MinMarginPct   float64
	DemandRatio    float64
	DemandLevel    string
	MarginRelaxed  bool
}

// Contains reports whether price lies inside the band.
func (b Band) Contains(price float64) bool {
	return price >= b.MinPrice && price <= b.MaxPrice
}

// Constraints converts the band for inclusion in a result.
func (b Band) Constraints() optimization.Constraints {
	return optimization.Constraints{
		MinPrice:       b.MinPrice,
		MaxPrice:       b.MaxPrice,
		MinMarginPct:   b.MinMarginPct,
		MaxIncreasePct: b.MaxIncreasePct,
		MaxDecreasePct: b.MaxDecreasePct,
		DemandRatio:    b.DemandRatio,
		DemandLevel:    b.DemandLevel,
		MarginRelaxed:  b.MarginRelaxed,
	}
}

// Band computes the search band for a product selling currentDemand units
// at currentPrice with the given unit cost. When the margin floor lies above
// the demand ceiling the floor is relaxed to RelaxedFloor×currentPrice, so
// the band is never empty for a positive price.
func (p Policy) Band(currentPrice, currentDemand, estimatedCost float64) Band {
	ratio := 0.0
	if p.BaselineDemand > 0 {
		ratio = currentDemand / p.BaselineDemand
	}
	maxIncrease, level := p.MaxIncrease(ratio)

	marginFloor := estimatedCost * (1 + p.MinMargin)
	band := Band{
		MaxPrice:       currentPrice * (1 + maxIncrease),
		MinPrice:       math.Max(marginFloor, currentPrice*(1+p.MinPriceChange)),
		MarginFloor:    marginFloor,
		MaxIncreasePct: maxIncrease * constants.PercentageMultiplier,
		MaxDecreasePct: math.Abs(p.MinPriceChange) * constants.PercentageMultiplier,
		MinMarginPct:   p.MinMargin * constants.PercentageMultiplier,
		DemandRatio:    ratio,
		DemandLevel:    level,
	}
	if band.MinPrice > band.MaxPrice {
		band.MinPrice = currentPrice * p.RelaxedFloor
		band.MarginRelaxed = true
	}
	return band
}

// MaxIncrease returns the largest allowed price increase (as a fraction)
// for a demand ratio together with its demand level label.
func (p Policy) MaxIncrease(ratio float64) (float64, string) {
	switch {
	case ratio >= scalingHighRatio:
		return p.MaxIncreaseCeiling, LevelExceptional
	case ratio >= scalingLowRatio:
		norm := mathutil.Clamp((ratio-scalingLowRatio)/(scalingHighRatio-scalingLowRatio), 0, 1)
		increase := p.MaxIncreaseFloor + (p.MaxIncreaseCeiling-p.MaxIncreaseFloor)*math.Pow(norm, p.ScalingExponent)
		return increase, levelFor(ratio)
	default:
		return p.MaxIncreaseFloor, LevelVeryLow
	}
}

func levelFor(ratio float64) string {
	for _, threshold := range levelThresholds {
		if ratio >= threshold.ratio {
			return threshold.label
		}
	}
	return LevelLow
}
