package elasticity

import (
	"fmt"
	"math"

	"github.com/iwvelando/price-optimizer/pkg/mathutil"
)

const (
	// MinAdjusted and MaxAdjusted bound adjusted elasticity coefficients.
	MinAdjusted = -15.0
	MaxAdjusted = -0.2
)

// increaseTier is one band of the punishment curve for price increases:
// factor = min(cap, 1 + (a/divisor)^exponent) for above < a.
type increaseTier struct {
	above    float64
	divisor  float64
	exponent float64
	cap      float64
	label    string
}

// Ordered from the most severe tier down; a <= 4 uses the last entry.
var increaseTiers = []increaseTier{
	{above: 20, divisor: 8, exponent: 3.0, cap: 25, label: "catastrophic increase"},
	{above: 15, divisor: 10, exponent: 2.8, cap: 15, label: "extreme increase"},
	{above: 12, divisor: 12, exponent: 2.6, cap: 8, label: "very aggressive increase"},
	{above: 10, divisor: 14, exponent: 2.4, cap: 5, label: "aggressive increase"},
	{above: 8, divisor: 16, exponent: 2.2, cap: 3.5, label: "moderate-high increase"},
	{above: 6, divisor: 20, exponent: 2.0, cap: 2.5, label: "moderate increase"},
	{above: 4, divisor: 25, exponent: 1.8, cap: 1.8, label: "low-moderate increase"},
	{above: 0, divisor: 30, exponent: 1.6, cap: 1.4, label: "small increase"},
}

// decreaseTier is one band of the reward curve for price cuts:
// factor = max(floor, 1 - (a/divisor)^exponent), or fixed when divisor is 0.
type decreaseTier struct {
	above    float64
	divisor  float64
	exponent float64
	floor    float64
	fixed    float64
	label    string
}

var decreaseTiers = []decreaseTier{
	{above: 60, divisor: 40, exponent: 1.8, floor: 0.15, label: "fire sale discount"},
	{above: 40, divisor: 50, exponent: 1.6, floor: 0.25, label: "mega sale discount"},
	{above: 30, divisor: 60, exponent: 1.5, floor: 0.35, label: "big discount"},
	{above: 20, divisor: 80, exponent: 1.4, floor: 0.5, label: "good discount"},
	{above: 10, fixed: 0.8, label: "small discount"},
	{above: 0, fixed: 0.95, label: "minor discount"},
}

// Adjustment explains how a base coefficient was reshaped.
type Adjustment struct {
	Base           float64
	Factor         float64
	Elasticity     float64
	DemandTrendPct float64
	PriceChangePct float64
	Tier           string
	Reason         string
}

// Adjust reshapes a base elasticity for a candidate price change (percent,
// positive for increases) given the recent demand trend from currentDemand to
// predictedDemand.
func Adjust(base, currentDemand, predictedDemand, priceChangePct float64) float64 {
	return Explain(base, currentDemand, predictedDemand, priceChangePct).Elasticity
}

// Explain is Adjust with the intermediate factor, tier and reason.
func Explain(base, currentDemand, predictedDemand, priceChangePct float64) Adjustment {
	trend := TrendPercent(currentDemand, predictedDemand)
	adj := Adjustment{
		Base:           base,
		Factor:         1,
		DemandTrendPct: trend,
		PriceChangePct: priceChangePct,
		Tier:           "no change",
		Reason:         "No price change",
	}

	switch {
	case priceChangePct > 0:
		adj.Factor, adj.Tier, adj.Reason = increaseFactor(priceChangePct, trend)
	case priceChangePct < 0:
		adj.Factor, adj.Tier, adj.Reason = decreaseFactor(-priceChangePct, trend)
	}

	adj.Elasticity = mathutil.Clamp(base*adj.Factor, MinAdjusted, MaxAdjusted)
	return adj
}

// IncreaseFactor returns the punishment factor for a price increase of a
// percent before any demand-trend modulation.
func IncreaseFactor(a float64) float64 {
	tier := increaseTierFor(a)
	return math.Min(tier.cap, 1+math.Pow(a/tier.divisor, tier.exponent))
}

// DecreaseFactor returns the reward factor for a price cut of a percent
// before any demand-trend modulation.
func DecreaseFactor(a float64) float64 {
	tier := decreaseTierFor(a)
	if tier.divisor == 0 {
		return tier.fixed
	}
	return math.Max(tier.floor, 1-math.Pow(a/tier.divisor, tier.exponent))
}

func increaseTierFor(a float64) increaseTier {
	for _, tier := range increaseTiers {
		if a > tier.above {
			return tier
		}
	}
	return increaseTiers[len(increaseTiers)-1]
}

func decreaseTierFor(a float64) decreaseTier {
	for _, tier := range decreaseTiers {
		if a > tier.above {
			return tier
		}
	}
	return decreaseTiers[len(decreaseTiers)-1]
}

func increaseFactor(a, trend float64) (float64, string, string) {
	tier := increaseTierFor(a)
	factor := IncreaseFactor(a)
	reason := fmt.Sprintf("%s (+%.0f%%)", tier.label, a)

	if a <= 4 {
		switch {
		case trend > 8:
			factor *= 0.85
			reason += " with very strong demand, reduced punishment"
		case trend > 3:
			factor *= 0.95
			reason += " with good demand, slight punishment"
		}
		return factor, tier.label, reason
	}

	switch {
	case trend > 10:
		factor *= 0.75
		reason += " | very strong demand reduces punishment by 25%"
	case trend > 5:
		factor *= 0.90
		reason += " | strong demand reduces punishment by 10%"
	case trend < -10:
		factor *= 1.5
		reason += " | declining demand amplifies punishment by 50%"
	case trend < -5:
		factor *= 1.25
		reason += " | weak demand amplifies punishment by 25%"
	}
	return factor, tier.label, reason
}

func decreaseFactor(a, trend float64) (float64, string, string) {
	tier := decreaseTierFor(a)
	factor := DecreaseFactor(a)
	reason := fmt.Sprintf("%s (-%.0f%%)", tier.label, a)

	if a > 15 {
		switch {
		case trend < -10:
			factor *= 0.8
			reason += " | weak demand makes customers more price-sensitive"
		case trend < -5:
			factor *= 0.9
			reason += " | declining demand increases price sensitivity"
		case trend > 5:
			factor *= 1.1
			reason += " | strong demand reduces need for discounts"
		}
	}
	return factor, tier.label, reason
}
