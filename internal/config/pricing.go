package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/price-optimizer/pkg/constants"
)

// PricingConfig holds the tunables of the optimization engine. Rates are
// fractions (0.15 is 15%). Zero values are replaced by defaults in Normalize,
// except MinMargin, MinPriceChange and MaxIncreaseFloor, for which zero is a
// valid setting. Their defaults come from DefaultPricingConfig or the loader.
type PricingConfig struct {
	BaselineDemand     float64            `yaml:"baselineDemand,omitempty" mapstructure:"baselineDemand"`
	MinMargin          float64            `yaml:"minMargin,omitempty" mapstructure:"minMargin"`
	MinPriceChange     float64            `yaml:"minPriceChange,omitempty" mapstructure:"minPriceChange"`
	MaxIncreaseFloor   float64            `yaml:"maxIncreaseFloor,omitempty" mapstructure:"maxIncreaseFloor"`
	MaxIncreaseCeiling float64            `yaml:"maxIncreaseCeiling,omitempty" mapstructure:"maxIncreaseCeiling"`
	ScalingExponent    float64            `yaml:"scalingExponent,omitempty" mapstructure:"scalingExponent"`
	RelaxedFloor       float64            `yaml:"relaxedFloor,omitempty" mapstructure:"relaxedFloor"`
	Candidates         int                `yaml:"candidates,omitempty" mapstructure:"candidates"`
	CurveStride        int                `yaml:"curveStride,omitempty" mapstructure:"curveStride"`
	DemandCurvePoints  int                `yaml:"demandCurvePoints,omitempty" mapstructure:"demandCurvePoints"`
	JitterAmplitude    float64            `yaml:"jitterAmplitude,omitempty" mapstructure:"jitterAmplitude"`
	DisableJitter      bool               `yaml:"disableJitter,omitempty" mapstructure:"disableJitter"`
	Seed               uint64             `yaml:"seed,omitempty" mapstructure:"seed"` // 0 uses the global generator
	BoundaryTolerance  float64            `yaml:"boundaryTolerance,omitempty" mapstructure:"boundaryTolerance"`
	OracleWeight       float64            `yaml:"oracleWeight,omitempty" mapstructure:"oracleWeight"`
	Concurrency        int                `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	CategoryMargins    map[string]float64 `yaml:"categoryMargins,omitempty" mapstructure:"categoryMargins"`
}

// DefaultPricingConfig returns a normalized PricingConfig.
func DefaultPricingConfig() PricingConfig {
	p := PricingConfig{
		MinMargin:        constants.DefaultMinMargin,
		MinPriceChange:   constants.DefaultMinPriceChange,
		MaxIncreaseFloor: constants.DefaultMaxIncreaseFloor,
	}
	p.Normalize()
	return p
}

// Normalize ensures defaults and canonical values are applied before validation.
func (p *PricingConfig) Normalize() {
	if p == nil {
		return
	}
	if p.BaselineDemand == 0 {
		p.BaselineDemand = constants.DefaultBaselineDemand
	}
	if p.MaxIncreaseCeiling == 0 {
		p.MaxIncreaseCeiling = constants.DefaultMaxIncreaseCeiling
	}
	if p.ScalingExponent == 0 {
		p.ScalingExponent = constants.DefaultScalingExponent
	}
	if p.RelaxedFloor == 0 {
		p.RelaxedFloor = constants.DefaultRelaxedFloor
	}
	if p.Candidates == 0 {
		p.Candidates = constants.DefaultCandidates
	}
	if p.CurveStride == 0 {
		p.CurveStride = constants.DefaultCurveStride
	}
	if p.DemandCurvePoints == 0 {
		p.DemandCurvePoints = constants.DefaultDemandCurvePoints
	}
	if p.JitterAmplitude == 0 {
		p.JitterAmplitude = constants.DefaultJitterAmplitude
	}
	if p.BoundaryTolerance == 0 {
		p.BoundaryTolerance = constants.DefaultBoundaryTolerance
	}
	if p.OracleWeight == 0 {
		p.OracleWeight = constants.DefaultOracleWeight
	}
	if p.Concurrency == 0 {
		p.Concurrency = constants.DefaultConcurrency
	}
	if len(p.CategoryMargins) > 0 {
		margins := make(map[string]float64, len(p.CategoryMargins))
		for category, margin := range p.CategoryMargins {
			margins[strings.ToUpper(strings.TrimSpace(category))] = margin
		}
		p.CategoryMargins = margins
	}
}

// EffectiveJitter is the jitter amplitude after DisableJitter is applied.
func (p PricingConfig) EffectiveJitter() float64 {
	if p.DisableJitter {
		return 0
	}
	return p.JitterAmplitude
}

// Validate returns an error when the pricing configuration is unusable.
func (p *PricingConfig) Validate() error {
	if p == nil {
		return fmt.Errorf("pricing configuration cannot be nil")
	}

	p.Normalize()

	if p.BaselineDemand <= 0 {
		return fmt.Errorf("baseline demand must be positive, got %v", p.BaselineDemand)
	}
	if p.MinMargin < 0 {
		return fmt.Errorf("minimum margin %v must not be negative", p.MinMargin)
	}
	if p.MinPriceChange <= -1 || p.MinPriceChange > 0 {
		return fmt.Errorf("minimum price change %v must be within (-1, 0]", p.MinPriceChange)
	}
	if p.MaxIncreaseFloor < 0 {
		return fmt.Errorf("maximum increase floor %v must not be negative", p.MaxIncreaseFloor)
	}
	if p.MaxIncreaseFloor > p.MaxIncreaseCeiling {
		return fmt.Errorf("maximum increase floor %v must not exceed ceiling %v", p.MaxIncreaseFloor, p.MaxIncreaseCeiling)
	}
	if p.ScalingExponent <= 0 {
		return fmt.Errorf("scaling exponent must be positive, got %v", p.ScalingExponent)
	}
	if p.RelaxedFloor <= 0 || p.RelaxedFloor > 1 {
		return fmt.Errorf("relaxed floor %v must be within (0, 1]", p.RelaxedFloor)
	}
	if p.Candidates < 2 {
		return fmt.Errorf("at least 2 candidates are required, got %d", p.Candidates)
	}
	if p.CurveStride < 1 {
		return fmt.Errorf("curve stride must be at least 1, got %d", p.CurveStride)
	}
	if p.DemandCurvePoints < 2 {
		return fmt.Errorf("demand curve needs at least 2 points, got %d", p.DemandCurvePoints)
	}
	if p.JitterAmplitude < 0 {
		return fmt.Errorf("jitter amplitude %v must not be negative", p.JitterAmplitude)
	}
	if p.BoundaryTolerance < 0 {
		return fmt.Errorf("boundary tolerance %v must not be negative", p.BoundaryTolerance)
	}
	if p.OracleWeight < 0 || p.OracleWeight > 1 {
		return fmt.Errorf("oracle weight %v must be within [0, 1]", p.OracleWeight)
	}
	if p.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", p.Concurrency)
	}
	for category, margin := range p.CategoryMargins {
		if margin < 0 || margin >= 1 {
			return fmt.Errorf("margin %v for category %q must be within [0, 1)", margin, category)
		}
	}
	return nil
}
