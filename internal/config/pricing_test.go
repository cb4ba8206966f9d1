package config

import (
	"strings"
	"testing"

	"github.com/iwvelando/price-optimizer/pkg/constants"
)

func TestPricingConfigNormalize(t *testing.T) {
	p := PricingConfig{CategoryMargins: map[string]float64{" pet care ": 0.3}}
	p.Normalize()

	if p.BaselineDemand != constants.DefaultBaselineDemand {
		t.Errorf("BaselineDemand = %v", p.BaselineDemand)
	}
	if p.MinMargin != 0 || p.MinPriceChange != 0 || p.MaxIncreaseFloor != 0 {
		t.Errorf("zero bounds must be kept, got %v %v %v", p.MinMargin, p.MinPriceChange, p.MaxIncreaseFloor)
	}
	if p.Candidates != constants.DefaultCandidates || p.CurveStride != constants.DefaultCurveStride {
		t.Errorf("unexpected search defaults: %d %d", p.Candidates, p.CurveStride)
	}
	if p.OracleWeight != constants.DefaultOracleWeight {
		t.Errorf("OracleWeight = %v", p.OracleWeight)
	}
	if _, ok := p.CategoryMargins["PET CARE"]; !ok {
		t.Errorf("expected canonical category key, got %v", p.CategoryMargins)
	}

	var nilConfig *PricingConfig
	nilConfig.Normalize()
	if err := nilConfig.Validate(); err == nil {
		t.Error("expected error for nil pricing configuration")
	}
}

func TestPricingConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*PricingConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*PricingConfig) {}},
		{name: "zero margin and no price cut", mutate: func(p *PricingConfig) {
			p.MinMargin = 0
			p.MinPriceChange = 0
			p.MaxIncreaseFloor = 0
		}},
		{name: "negative baseline", mutate: func(p *PricingConfig) { p.BaselineDemand = -1 }, wantErr: true},
		{name: "negative margin", mutate: func(p *PricingConfig) { p.MinMargin = -0.1 }, wantErr: true},
		{name: "full price cut", mutate: func(p *PricingConfig) { p.MinPriceChange = -1 }, wantErr: true},
		{name: "positive minimum change", mutate: func(p *PricingConfig) { p.MinPriceChange = 0.1 }, wantErr: true},
		{name: "floor above ceiling", mutate: func(p *PricingConfig) { p.MaxIncreaseFloor = 0.2 }, wantErr: true},
		{name: "relaxed floor above one", mutate: func(p *PricingConfig) { p.RelaxedFloor = 1.2 }, wantErr: true},
		{name: "single candidate", mutate: func(p *PricingConfig) { p.Candidates = 1 }, wantErr: true},
		{name: "negative stride", mutate: func(p *PricingConfig) { p.CurveStride = -1 }, wantErr: true},
		{name: "oracle weight above one", mutate: func(p *PricingConfig) { p.OracleWeight = 1.5 }, wantErr: true},
		{name: "negative concurrency", mutate: func(p *PricingConfig) { p.Concurrency = -2 }, wantErr: true},
		{name: "margin of one", mutate: func(p *PricingConfig) { p.CategoryMargins = map[string]float64{"DAIRY": 1} }, wantErr: true},
		{name: "custom valid", mutate: func(p *PricingConfig) {
			p.MaxIncreaseCeiling = 0.15
			p.Candidates = 101
			p.Concurrency = 16
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPricingConfig()
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error but got none")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultPricingConfigBounds(t *testing.T) {
	p := DefaultPricingConfig()
	if p.MinMargin != constants.DefaultMinMargin ||
		p.MinPriceChange != constants.DefaultMinPriceChange ||
		p.MaxIncreaseFloor != constants.DefaultMaxIncreaseFloor {
		t.Errorf("unexpected default bounds: %+v", p)
	}
}

func TestZeroBoundsFromConfigFile(t *testing.T) {
	yaml := "pricing:\n  minMargin: 0\n  minPriceChange: 0\n  maxIncreaseFloor: 0\n"
	conf, err := LoadConfigurationFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	p := conf.Pricing
	if p.MinMargin != 0 || p.MinPriceChange != 0 || p.MaxIncreaseFloor != 0 {
		t.Errorf("zero bounds were replaced: %v %v %v", p.MinMargin, p.MinPriceChange, p.MaxIncreaseFloor)
	}

	conf, err = LoadConfigurationFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if conf.Pricing.MinMargin != constants.DefaultMinMargin || conf.Pricing.MinPriceChange != constants.DefaultMinPriceChange {
		t.Errorf("omitted bounds should take defaults, got %+v", conf.Pricing)
	}
}

func TestEffectiveJitter(t *testing.T) {
	p := DefaultPricingConfig()
	if p.EffectiveJitter() != constants.DefaultJitterAmplitude {
		t.Errorf("expected default jitter, got %v", p.EffectiveJitter())
	}
	p.DisableJitter = true
	if p.EffectiveJitter() != 0 {
		t.Errorf("expected jitter disabled, got %v", p.EffectiveJitter())
	}
}
