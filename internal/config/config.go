// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/price-optimizer/pkg/constants"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/iwvelando/price-optimizer/pkg/validation"
	"github.com/spf13/viper"
)

// DateLayout is the format of dates in sales history files.
const DateLayout = constants.DateLayout

// Configuration holds all configuration for price-optimizer.
type Configuration struct {
	Logging  LoggingConfig                `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig                 `yaml:"output,omitempty" mapstructure:"output"`
	Pricing  PricingConfig                `yaml:"pricing,omitempty" mapstructure:"pricing"`
	Catalog  CatalogConfig                `yaml:"catalog,omitempty" mapstructure:"catalog"`
	Requests []optimization.DemandContext `yaml:"requests,omitempty" mapstructure:"requests"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, xlsx
	File   string `yaml:"file,omitempty" mapstructure:"file"`     // xlsx workbook path
}

// CatalogConfig locates the sales history and cost data.
type CatalogConfig struct {
	HistoryFile  string      `yaml:"historyFile,omitempty" mapstructure:"historyFile"`
	CostsFile    string      `yaml:"costsFile,omitempty" mapstructure:"costsFile"`
	IDPrefix     string      `yaml:"idPrefix,omitempty" mapstructure:"idPrefix"`
	ExchangeRate float64     `yaml:"exchangeRate,omitempty" mapstructure:"exchangeRate"` // display units per base unit
	Currency     string      `yaml:"currency,omitempty" mapstructure:"currency"`
	Redis        RedisConfig `yaml:"redis,omitempty" mapstructure:"redis"`
}

// RedisConfig enables the shared cost cache when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr,omitempty" mapstructure:"addr"`
	Password   string `yaml:"password,omitempty" mapstructure:"password"`
	DB         int    `yaml:"db,omitempty" mapstructure:"db"`
	TTLSeconds int    `yaml:"ttlSeconds,omitempty" mapstructure:"ttlSeconds"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. PRICEOPT_* environment variables override file values,
// e.g. PRICEOPT_PRICING_SEED=42.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)

	v.SetDefault("pricing.baselineDemand", constants.DefaultBaselineDemand)
	v.SetDefault("pricing.minMargin", constants.DefaultMinMargin)
	v.SetDefault("pricing.minPriceChange", constants.DefaultMinPriceChange)
	v.SetDefault("pricing.maxIncreaseFloor", constants.DefaultMaxIncreaseFloor)
	v.SetDefault("pricing.maxIncreaseCeiling", constants.DefaultMaxIncreaseCeiling)
	v.SetDefault("pricing.scalingExponent", constants.DefaultScalingExponent)
	v.SetDefault("pricing.relaxedFloor", constants.DefaultRelaxedFloor)
	v.SetDefault("pricing.candidates", constants.DefaultCandidates)
	v.SetDefault("pricing.curveStride", constants.DefaultCurveStride)
	v.SetDefault("pricing.demandCurvePoints", constants.DefaultDemandCurvePoints)
	v.SetDefault("pricing.jitterAmplitude", constants.DefaultJitterAmplitude)
	v.SetDefault("pricing.disableJitter", false)
	v.SetDefault("pricing.seed", 0)
	v.SetDefault("pricing.boundaryTolerance", constants.DefaultBoundaryTolerance)
	v.SetDefault("pricing.oracleWeight", constants.DefaultOracleWeight)
	v.SetDefault("pricing.concurrency", constants.DefaultConcurrency)

	v.SetDefault("catalog.historyFile", "")
	v.SetDefault("catalog.costsFile", "")
	v.SetDefault("catalog.idPrefix", constants.DefaultProductIDPrefix)
	v.SetDefault("catalog.exchangeRate", constants.DefaultExchangeRate)
	v.SetDefault("catalog.currency", constants.DefaultDisplayCurrency)
	v.SetDefault("catalog.redis.addr", "")
	v.SetDefault("catalog.redis.password", "")
	v.SetDefault("catalog.redis.db", 0)
	v.SetDefault("catalog.redis.ttlSeconds", constants.DefaultCostCacheTTLSeconds)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.Normalize()
	return &configuration, nil
}

// Normalize fills unset values with their defaults.
func (c *Configuration) Normalize() {
	if c == nil {
		return
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Output.Format == constants.OutputFormatXLSX && strings.TrimSpace(c.Output.File) == "" {
		c.Output.File = constants.DefaultXLSXFile
	}

	c.Pricing.Normalize()

	if strings.TrimSpace(c.Catalog.IDPrefix) == "" {
		c.Catalog.IDPrefix = constants.DefaultProductIDPrefix
	}
	if c.Catalog.ExchangeRate == 0 {
		c.Catalog.ExchangeRate = constants.DefaultExchangeRate
	}
	if strings.TrimSpace(c.Catalog.Currency) == "" {
		c.Catalog.Currency = constants.DefaultDisplayCurrency
	}
	if c.Catalog.Redis.TTLSeconds <= 0 {
		c.Catalog.Redis.TTLSeconds = constants.DefaultCostCacheTTLSeconds
	}
}

// Validate returns the first configuration problem found.
func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	c.Normalize()

	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := c.Pricing.Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	if c.Catalog.ExchangeRate <= 0 {
		return fmt.Errorf("catalog exchange rate must be positive, got %v", c.Catalog.ExchangeRate)
	}
	for i, request := range c.Requests {
		if err := validation.ValidateDemandContext(request); err != nil {
			return fmt.Errorf("request %d: %w", i+1, err)
		}
	}
	return nil
}

// ValidateConfiguration returns non-fatal warnings about the configured requests.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	for i, request := range c.Requests {
		for _, warning := range validation.DemandContextWarnings(request) {
			warnings = append(warnings, fmt.Sprintf("request %d (%s): %s", i+1, request.ProductName, warning))
		}
	}
	if c.Catalog.HistoryFile == "" {
		warnings = append(warnings, "no sales history configured; current demand must be supplied with each request")
	}
	return warnings
}
