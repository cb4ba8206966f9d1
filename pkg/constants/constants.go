// Package constants provides shared constants for the price-optimizer application.
package constants

// DateLayout is the format of dates in sales history files and requests.
const DateLayout = "2006-01-02"

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Pricing engine defaults
const (
	// DefaultBaselineDemand is the reference demand level (units) used to
	// scale the maximum allowed price increase.
	DefaultBaselineDemand = 500.0

	// DefaultMinMargin is the minimum acceptable (price-cost)/cost markup
	// enforced on the lower end of the search band.
	DefaultMinMargin = 0.15

	// DefaultMinPriceChange is the deepest allowed price cut (-50%).
	DefaultMinPriceChange = -0.50

	// DefaultMaxIncreaseFloor is the smallest ceiling on price increases (2%).
	DefaultMaxIncreaseFloor = 0.02

	// DefaultMaxIncreaseCeiling is the largest ceiling on price increases (10%).
	DefaultMaxIncreaseCeiling = 0.10

	// DefaultScalingExponent curves the interpolation between the floor and
	// the ceiling of the allowed increase.
	DefaultScalingExponent = 0.9

	// DefaultRelaxedFloor is the fraction of the current price used as the
	// band minimum when the margin floor exceeds the demand cap.
	DefaultRelaxedFloor = 0.95

	// DefaultCandidates is the number of equally spaced prices searched.
	DefaultCandidates = 50

	// DefaultCurveStride keeps every n-th candidate in the reported curve.
	DefaultCurveStride = 2

	// DefaultDemandCurvePoints is the resolution of the display demand curve.
	DefaultDemandCurvePoints = 20

	// DefaultJitterAmplitude bounds the random variation on base elasticity.
	DefaultJitterAmplitude = 0.05

	// DefaultBoundaryTolerance is the distance from a band edge under which
	// the optimum counts as constrained.
	DefaultBoundaryTolerance = 0.01

	// DefaultConcurrency bounds parallel optimizations in batch mode.
	DefaultConcurrency = 4

	// DefaultOracleWeight is the share of oracle demand in a simulated price's
	// blended demand; the rest comes from the elasticity model.
	DefaultOracleWeight = 0.6

	// DefaultFallbackMargin is the typical margin for categories missing from
	// the margin table, and DefaultMinCostRatio floors estimated costs.
	DefaultFallbackMargin = 0.30
	DefaultMinCostRatio   = 0.5
)

// Catalog defaults
const (
	// DefaultExchangeRate converts base currency (USD) to display currency (AED).
	DefaultExchangeRate = 3.7

	// DefaultDisplayCurrency is the currency code used for API input and output.
	DefaultDisplayCurrency = "AED"

	// DefaultProductIDPrefix prefixes generated product identifiers.
	DefaultProductIDPrefix = "SKU"

	// DefaultCostRatio estimates unit cost from the latest price when the cost
	// table has no entry for a product.
	DefaultCostRatio = 0.85

	// DefaultRollingMean and DefaultRollingStd fill missing rolling statistics.
	DefaultRollingMean = 50.0
	DefaultRollingStd  = 5.0

	// DefaultCostCacheTTLSeconds is the lifetime of cached unit costs.
	DefaultCostCacheTTLSeconds = 3600
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatXLSX writes an Excel workbook
	OutputFormatXLSX = "xlsx"

	// DefaultXLSXFile is the workbook written when no output file is configured
	DefaultXLSXFile = "price-recommendations.xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix namespaces environment overrides, e.g. PRICEOPT_PRICING_SEED.
	EnvPrefix = "PRICEOPT"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum JSON request body (1 MB)
	DefaultMaxRequestSizeBytes int64 = 1024 * 1024
)
