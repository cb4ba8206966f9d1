// Package optimization provides shared data structures for price optimization
// requests and results.
package optimization

// DemandContext describes the product and selling context a recommendation is
// requested for. It is supplied by the caller and never mutated.
type DemandContext struct {
	ProductName   string  `json:"productName" yaml:"productName" mapstructure:"productName"`
	Category      string  `json:"category" yaml:"category" mapstructure:"category"`
	Emirate       string  `json:"emirate,omitempty" yaml:"emirate,omitempty" mapstructure:"emirate"`
	StoreType     string  `json:"storeType,omitempty" yaml:"storeType,omitempty" mapstructure:"storeType"`
	CurrentPrice  float64 `json:"currentPrice" yaml:"currentPrice" mapstructure:"currentPrice"`
	CurrentDemand float64 `json:"currentDemand,omitempty" yaml:"currentDemand,omitempty" mapstructure:"currentDemand"`
	Cost          float64 `json:"cost,omitempty" yaml:"cost,omitempty" mapstructure:"cost"`
	Month         int     `json:"month,omitempty" yaml:"month,omitempty" mapstructure:"month"`
	DayOfWeek     int     `json:"dayOfWeek,omitempty" yaml:"dayOfWeek,omitempty" mapstructure:"dayOfWeek"`
	DayOfMonth    int     `json:"dayOfMonth,omitempty" yaml:"dayOfMonth,omitempty" mapstructure:"dayOfMonth"`
	IsWeekend     bool    `json:"isWeekend,omitempty" yaml:"isWeekend,omitempty" mapstructure:"isWeekend"`
	IsHoliday     bool    `json:"isHoliday,omitempty" yaml:"isHoliday,omitempty" mapstructure:"isHoliday"`
}

// PricePoint is the outcome of one candidate price.
type PricePoint struct {
	Price              float64 `json:"price"`
	Demand             float64 `json:"demand"`
	Revenue            float64 `json:"revenue"`
	Profit             float64 `json:"profit"`
	PriceChangePct     float64 `json:"priceChangePct"`
	AdjustedElasticity float64 `json:"adjustedElasticity"`
}

// Metrics summarises demand and money at a single price.
type Metrics struct {
	Price     float64 `json:"price"`
	Demand    float64 `json:"demand"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	MarginPct float64 `json:"marginPct"`
}

// Improvements are percentage changes of the optimum relative to the current price.
type Improvements struct {
	ProfitPct  float64 `json:"profitPct"`
	RevenuePct float64 `json:"revenuePct"`
	DemandPct  float64 `json:"demandPct"`
}

// Constraints records the search band used for an optimization.
type Constraints struct {
	MinPrice       float64 `json:"minPrice"`
	MaxPrice       float64 `json:"maxPrice"`
	MinMarginPct   float64 `json:"minMarginPct"`
	MaxIncreasePct float64 `json:"maxIncreasePct"`
	MaxDecreasePct float64 `json:"maxDecreasePct"`
	DemandRatio    float64 `json:"demandRatio"`
	DemandLevel    string  `json:"demandLevel"`
	MarginRelaxed  bool    `json:"marginRelaxed"`
}

// Result is the immutable outcome of one optimization call.
type Result struct {
	ProductName        string       `json:"productName"`
	Category           string       `json:"category,omitempty"`
	CurrentPrice       float64      `json:"currentPrice"`
	OptimalPrice       float64      `json:"optimalPrice"`
	PriceChangePct     float64      `json:"priceChangePct"`
	BaseElasticity     float64      `json:"baseElasticity"`
	AdjustedElasticity float64      `json:"adjustedElasticity"`
	ElasticityType     string       `json:"elasticityType"`
	EstimatedCost      float64      `json:"estimatedCost"`
	CostSource         string       `json:"costSource,omitempty"`
	Constrained        bool         `json:"constrained"`
	Current            Metrics      `json:"current"`
	Optimal            Metrics      `json:"optimal"`
	Improvements       Improvements `json:"improvements"`
	Band               Constraints  `json:"band"`
	Rationale          string       `json:"rationale"`
	Notes              []string     `json:"notes,omitempty"`
	Curve              []PricePoint `json:"curve,omitempty"`
	Candidates         []PricePoint `json:"-"`
}

// Simulation is the outcome of evaluating a single proposed price.
type Simulation struct {
	ProductName        string  `json:"productName"`
	Price              float64 `json:"price"`
	BaselinePrice      float64 `json:"baselinePrice"`
	BaselineDemand     float64 `json:"baselineDemand"`
	OracleDemand       float64 `json:"oracleDemand"`
	PriceChangePct     float64 `json:"priceChangePct"`
	BaseElasticity     float64 `json:"baseElasticity"`
	AdjustedElasticity float64 `json:"adjustedElasticity"`
	PredictedDemand    float64 `json:"predictedDemand"`
	PredictedRevenue   float64 `json:"predictedRevenue"`
	DemandLevel        string  `json:"demandLevel"`
	Reason             string  `json:"reason,omitempty"`
}

// Interpretation explains an elasticity coefficient in plain words.
type Interpretation struct {
	Coefficient        float64 `json:"coefficient"`
	Category           string  `json:"category"` // elastic, inelastic or unitary
	Text               string  `json:"text"`
	MinPrice           float64 `json:"minPrice"`
	MaxPrice           float64 `json:"maxPrice"`
	SuggestedDirection string  `json:"suggestedDirection"`
}
