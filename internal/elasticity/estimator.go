// Package elasticity models price elasticity of demand: category base
// coefficients, the dynamic reshaping of a coefficient for a specific price
// move, and the constant-elasticity demand response.
package elasticity

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/iwvelando/price-optimizer/pkg/mathutil"
)

const (
	// MinBase and MaxBase bound base elasticity coefficients.
	MinBase = -2.0
	MaxBase = -0.5

	// DefaultElasticity is unit elastic demand.
	DefaultElasticity = -1.0
)

// CategoryElasticities maps upper-case category names to base coefficients.
var CategoryElasticities = map[string]float64{
	"BREAKFAST CEREAL":                  -1.2,
	"TOTAL COFFEE":                      -0.8,
	"ICE COFFEE":                        -1.0,
	"MUESLI / CEREAL & NUTRITIONAL BAR": -1.3,
	"PET CARE":                          -0.7,
	"CONFECTIONERY":                     -1.5,
	"DAIRY":                             -0.6,
	"HOT BEVERAGES":                     -0.8,
}

type keywordRule struct {
	words      []string
	elasticity float64
}

// Evaluated in order; the first rule with a matching word wins.
var nameKeywords = []keywordRule{
	{words: []string{"cereal", "nesquik", "chocapic"}, elasticity: -1.2},
	{words: []string{"coffee", "nescafe"}, elasticity: -0.8},
	{words: []string{"pet", "purina", "frisk"}, elasticity: -0.7},
	{words: []string{"chocolate", "kitkat", "candy"}, elasticity: -1.5},
	{words: []string{"milk", "dairy", "nido"}, elasticity: -0.6},
}

// RandomSource yields uniformly distributed values in [0, 1).
// *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type globalSource struct{}

// Float64 uses the package-level generator, which is safe for concurrent use.
func (globalSource) Float64() float64 { return rand.Float64() }

// Estimator assigns base elasticity coefficients to products.
type Estimator struct {
	source    RandomSource
	amplitude float64
}

// NewEstimator returns an Estimator that perturbs coefficients by a uniform
// value in [-amplitude, +amplitude] drawn from source. A nil source uses the
// concurrency-safe global generator; a zero amplitude disables jitter.
func NewEstimator(source RandomSource, amplitude float64) *Estimator {
	if source == nil {
		source = globalSource{}
	}
	if amplitude < 0 {
		amplitude = -amplitude
	}
	return &Estimator{source: source, amplitude: amplitude}
}

// BaseElasticity resolves a category name or, failing that, a product name
// into a jittered base coefficient within [MinBase, MaxBase].
func (e *Estimator) BaseElasticity(categoryOrName string) float64 {
	return e.ForProduct(categoryOrName, categoryOrName)
}

// ForProduct looks the category up first and falls back to keyword matching
// on the product name.
func (e *Estimator) ForProduct(category, name string) float64 {
	base, ok := LookupCategory(category)
	if !ok {
		base = InferFromName(name)
	}
	return mathutil.Clamp(base+e.jitter(), MinBase, MaxBase)
}

func (e *Estimator) jitter() float64 {
	if e.amplitude == 0 {
		return 0
	}
	return -e.amplitude + 2*e.amplitude*e.source.Float64()
}

// LookupCategory returns the tabulated coefficient for a category.
func LookupCategory(category string) (float64, bool) {
	key := strings.ToUpper(strings.TrimSpace(category))
	if key == "" {
		return 0, false
	}
	value, ok := CategoryElasticities[key]
	return value, ok
}

// InferFromName guesses a coefficient from keywords in a product name.
func InferFromName(name string) float64 {
	lower := strings.ToLower(name)
	for _, rule := range nameKeywords {
		for _, word := range rule.words {
			if strings.Contains(lower, word) {
				return rule.elasticity
			}
		}
	}
	return DefaultElasticity
}

// Classify labels a coefficient as elastic, inelastic or unitary.
func Classify(elasticity float64) string {
	magnitude := math.Abs(elasticity)
	switch {
	case magnitude > 1:
		return "elastic"
	case magnitude < 1:
		return "inelastic"
	default:
		return "unitary"
	}
}
