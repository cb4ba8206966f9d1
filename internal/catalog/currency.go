package catalog

import (
	"slices"

	"github.com/iwvelando/price-optimizer/pkg/constants"
	"github.com/iwvelando/price-optimizer/pkg/mathutil"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
)

// Converter translates money between the base currency of the sales history
// and the display currency of requests and responses. Converted results are
// rounded to cents.
type Converter struct {
	Code string
	Rate float64 // display units per base unit
}

// NewConverter returns a converter, applying defaults for an empty code or a
// non-positive rate.
func NewConverter(code string, rate float64) Converter {
	if code == "" {
		code = constants.DefaultDisplayCurrency
	}
	if rate <= 0 {
		rate = constants.DefaultExchangeRate
	}
	return Converter{Code: code, Rate: rate}
}

// ToDisplay converts a base amount to display currency.
func (c Converter) ToDisplay(amount float64) float64 {
	return amount * c.Rate
}

// ToBase converts a display amount to base currency.
func (c Converter) ToBase(amount float64) float64 {
	return amount / c.Rate
}

func (c Converter) display(amount float64) float64 {
	return mathutil.Round(c.ToDisplay(amount))
}

// ContextToBase converts the price and cost of a selling context given in
// display currency.
func (c Converter) ContextToBase(dc optimization.DemandContext) optimization.DemandContext {
	dc.CurrentPrice = c.ToBase(dc.CurrentPrice)
	dc.Cost = c.ToBase(dc.Cost)
	return dc
}

// Product converts a catalog product to display currency.
func (c Converter) Product(p Product) Product {
	p.CurrentPrice = c.display(p.CurrentPrice)
	p.Cost = c.display(p.Cost)
	return p
}

// Stats converts the price summary of product stats to display currency.
func (c Converter) Stats(s Stats) Stats {
	s.Price.Min = c.display(s.Price.Min)
	s.Price.Max = c.display(s.Price.Max)
	s.Price.Mean = c.display(s.Price.Mean)
	s.Price.Current = c.display(s.Price.Current)
	return s
}

// Result converts the money of an optimization result to display currency.
// Demand, percentages and elasticities are unchanged.
func (c Converter) Result(r optimization.Result) optimization.Result {
	r.CurrentPrice = c.display(r.CurrentPrice)
	r.OptimalPrice = c.display(r.OptimalPrice)
	r.EstimatedCost = c.display(r.EstimatedCost)
	r.Current = c.metrics(r.Current)
	r.Optimal = c.metrics(r.Optimal)
	r.Band.MinPrice = c.display(r.Band.MinPrice)
	r.Band.MaxPrice = c.display(r.Band.MaxPrice)
	r.Notes = slices.Clone(r.Notes)
	r.Curve = c.Points(r.Curve)
	r.Candidates = c.Points(r.Candidates)
	return r
}

// Simulation converts the money of a simulation to display currency.
func (c Converter) Simulation(s optimization.Simulation) optimization.Simulation {
	s.Price = c.display(s.Price)
	s.BaselinePrice = c.display(s.BaselinePrice)
	s.PredictedRevenue = c.display(s.PredictedRevenue)
	return s
}

// Interpretation converts the price range of an interpretation.
func (c Converter) Interpretation(i optimization.Interpretation) optimization.Interpretation {
	i.MinPrice = c.display(i.MinPrice)
	i.MaxPrice = c.display(i.MaxPrice)
	return i
}

// Points converts a price curve, returning a new slice.
func (c Converter) Points(points []optimization.PricePoint) []optimization.PricePoint {
	if points == nil {
		return nil
	}
	out := make([]optimization.PricePoint, len(points))
	for i, p := range points {
		p.Price = c.display(p.Price)
		p.Revenue = c.display(p.Revenue)
		p.Profit = c.display(p.Profit)
		out[i] = p
	}
	return out
}

func (c Converter) metrics(m optimization.Metrics) optimization.Metrics {
	m.Price = c.display(m.Price)
	m.Revenue = c.display(m.Revenue)
	m.Profit = c.display(m.Profit)
	return m
}
