// Package metrics records pricing activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "priceopt"

// Recommendation directions used as label values.
const (
	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
	DirectionHold     = "hold"
)

// Recorder collects optimizer metrics on a private registry.
type Recorder struct {
	registry      *prometheus.Registry
	optimizations *prometheus.CounterVec
	constrained   prometheus.Counter
	simulations   *prometheus.CounterVec
	priceChange   prometheus.Histogram
	requests      *prometheus.CounterVec
}

// NewRecorder registers the optimizer metrics together with Go runtime and
// process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		optimizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizations_total",
			Help:      "Completed price optimizations by recommended direction.",
		}, []string{"direction"}),
		constrained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizations_constrained_total",
			Help:      "Optimizations whose optimum sits on a band edge.",
		}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Completed price simulations by demand level.",
		}, []string{"level"}),
		priceChange: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommended_price_change_percent",
			Help:      "Recommended price change relative to the current price.",
			Buckets:   []float64{-50, -25, -10, -5, -2, 0, 2, 5, 10},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}

	r.registry.MustRegister(
		r.optimizations,
		r.constrained,
		r.simulations,
		r.priceChange,
		r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveOptimization counts a completed optimization.
func (r *Recorder) ObserveOptimization(result optimization.Result) {
	r.optimizations.WithLabelValues(Direction(result.PriceChangePct)).Inc()
	if result.Constrained {
		r.constrained.Inc()
	}
	r.priceChange.Observe(result.PriceChangePct)
}

// ObserveSimulation counts a completed simulation.
func (r *Recorder) ObserveSimulation(sim optimization.Simulation) {
	r.simulations.WithLabelValues(sim.DemandLevel).Inc()
}

// ObserveRequest counts an API request.
func (r *Recorder) ObserveRequest(route, code string) {
	r.requests.WithLabelValues(route, code).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Direction labels a price change: changes within half a percent hold.
func Direction(pct float64) string {
	switch {
	case pct > 0.5:
		return DirectionIncrease
	case pct < -0.5:
		return DirectionDecrease
	default:
		return DirectionHold
	}
}
