package catalog

import (
	"context"
	"fmt"

	"github.com/iwvelando/price-optimizer/pkg/optimization"
)

// DefaultDemandWindow is the rolling window, in days, used for demand.
const DefaultDemandWindow = 7

// RollingDemand estimates demand as the rolling mean of recent sales at the
// context's emirate and store type. The estimate does not depend on price.
type RollingDemand struct {
	catalog *Catalog
	window  int
}

// NewRollingDemand returns a demand oracle over a 3, 7 or 30 day window. Any
// other window selects DefaultDemandWindow.
func NewRollingDemand(c *Catalog, window int) *RollingDemand {
	switch window {
	case 3, 7, 30:
	default:
		window = DefaultDemandWindow
	}
	return &RollingDemand{catalog: c, window: window}
}

// Window returns the rolling window in days.
func (d *RollingDemand) Window() int {
	return d.window
}

// EstimateDemand returns the rolling mean sales of a product. Products without
// history yield ErrNotFound.
func (d *RollingDemand) EstimateDemand(ctx context.Context, dc optimization.DemandContext) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !d.catalog.Has(dc.ProductName) {
		return 0, fmt.Errorf("demand of %q: %w", dc.ProductName, ErrNotFound)
	}
	return d.catalog.RollingAverages(dc.ProductName, dc.Emirate, dc.StoreType).Mean(d.window), nil
}
