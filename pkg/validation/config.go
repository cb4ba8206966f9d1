package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/price-optimizer/pkg/optimization"
)

// ValidateDemandContext rejects requests the engine cannot price.
func ValidateDemandContext(dc optimization.DemandContext) error {
	if strings.TrimSpace(dc.ProductName) == "" {
		return fmt.Errorf("product name is required")
	}
	if dc.CurrentPrice <= 0 {
		return fmt.Errorf("price must be a positive number, got %v", dc.CurrentPrice)
	}
	if dc.CurrentDemand < 0 {
		return fmt.Errorf("current demand must not be negative, got %v", dc.CurrentDemand)
	}
	if dc.Cost < 0 {
		return fmt.Errorf("cost must not be negative, got %v", dc.Cost)
	}
	if dc.Month < 0 || dc.Month > 12 {
		return fmt.Errorf("month %d must be within 1-12", dc.Month)
	}
	if dc.DayOfWeek < 0 || dc.DayOfWeek > 6 {
		return fmt.Errorf("day of week %d must be within 0-6", dc.DayOfWeek)
	}
	if dc.DayOfMonth < 0 || dc.DayOfMonth > 31 {
		return fmt.Errorf("day of month %d must be within 1-31", dc.DayOfMonth)
	}
	return nil
}

// DemandContextWarnings reports inputs that are accepted but likely to
// produce a degenerate recommendation.
func DemandContextWarnings(dc optimization.DemandContext) []string {
	var warnings []string

	if dc.Cost > 0 && dc.Cost >= dc.CurrentPrice {
		warnings = append(warnings, fmt.Sprintf("cost %.2f is at or above the current price %.2f; the margin floor will be relaxed", dc.Cost, dc.CurrentPrice))
	}
	if strings.TrimSpace(dc.Category) == "" {
		warnings = append(warnings, "no category given; elasticity will be inferred from the product name")
	}
	return warnings
}
