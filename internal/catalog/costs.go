package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CostEntry is the unit cost record of one product.
type CostEntry struct {
	Cost      float64 `json:"cost"`
	Category  string  `json:"category,omitempty"`
	Source    string  `json:"source,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// CostTable maps product names to unit costs in base currency.
type CostTable map[string]CostEntry

// LoadCosts reads a cost table from a JSON file of the form
// {"<product name>": {"cost": 1.23}, ...}.
func LoadCosts(path string) (CostTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open costs file: %w", err)
	}
	defer f.Close()
	return ReadCosts(f)
}

// ReadCosts decodes a cost table. Entries with a negative cost are rejected.
func ReadCosts(r io.Reader) (CostTable, error) {
	var table CostTable
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to decode costs: %w", err)
	}
	for name, entry := range table {
		if entry.Cost < 0 {
			return nil, fmt.Errorf("cost of %q must not be negative, got %v", name, entry.Cost)
		}
	}
	return table, nil
}
