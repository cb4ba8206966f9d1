// Package catalog serves products, prices, costs and demand statistics from
// historical sales data.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/iwvelando/price-optimizer/internal/config"
	"github.com/iwvelando/price-optimizer/pkg/constants"
	"github.com/iwvelando/price-optimizer/pkg/datetime"
	"github.com/iwvelando/price-optimizer/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrNotFound is returned for products the catalog knows nothing about.
var ErrNotFound = errors.New("not found")

// Default locations reported when the history has none.
var (
	DefaultEmirates   = []string{"Dubai", "Abu Dhabi", "Sharjah", "Ajman", "Ras Al Khaimah", "Fujairah", "Umm Al Quwain"}
	DefaultStoreTypes = []string{"Hypermarket", "Supermarket", "Mini Market", "Convenience Store", "Traditional", "Online"}
)

// Product is a catalog entry. Money is in base currency.
type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	CurrentPrice float64 `json:"currentPrice"`
	Cost         float64 `json:"cost"`
	Unit         string  `json:"unit"`
	LastDataDate string  `json:"lastDataDate"`
}

// Summary holds min, max and mean of a series.
type Summary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Stats describes the sales history of one product.
type Stats struct {
	TotalRecords int    `json:"totalRecords"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Price        struct {
		Summary
		Current float64 `json:"current"`
	} `json:"price"`
	Sales struct {
		Summary
		Total float64 `json:"total"`
	} `json:"sales"`
	Emirates   []string `json:"emirates"`
	StoreTypes []string `json:"storeTypes"`
}

// ValidValues lists the values accepted in selling contexts.
type ValidValues struct {
	Products   []string `json:"products"`
	Categories []string `json:"categories"`
	Emirates   []string `json:"emirates"`
	StoreTypes []string `json:"storeTypes"`
}

// Catalog is an in-memory view of sales history and unit costs. It is safe
// for concurrent use once built.
type Catalog struct {
	logger   *zap.Logger
	history  map[string][]Record
	products []Product
	byID     map[string]int
	byName   map[string]int
	costs    CostTable

	mu        sync.Mutex
	locations map[string][2][]string
}

// New builds a catalog from history records and a cost table. Product IDs are
// the prefix followed by the 1-based position in name order.
func New(logger *zap.Logger, records []Record, costs CostTable, idPrefix string) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idPrefix == "" {
		idPrefix = constants.DefaultProductIDPrefix
	}

	c := &Catalog{
		logger:    logger,
		history:   make(map[string][]Record),
		byID:      make(map[string]int),
		byName:    make(map[string]int),
		costs:     costs,
		locations: make(map[string][2][]string),
	}
	for _, record := range records {
		c.history[record.ProductName] = append(c.history[record.ProductName], record)
	}

	names := make([]string, 0, len(c.history))
	for name, rows := range c.history {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		latest := c.latest(name)
		price := mathutil.Round(latest.Price)
		product := Product{
			ID:           fmt.Sprintf("%s%03d", idPrefix, i+1),
			Name:         name,
			Category:     latest.Category,
			CurrentPrice: price,
			Cost:         c.costFor(name, price),
			Unit:         "unit",
			LastDataDate: datetime.Format(latest.Date),
		}
		c.byID[product.ID] = i
		c.byName[name] = i
		c.products = append(c.products, product)
	}

	logger.Info("catalog built",
		zap.String("op", "catalog.New"),
		zap.Int("records", len(records)),
		zap.Int("products", len(c.products)),
		zap.Int("costs", len(costs)),
	)
	return c
}

// Load reads the configured history and cost files. Either may be unset.
func Load(logger *zap.Logger, conf config.CatalogConfig) (*Catalog, error) {
	var records []Record
	if conf.HistoryFile != "" {
		loaded, err := LoadHistory(conf.HistoryFile)
		if err != nil {
			return nil, err
		}
		records = loaded
	}

	var costs CostTable
	if conf.CostsFile != "" {
		loaded, err := LoadCosts(conf.CostsFile)
		if err != nil {
			return nil, err
		}
		costs = loaded
	}

	return New(logger, records, costs, conf.IDPrefix), nil
}

// Products returns all products in ID order.
func (c *Catalog) Products() []Product {
	return slices.Clone(c.products)
}

// Product looks a product up by ID.
func (c *Catalog) Product(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", id, ErrNotFound)
	}
	return c.products[i], nil
}

// ProductByName looks a product up by its exact name.
func (c *Catalog) ProductByName(name string) (Product, error) {
	i, ok := c.byName[name]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", name, ErrNotFound)
	}
	return c.products[i], nil
}

// Has reports whether the catalog holds history for a product.
func (c *Catalog) Has(name string) bool {
	return len(c.history[name]) > 0
}

// LatestPrice returns the most recent observed price of a product.
func (c *Catalog) LatestPrice(ctx context.Context, name string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !c.Has(name) {
		return 0, fmt.Errorf("latest price of %q: %w", name, ErrNotFound)
	}
	return c.latest(name).Price, nil
}

// EstimateCost returns the unit cost of a product from the cost table, or 85%
// of its latest price when the table has no entry.
func (c *Catalog) EstimateCost(ctx context.Context, name string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if entry, ok := c.costs[name]; ok && entry.Cost > 0 {
		return entry.Cost, nil
	}
	if !c.Has(name) {
		return 0, fmt.Errorf("cost of %q: %w", name, ErrNotFound)
	}
	return c.costFor(name, c.latest(name).Price), nil
}

// RollingAverages returns the rolling statistics of the most recent history
// row for a product, narrowed to an emirate and store type when given. When
// the filter matches nothing the whole product history is used; a product
// without history gets DefaultRollingStats.
func (c *Catalog) RollingAverages(name, emirate, storeType string) RollingStats {
	rows := c.history[name]
	if len(rows) == 0 {
		return DefaultRollingStats()
	}

	filtered := rows
	if emirate != "" || storeType != "" {
		filtered = nil
		for _, row := range rows {
			if emirate != "" && row.Emirate != emirate {
				continue
			}
			if storeType != "" && row.StoreType != storeType {
				continue
			}
			filtered = append(filtered, row)
		}
		if len(filtered) == 0 {
			c.logger.Debug("no history for location, using all rows",
				zap.String("op", "catalog.RollingAverages"),
				zap.String("product", name),
				zap.String("emirate", emirate),
				zap.String("storeType", storeType),
			)
			filtered = rows
		}
	}
	return filtered[len(filtered)-1].Rolling
}

// Locations returns the emirates and store types present in the history of a
// product, or of all products when name is empty.
func (c *Catalog) Locations(name string) (emirates, storeTypes []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.locations[name]; ok {
		return slices.Clone(cached[0]), slices.Clone(cached[1])
	}

	emirateSet := make(map[string]struct{})
	storeSet := make(map[string]struct{})
	visit := func(rows []Record) {
		for _, row := range rows {
			if row.Emirate != "" {
				emirateSet[row.Emirate] = struct{}{}
			}
			if row.StoreType != "" {
				storeSet[row.StoreType] = struct{}{}
			}
		}
	}
	if name == "" {
		for _, rows := range c.history {
			visit(rows)
		}
	} else {
		visit(c.history[name])
	}

	emirates, storeTypes = sortedKeys(emirateSet), sortedKeys(storeSet)
	if len(emirates) == 0 {
		emirates = slices.Clone(DefaultEmirates)
	}
	if len(storeTypes) == 0 {
		storeTypes = slices.Clone(DefaultStoreTypes)
	}
	c.locations[name] = [2][]string{emirates, storeTypes}
	return slices.Clone(emirates), slices.Clone(storeTypes)
}

// Stats summarises the history of a product.
func (c *Catalog) Stats(name string) (Stats, error) {
	rows := c.history[name]
	if len(rows) == 0 {
		return Stats{}, fmt.Errorf("stats of %q: %w", name, ErrNotFound)
	}

	var stats Stats
	stats.TotalRecords = len(rows)
	stats.Start = datetime.Format(rows[0].Date)
	stats.End = datetime.Format(rows[len(rows)-1].Date)
	stats.Price.Min, stats.Price.Max = math.Inf(1), math.Inf(-1)
	stats.Sales.Min, stats.Sales.Max = math.Inf(1), math.Inf(-1)

	var priceSum float64
	for _, row := range rows {
		priceSum += row.Price
		stats.Price.Min = math.Min(stats.Price.Min, row.Price)
		stats.Price.Max = math.Max(stats.Price.Max, row.Price)
		stats.Sales.Total += row.SalesUnits
		stats.Sales.Min = math.Min(stats.Sales.Min, row.SalesUnits)
		stats.Sales.Max = math.Max(stats.Sales.Max, row.SalesUnits)
	}
	n := float64(len(rows))
	stats.Price.Mean = priceSum / n
	stats.Price.Current = rows[len(rows)-1].Price
	stats.Sales.Mean = stats.Sales.Total / n
	stats.Emirates, stats.StoreTypes = c.Locations(name)
	return stats, nil
}

// ValidValues lists products, categories and locations known to the catalog.
func (c *Catalog) ValidValues() ValidValues {
	names := make([]string, 0, len(c.products))
	categorySet := make(map[string]struct{})
	for _, product := range c.products {
		names = append(names, product.Name)
		if product.Category != "" {
			categorySet[product.Category] = struct{}{}
		}
	}
	emirates, storeTypes := c.Locations("")
	return ValidValues{
		Products:   names,
		Categories: sortedKeys(categorySet),
		Emirates:   emirates,
		StoreTypes: storeTypes,
	}
}

func (c *Catalog) latest(name string) Record {
	rows := c.history[name]
	return rows[len(rows)-1]
}

func (c *Catalog) costFor(name string, price float64) float64 {
	if entry, ok := c.costs[name]; ok && entry.Cost > 0 {
		return entry.Cost
	}
	return mathutil.Round(price * constants.DefaultCostRatio)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
