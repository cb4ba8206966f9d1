package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/price-optimizer/internal/config"
	"github.com/iwvelando/price-optimizer/internal/metrics"
	"github.com/iwvelando/price-optimizer/internal/optimizer"
	"github.com/iwvelando/price-optimizer/pkg/testutil"
	"go.uber.org/zap"
)

const baseConfig = `
logging:
  level: warn
pricing:
  disableJitter: true
catalog:
  historyFile: ../../test/sales_history.csv
  costsFile: ../../test/product_costs.json
requests:
  - productName: NIDO FORTIFIED MILK POWDER 900G
    category: DAIRY
    emirate: Dubai
    storeType: Hypermarket
    currentPrice: 37
  - productName: KITKAT 4 FINGER 41.5G
    category: CONFECTIONERY
    currentPrice: 3.5
    currentDemand: 300
`

func loadConfig(t *testing.T, extra string) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfigurationFromReader(strings.NewReader(baseConfig + extra))
	if err != nil {
		t.Fatalf("failed to load configuration: %v", err)
	}
	return conf
}

func TestNewAndRun(t *testing.T) {
	recorder := metrics.NewRecorder()
	a, err := New(context.Background(), zap.NewNop(), loadConfig(t, ""), recorder)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if a.Converter.Code != "AED" || a.Converter.Rate != 3.7 {
		t.Errorf("converter = %+v", a.Converter)
	}
	if len(a.Catalog.Products()) != 4 {
		t.Errorf("expected 4 products, got %d", len(a.Catalog.Products()))
	}

	results, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ProductName != "NIDO FORTIFIED MILK POWDER 900G" {
		t.Errorf("results out of order: %q first", results[0].ProductName)
	}

	nido := testutil.FindResult(results, "NIDO FORTIFIED MILK POWDER 900G")
	if nido.CurrentPrice != 37 {
		t.Errorf("display price = %v, expected 37", nido.CurrentPrice)
	}
	if nido.EstimatedCost != 22.57 || nido.CostSource != optimizer.CostSourceCatalog {
		t.Errorf("cost = %v (%s), expected 22.57 from catalog", nido.EstimatedCost, nido.CostSource)
	}
	if nido.Current.Demand != 1097.57 {
		t.Errorf("demand = %v, expected the Dubai hypermarket rolling mean", nido.Current.Demand)
	}
	if len(nido.Curve) == 0 {
		t.Error("expected the search curve to be kept")
	}

	kitkat := testutil.FindResult(results, "KITKAT 4 FINGER 41.5G")
	if kitkat == nil || kitkat.Current.Demand != 300 {
		t.Fatalf("kitkat result = %+v", kitkat)
	}
	// No cost entry: 85% of the latest 0.92 USD price.
	if kitkat.EstimatedCost != 2.89 {
		t.Errorf("kitkat cost = %v, expected 2.89", kitkat.EstimatedCost)
	}

	rr := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "priceopt_optimizations_total") {
		t.Error("expected optimizations to be recorded")
	}
}

func TestNewWithoutRecorder(t *testing.T) {
	a, err := New(context.Background(), nil, loadConfig(t, ""), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestNewUnreachableRedis(t *testing.T) {
	conf := loadConfig(t, "")
	conf.Catalog.Redis.Addr = "127.0.0.1:1"

	a, err := New(context.Background(), zap.NewNop(), conf, nil)
	if err != nil {
		t.Fatalf("New() should degrade without redis, got %v", err)
	}
	defer a.Close()
	if a.rdb != nil {
		t.Error("expected no redis client")
	}

	results, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if results[0].CostSource != optimizer.CostSourceCatalog {
		t.Errorf("cost source = %q", results[0].CostSource)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(context.Background(), zap.NewNop(), nil, nil); err == nil {
		t.Error("expected error for nil configuration")
	}

	conf := loadConfig(t, "")
	conf.Catalog.HistoryFile = "../../test/missing.csv"
	if _, err := New(context.Background(), zap.NewNop(), conf, nil); err == nil {
		t.Error("expected error for missing history file")
	}

	conf = loadConfig(t, "")
	conf.Pricing.Candidates = 1
	if _, err := New(context.Background(), zap.NewNop(), conf, nil); err == nil {
		t.Error("expected error for invalid pricing configuration")
	}
}

func TestRunCancelled(t *testing.T) {
	a, err := New(context.Background(), zap.NewNop(), loadConfig(t, ""), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Run(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
