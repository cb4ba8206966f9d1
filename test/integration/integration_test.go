package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/price-optimizer/internal/app"
	"github.com/iwvelando/price-optimizer/internal/config"
	"github.com/iwvelando/price-optimizer/internal/metrics"
	"github.com/iwvelando/price-optimizer/internal/optimizer"
	"github.com/iwvelando/price-optimizer/internal/server"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/iwvelando/price-optimizer/pkg/output"
	"github.com/iwvelando/price-optimizer/pkg/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const testConfig = "../test_config.yaml"

var expectedProducts = []string{
	"NIDO FORTIFIED MILK POWDER 900G",
	"KITKAT 4 FINGER 41.5G",
	"NESCAFE CLASSIC 200G",
	"PURINA ONE CAT FOOD 800G",
	"HOUSE BRAND TEA 100 BAGS",
}

func newApp(t testing.TB, recorder *metrics.Recorder) *app.App {
	t.Helper()
	conf, err := config.LoadConfiguration(testConfig)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	a, err := app.New(context.Background(), zap.NewNop(), conf, recorder)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func runApp(t testing.TB) []optimization.Result {
	t.Helper()
	results, err := newApp(t, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return results
}

// TestEndToEndRecommendations runs the configured requests exactly as the
// command line tool does and checks the invariants of every recommendation.
func TestEndToEndRecommendations(t *testing.T) {
	results := runApp(t)

	if len(results) != len(expectedProducts) {
		t.Fatalf("Expected %d results, got %d", len(expectedProducts), len(results))
	}
	for i, name := range expectedProducts {
		if results[i].ProductName != name {
			t.Errorf("Result %d: expected %s, got %s", i, name, results[i].ProductName)
		}
	}

	for _, result := range results {
		t.Run(result.ProductName, func(t *testing.T) {
			if result.OptimalPrice < result.Band.MinPrice-0.01 || result.OptimalPrice > result.Band.MaxPrice+0.01 {
				t.Errorf("optimal price %.2f outside band [%.2f, %.2f]",
					result.OptimalPrice, result.Band.MinPrice, result.Band.MaxPrice)
			}
			if result.PriceChangePct > 10.01 || result.PriceChangePct < -50.01 {
				t.Errorf("price change %.2f%% outside the allowed range", result.PriceChangePct)
			}
			if result.Optimal.Profit < result.Current.Profit-0.01 {
				t.Errorf("optimal profit %.2f below current %.2f", result.Optimal.Profit, result.Current.Profit)
			}
			if result.AdjustedElasticity >= 0 {
				t.Errorf("adjusted elasticity %.3f should be negative", result.AdjustedElasticity)
			}
			if result.Rationale == "" {
				t.Error("missing rationale")
			}
			if len(result.Curve) != 25 {
				t.Errorf("expected 25 curve points, got %d", len(result.Curve))
			}
		})
	}
}

func TestEndToEndInputsResolved(t *testing.T) {
	results := runApp(t)

	checks := []struct {
		product    string
		price      float64
		demand     float64
		cost       float64
		costSource string
	}{
		// Demand from the matching location's 7 day rolling mean.
		{"NIDO FORTIFIED MILK POWDER 900G", 37.19, 1097.57, 22.57, optimizer.CostSourceCatalog},
		{"KITKAT 4 FINGER 41.5G", 3.40, 165.43, 2.89, optimizer.CostSourceCatalog},
		// No location: the most recent row of the product.
		{"NESCAFE CLASSIC 200G", 31.78, 227.71, 18.68, optimizer.CostSourceCatalog},
		{"PURINA ONE CAT FOOD 800G", 22.98, 58.43, 14.80, optimizer.CostSourceRequest},
		{"HOUSE BRAND TEA 100 BAGS", 18.50, 240, 11.10, optimizer.CostSourceMargin},
	}
	for _, check := range checks {
		t.Run(check.product, func(t *testing.T) {
			result := testutil.FindResult(results, check.product)
			if result == nil {
				t.Fatalf("no result for %s", check.product)
			}
			if math.Abs(result.CurrentPrice-check.price) > 0.001 {
				t.Errorf("current price = %.2f, expected %.2f", result.CurrentPrice, check.price)
			}
			if math.Abs(result.Current.Demand-check.demand) > 1e-6 {
				t.Errorf("current demand = %v, expected %v", result.Current.Demand, check.demand)
			}
			if math.Abs(result.EstimatedCost-check.cost) > 0.001 {
				t.Errorf("cost = %.2f, expected %.2f", result.EstimatedCost, check.cost)
			}
			if result.CostSource != check.costSource {
				t.Errorf("cost source = %s, expected %s", result.CostSource, check.costSource)
			}
		})
	}
}

func TestEndToEndDeterministicWithoutJitter(t *testing.T) {
	first := runApp(t)
	second := runApp(t)
	for i := range first {
		if first[i].OptimalPrice != second[i].OptimalPrice || first[i].AdjustedElasticity != second[i].AdjustedElasticity {
			t.Errorf("%s: runs differ (%.2f vs %.2f)", first[i].ProductName, first[i].OptimalPrice, second[i].OptimalPrice)
		}
	}
}

func TestCSVOutputFormat(t *testing.T) {
	results := runApp(t)

	var err error
	out := testutil.CaptureStdout(t, func() {
		err = output.CsvFormat(results)
	})
	if err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV output: %v", err)
	}
	if len(records) != len(results)+1 {
		t.Fatalf("expected %d CSV records, got %d", len(results)+1, len(records))
	}
	if records[0][0] != "product" || records[1][0] != expectedProducts[0] {
		t.Errorf("unexpected CSV layout: %v / %v", records[0][:2], records[1][:2])
	}
	for _, record := range records[1:] {
		if len(record) != len(records[0]) {
			t.Errorf("record for %s has %d fields, header has %d", record[0], len(record), len(records[0]))
		}
	}
}

func TestPrettyOutputFormat(t *testing.T) {
	results := runApp(t)

	out := testutil.CaptureStdout(t, func() {
		output.PrettyFormat(results, "AED")
	})
	for _, name := range expectedProducts {
		if !strings.Contains(out, "--- Recommendation for "+name+" ---") {
			t.Errorf("pretty output missing %s", name)
		}
	}
	if !strings.Contains(out, "Current price   | AED 37.19") {
		t.Errorf("pretty output missing converted price")
	}
}

func TestXlsxOutputFormat(t *testing.T) {
	results := runApp(t)
	path := filepath.Join(t.TempDir(), "recommendations.xlsx")
	if err := output.XlsxFormat(results, path); err != nil {
		t.Fatalf("XlsxFormat() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	summary, err := f.GetRows(output.SummarySheet)
	if err != nil || len(summary) != len(results)+1 {
		t.Fatalf("summary rows = %d, err = %v", len(summary), err)
	}
	curves, err := f.GetRows(output.CurveSheet)
	if err != nil || len(curves) != 25*len(results)+1 {
		t.Fatalf("curve rows = %d, err = %v", len(curves), err)
	}
}

func TestConfigurationValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"Valid minimal", "requests:\n  - productName: A\n    currentPrice: 5\n", false},
		{"Missing product name", "requests:\n  - currentPrice: 5\n", true},
		{"Zero price", "requests:\n  - productName: A\n", true},
		{"Negative demand", "requests:\n  - productName: A\n    currentPrice: 5\n    currentDemand: -1\n", true},
		{"Bad log level", "logging:\n  level: loud\n", true},
		{"Bad output format", "output:\n  format: pdf\n", true},
		{"Bad oracle weight", "pricing:\n  oracleWeight: 2\n", true},
		{"Bad exchange rate", "catalog:\n  exchangeRate: -1\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := config.LoadConfigurationFromReader(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatalf("LoadConfigurationFromReader() error = %v", err)
			}
			err = conf.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestAPIMatchesCommandLine serves the same catalog over HTTP and checks the
// API recommends what the command line tool does.
func TestAPIMatchesCommandLine(t *testing.T) {
	recorder := metrics.NewRecorder()
	a := newApp(t, recorder)
	cliResults, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	handler, err := server.NewHandler(zap.NewNop(), server.Dependencies{
		Runner:    a.Runner,
		Catalog:   a.Catalog,
		Converter: a.Converter,
		Metrics:   recorder,
	}, nil, "test")
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"productName":  "NIDO FORTIFIED MILK POWDER 900G",
		"emirate":      "Dubai",
		"storeType":    "Hypermarket",
		"currentPrice": 37.19,
	})
	resp, err := http.Post(srv.URL+"/api/optimize", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/optimize failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var api struct {
		Currency string              `json:"currency"`
		Result   optimization.Result `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	cli := testutil.FindResult(cliResults, "NIDO FORTIFIED MILK POWDER 900G")
	if api.Currency != "AED" {
		t.Errorf("currency = %s", api.Currency)
	}
	if api.Result.OptimalPrice != cli.OptimalPrice || api.Result.EstimatedCost != cli.EstimatedCost {
		t.Errorf("API recommends %.2f (cost %.2f), command line %.2f (cost %.2f)",
			api.Result.OptimalPrice, api.Result.EstimatedCost, cli.OptimalPrice, cli.EstimatedCost)
	}

	metricsResp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer func() { _ = metricsResp.Body.Close() }()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(metricsResp.Body)
	if !strings.Contains(buf.String(), `priceopt_http_requests_total{code="200",route="/api/optimize"} 1`) {
		t.Errorf("metrics missing the optimize request")
	}
}
