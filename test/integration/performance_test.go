package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/iwvelando/price-optimizer/internal/server"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func batchOf(n int) []optimization.DemandContext {
	products := []struct {
		name     string
		category string
		price    float64
	}{
		{"NIDO FORTIFIED MILK POWDER 900G", "DAIRY", 10.05},
		{"KITKAT 4 FINGER 41.5G", "CONFECTIONERY", 0.97},
		{"NESCAFE CLASSIC 200G", "TOTAL COFFEE", 8.63},
		{"PURINA ONE CAT FOOD 800G", "PET CARE", 6.11},
	}
	locations := [][2]string{{"Dubai", "Hypermarket"}, {"Sharjah", "Supermarket"}, {"", ""}}

	batch := make([]optimization.DemandContext, n)
	for i := range batch {
		p := products[i%len(products)]
		loc := locations[i%len(locations)]
		batch[i] = optimization.DemandContext{
			ProductName:  p.name,
			Category:     p.category,
			Emirate:      loc[0],
			StoreType:    loc[1],
			CurrentPrice: p.price * (0.9 + float64(i%5)*0.05),
		}
	}
	return batch
}

// TestPerformance tests the throughput of batch optimization.
func TestPerformance(t *testing.T) {
	start := time.Now()
	a := newApp(t, nil)
	setupTime := time.Since(start)

	batch := batchOf(400)
	start = time.Now()
	results, err := a.Runner.OptimizeBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("OptimizeBatch() error = %v", err)
	}
	batchTime := time.Since(start)

	if len(results) != len(batch) {
		t.Fatalf("expected %d results, got %d", len(batch), len(results))
	}
	for i, result := range results {
		if result.ProductName != batch[i].ProductName {
			t.Fatalf("result %d out of order: %s", i, result.ProductName)
		}
	}

	t.Logf("setup: %v, %d optimizations: %v (%v each)",
		setupTime, len(batch), batchTime, batchTime/time.Duration(len(batch)))

	if setupTime > 5*time.Second {
		t.Errorf("catalog setup took too long: %v", setupTime)
	}
	if batchTime > 10*time.Second {
		t.Errorf("batch optimization took too long: %v", batchTime)
	}
}

// TestMemoryUsage checks repeated optimization does not accumulate memory.
func TestMemoryUsage(t *testing.T) {
	a := newApp(t, nil)
	batch := batchOf(100)

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	for i := 0; i < 10; i++ {
		if _, err := a.Runner.OptimizeBatch(context.Background(), batch); err != nil {
			t.Fatalf("OptimizeBatch() error = %v", err)
		}
	}

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)

	growth := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	t.Logf("heap growth after 1000 optimizations: %d bytes", growth)
	if growth > 50*1024*1024 {
		t.Errorf("heap grew by %d bytes", growth)
	}
}

// TestConcurrentAPIRequests drives the API from many clients at once.
func TestConcurrentAPIRequests(t *testing.T) {
	a := newApp(t, nil)
	handler, err := server.NewHandler(zap.NewNop(), server.Dependencies{
		Runner:    a.Runner,
		Catalog:   a.Catalog,
		Converter: a.Converter,
	}, nil, "test")
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	const clients = 32
	const requestsPerClient = 5
	products := []string{"SKU001", "SKU002", "SKU003", "SKU004"}

	var g errgroup.Group
	for c := 0; c < clients; c++ {
		g.Go(func() error {
			for i := 0; i < requestsPerClient; i++ {
				body, _ := json.Marshal(map[string]string{"productId": products[(c+i)%len(products)]})
				resp, err := http.Post(srv.URL+"/api/optimize", "application/json", bytes.NewReader(body))
				if err != nil {
					return err
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return fmt.Errorf("client %d request %d: status %d", c, i, resp.StatusCode)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
