package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/price-optimizer/internal/catalog"
	"github.com/iwvelando/price-optimizer/internal/optimizer"
	"github.com/iwvelando/price-optimizer/pkg/datetime"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/iwvelando/price-optimizer/pkg/validation"
	"go.uber.org/zap"
)

// SellingContext identifies a product and its selling context. Money is in
// display currency. A product ID fills in name, category and current price
// from the catalog.
type SellingContext struct {
	ProductID     string  `json:"productId"`
	ProductName   string  `json:"productName" validate:"required_without=ProductID"`
	Category      string  `json:"category"`
	Emirate       string  `json:"emirate"`
	StoreType     string  `json:"storeType"`
	CurrentDemand float64 `json:"currentDemand" validate:"gte=0"`
	Cost          float64 `json:"cost" validate:"gte=0"`
	Date          string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsHoliday     bool    `json:"isHoliday"`
}

type optimizeRequest struct {
	SellingContext
	CurrentPrice float64 `json:"currentPrice" validate:"gte=0"`
}

type batchRequest struct {
	Requests []optimizeRequest `json:"requests" validate:"required,min=1,dive"`
}

type simulateRequest struct {
	SellingContext
	Price float64 `json:"price" validate:"gt=0"`
}

type optimizeResponse struct {
	RequestID      string                      `json:"requestId"`
	Currency       string                      `json:"currency"`
	Result         optimization.Result         `json:"result"`
	Interpretation optimization.Interpretation `json:"interpretation"`
	DemandCurve    []optimization.PricePoint   `json:"demandCurve"`
	Warnings       []string                    `json:"warnings,omitempty"`
	Duration       string                      `json:"duration"`
}

type batchResponse struct {
	RequestID string                `json:"requestId"`
	Currency  string                `json:"currency"`
	Results   []optimization.Result `json:"results"`
	Duration  string                `json:"duration"`
}

type simulateResponse struct {
	RequestID  string                  `json:"requestId"`
	Currency   string                  `json:"currency"`
	Simulation optimization.Simulation `json:"simulation"`
	Duration   string                  `json:"duration"`
}

type productsResponse struct {
	Currency string            `json:"currency"`
	Products []catalog.Product `json:"products"`
}

type productStatsResponse struct {
	Currency string          `json:"currency"`
	Product  catalog.Product `json:"product"`
	Stats    catalog.Stats   `json:"stats"`
}

func (h *handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.Products()
	for i := range products {
		products[i] = h.converter.Product(products[i])
	}
	h.writeJSON(w, r, http.StatusOK, productsResponse{
		Currency: h.converter.Code,
		Products: products,
	})
}

func (h *handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, "server.handleProduct")
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.converter.Product(product))
}

func (h *handler) handleProductStats(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, "server.handleProductStats")
		return
	}
	stats, err := h.catalog.Stats(product.Name)
	if err != nil {
		h.respondError(w, r, err, "server.handleProductStats")
		return
	}
	h.writeJSON(w, r, http.StatusOK, productStatsResponse{
		Currency: h.converter.Code,
		Product:  h.converter.Product(product),
		Stats:    h.converter.Stats(stats),
	})
}

func (h *handler) handleValidValues(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.catalog.ValidValues())
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	start := time.Now()

	var req optimizeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err, op)
		return
	}
	dc, err := h.demandContext(req.SellingContext, req.CurrentPrice)
	if err != nil {
		h.respondError(w, r, err, op)
		return
	}

	result, err := h.runner.Recommend(r.Context(), dc)
	if err != nil {
		h.respondError(w, r, err, op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("optimization served",
		zap.String("op", op),
		zap.String("requestId", getRequestID(r.Context())),
		zap.String("product", result.ProductName),
		zap.Float64("priceChangePct", result.PriceChangePct),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, r, http.StatusOK, optimizeResponse{
		RequestID:      getRequestID(r.Context()),
		Currency:       h.converter.Code,
		Result:         h.converter.Result(result),
		Interpretation: h.converter.Interpretation(optimizer.Interpret(result)),
		DemandCurve:    h.converter.Points(h.runner.DemandCurve(result)),
		Warnings:       validation.DemandContextWarnings(dc),
		Duration:       elapsed.String(),
	})
}

func (h *handler) handleOptimizeBatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimizeBatch"
	start := time.Now()

	var req batchRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err, op)
		return
	}
	if len(req.Requests) > MaxBatchSize {
		h.respondErrorWithOp(w, r, http.StatusBadRequest,
			fmt.Sprintf("batch of %d exceeds limit of %d", len(req.Requests), MaxBatchSize), op)
		return
	}

	contexts := make([]optimization.DemandContext, 0, len(req.Requests))
	for i, item := range req.Requests {
		dc, err := h.demandContext(item.SellingContext, item.CurrentPrice)
		if err != nil {
			h.respondError(w, r, fmt.Errorf("request %d: %w", i+1, err), op)
			return
		}
		contexts = append(contexts, dc)
	}

	results, err := h.runner.OptimizeBatch(r.Context(), contexts)
	if err != nil {
		h.respondError(w, r, err, op)
		return
	}
	for i := range results {
		results[i] = h.converter.Result(results[i])
		results[i].Curve = nil
	}

	elapsed := time.Since(start)
	h.logger.Info("batch optimization served",
		zap.String("op", op),
		zap.String("requestId", getRequestID(r.Context())),
		zap.Int("requests", len(results)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, r, http.StatusOK, batchResponse{
		RequestID: getRequestID(r.Context()),
		Currency:  h.converter.Code,
		Results:   results,
		Duration:  elapsed.String(),
	})
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	start := time.Now()

	var req simulateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err, op)
		return
	}
	dc, err := h.demandContext(req.SellingContext, req.Price)
	if err != nil {
		h.respondError(w, r, err, op)
		return
	}

	sim, err := h.runner.Simulate(r.Context(), dc)
	if err != nil {
		h.respondError(w, r, err, op)
		return
	}

	elapsed := time.Since(start)
	h.writeJSON(w, r, http.StatusOK, simulateResponse{
		RequestID:  getRequestID(r.Context()),
		Currency:   h.converter.Code,
		Simulation: h.converter.Simulation(sim),
		Duration:   elapsed.String(),
	})
}

// demandContext resolves a request against the catalog and converts it to
// base currency. A zero price takes the product's latest catalog price.
func (h *handler) demandContext(req SellingContext, price float64) (optimization.DemandContext, error) {
	name := strings.TrimSpace(req.ProductName)
	category := strings.TrimSpace(req.Category)

	var product catalog.Product
	var known bool
	if id := strings.TrimSpace(req.ProductID); id != "" {
		p, err := h.catalog.Product(id)
		if err != nil {
			return optimization.DemandContext{}, err
		}
		product, known = p, true
		name = p.Name
	} else if p, err := h.catalog.ProductByName(name); err == nil {
		product, known = p, true
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return optimization.DemandContext{}, err
	}

	if known {
		if category == "" {
			category = product.Category
		}
		if price == 0 {
			price = h.converter.ToDisplay(product.CurrentPrice)
		}
	}

	dc := optimization.DemandContext{
		ProductName:   name,
		Category:      category,
		Emirate:       strings.TrimSpace(req.Emirate),
		StoreType:     strings.TrimSpace(req.StoreType),
		CurrentPrice:  price,
		CurrentDemand: req.CurrentDemand,
		Cost:          req.Cost,
		IsHoliday:     req.IsHoliday,
	}
	if req.Date != "" {
		date, err := datetime.ParseDate(req.Date)
		if err != nil {
			return optimization.DemandContext{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		cal := datetime.CalendarOf(date)
		dc.Month, dc.DayOfWeek, dc.DayOfMonth, dc.IsWeekend = cal.Month, cal.DayOfWeek, cal.DayOfMonth, cal.IsWeekend
	}
	if err := validation.ValidateDemandContext(dc); err != nil {
		return optimization.DemandContext{}, fmt.Errorf("%w: %v", optimizer.ErrInvalidInput, err)
	}
	return h.converter.ContextToBase(dc), nil
}
