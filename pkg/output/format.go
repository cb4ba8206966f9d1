// Package output provides utilities for formatting and displaying price recommendations.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/price-optimizer/pkg/format"
	"github.com/iwvelando/price-optimizer/pkg/optimization"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sheet names of the XLSX workbook.
const (
	SummarySheet = "Recommendations"
	CurveSheet   = "Price Curves"
)

var csvHeader = []string{
	"product", "category", "current_price", "optimal_price", "price_change_pct",
	"estimated_cost", "cost_source", "base_elasticity", "adjusted_elasticity", "elasticity_type",
	"current_demand", "optimal_demand", "current_profit", "optimal_profit", "profit_improvement_pct",
	"min_price", "max_price", "demand_level", "constrained", "notes",
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
// Amounts are printed as given, labelled with currency.
func PrettyFormat(results []optimization.Result, currency string) {
	p := message.NewPrinter(language.English)
	for _, result := range results {
		fmt.Printf("--- Recommendation for %s ---\n", result.ProductName)
		if result.Category != "" {
			fmt.Printf("Category        | %s\n", result.Category)
		}
		fmt.Printf("Current price   | %s\n", format.Currency(result.CurrentPrice, currency))
		fmt.Printf("Optimal price   | %s (%s)\n", format.Currency(result.OptimalPrice, currency), format.SignedPercent(result.PriceChangePct))
		fmt.Printf("Estimated cost  | %s (%s)\n", format.Currency(result.EstimatedCost, currency), result.CostSource)
		fmt.Printf("Elasticity      | %.2f base, %.2f adjusted (%s)\n", result.BaseElasticity, result.AdjustedElasticity, result.ElasticityType)
		fmt.Printf("Feasible band   | %s to %s, %s demand\n",
			format.Currency(result.Band.MinPrice, currency), format.Currency(result.Band.MaxPrice, currency), result.Band.DemandLevel)
		fmt.Printf("\n")
		fmt.Printf("        | Price         | Demand     | Profit\n")
		fmt.Printf("____    | _____________ | __________ | _____________\n")
		_, _ = p.Printf("Current | %.2f | %.0f | %.2f\n", result.Current.Price, result.Current.Demand, result.Current.Profit)
		_, _ = p.Printf("Optimal | %.2f | %.0f | %.2f\n", result.Optimal.Price, result.Optimal.Demand, result.Optimal.Profit)
		fmt.Printf("\nProfit %s, revenue %s, demand %s\n",
			format.SignedPercent(result.Improvements.ProfitPct),
			format.SignedPercent(result.Improvements.RevenuePct),
			format.SignedPercent(result.Improvements.DemandPct))
		if result.Constrained {
			fmt.Printf("The optimum sits on the edge of the feasible band.\n")
		}
		if result.Rationale != "" {
			fmt.Printf("\n%s\n", result.Rationale)
		}
		for _, note := range result.Notes {
			fmt.Printf("Note: %s\n", note)
		}
		if len(results) > 1 {
			fmt.Printf("\n")
		}
	}
}

// CsvFormat outputs one row per recommendation in comma-separated value format.
func CsvFormat(results []optimization.Result) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		if err := w.Write(csvRow(result)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvRow(result optimization.Result) []string {
	return []string{
		result.ProductName,
		result.Category,
		fmt.Sprintf("%.2f", result.CurrentPrice),
		fmt.Sprintf("%.2f", result.OptimalPrice),
		fmt.Sprintf("%.2f", result.PriceChangePct),
		fmt.Sprintf("%.2f", result.EstimatedCost),
		result.CostSource,
		fmt.Sprintf("%.3f", result.BaseElasticity),
		fmt.Sprintf("%.3f", result.AdjustedElasticity),
		result.ElasticityType,
		fmt.Sprintf("%.1f", result.Current.Demand),
		fmt.Sprintf("%.1f", result.Optimal.Demand),
		fmt.Sprintf("%.2f", result.Current.Profit),
		fmt.Sprintf("%.2f", result.Optimal.Profit),
		fmt.Sprintf("%.2f", result.Improvements.ProfitPct),
		fmt.Sprintf("%.2f", result.Band.MinPrice),
		fmt.Sprintf("%.2f", result.Band.MaxPrice),
		result.Band.DemandLevel,
		fmt.Sprintf("%t", result.Constrained),
		strings.Join(result.Notes, "; "),
	}
}

// XlsxFormat writes the recommendations to a workbook at path: a summary
// sheet with one row per product and a sheet with every product's curve.
func XlsxFormat(results []optimization.Result, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	header := make([]interface{}, len(csvHeader))
	for i, name := range csvHeader {
		header[i] = name
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for i, result := range results {
		row := []interface{}{
			result.ProductName, result.Category, result.CurrentPrice, result.OptimalPrice, result.PriceChangePct,
			result.EstimatedCost, result.CostSource, result.BaseElasticity, result.AdjustedElasticity, result.ElasticityType,
			result.Current.Demand, result.Optimal.Demand, result.Current.Profit, result.Optimal.Profit, result.Improvements.ProfitPct,
			result.Band.MinPrice, result.Band.MaxPrice, result.Band.DemandLevel, result.Constrained, strings.Join(result.Notes, "; "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(CurveSheet); err != nil {
		return fmt.Errorf("failed to create curve sheet: %w", err)
	}
	curveHeader := []interface{}{"product", "price", "demand", "revenue", "profit", "price_change_pct", "adjusted_elasticity"}
	if err := f.SetSheetRow(CurveSheet, "A1", &curveHeader); err != nil {
		return fmt.Errorf("failed to write curve header: %w", err)
	}
	rowNum := 2
	for _, result := range results {
		for _, point := range result.Curve {
			row := []interface{}{
				result.ProductName, point.Price, point.Demand, point.Revenue, point.Profit,
				point.PriceChangePct, point.AdjustedElasticity,
			}
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(CurveSheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write curve row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
