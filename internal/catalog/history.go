package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/price-optimizer/pkg/constants"
	"github.com/iwvelando/price-optimizer/pkg/datetime"
	"github.com/xuri/excelize/v2"
)

// History file columns.
const (
	ColumnDate       = "period_normalized_date"
	ColumnProduct    = "product_name"
	ColumnCategory   = "category"
	ColumnBrand      = "brand"
	ColumnEmirate    = "emirate"
	ColumnStoreType  = "store_type"
	ColumnPrice      = "price_per_sales_unit"
	ColumnSalesUnits = "sales_units"
	ColumnRolling3M  = "rolling_3day_mean"
	ColumnRolling7M  = "rolling_7day_mean"
	ColumnRolling30M = "rolling_30day_mean"
	ColumnRolling3S  = "rolling_3day_std"
	ColumnRolling7S  = "rolling_7day_std"
	ColumnRolling30S = "rolling_30day_std"
)

var requiredColumns = []string{ColumnDate, ColumnProduct, ColumnPrice}

// RollingStats are the rolling sales means and deviations of one history row.
type RollingStats struct {
	Mean3  float64 `json:"rolling3DayMean"`
	Mean7  float64 `json:"rolling7DayMean"`
	Mean30 float64 `json:"rolling30DayMean"`
	Std3   float64 `json:"rolling3DayStd"`
	Std7   float64 `json:"rolling7DayStd"`
	Std30  float64 `json:"rolling30DayStd"`
}

// DefaultRollingStats fills in for products without history.
func DefaultRollingStats() RollingStats {
	return RollingStats{
		Mean3:  constants.DefaultRollingMean,
		Mean7:  constants.DefaultRollingMean,
		Mean30: constants.DefaultRollingMean,
		Std3:   constants.DefaultRollingStd,
		Std7:   constants.DefaultRollingStd,
		Std30:  constants.DefaultRollingStd,
	}
}

// Mean returns the rolling mean for a 3, 7 or 30 day window. Any other window
// reads the 7 day mean.
func (s RollingStats) Mean(window int) float64 {
	switch window {
	case 3:
		return s.Mean3
	case 30:
		return s.Mean30
	default:
		return s.Mean7
	}
}

// Record is one row of sales history. Prices are in base currency.
type Record struct {
	Date        time.Time
	ProductName string
	Category    string
	Brand       string
	Emirate     string
	StoreType   string
	Price       float64
	SalesUnits  float64
	Rolling     RollingStats
}

// LoadHistory reads a sales history file. The format follows the extension:
// .csv or .xlsx.
func LoadHistory(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("unsupported history file type %q", ext)
	}
}

// ReadCSV parses sales history from CSV with a header row.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read history csv: %w", err)
	}
	return parseRows(rows)
}

// ReadXLSX parses sales history from the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open history workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("history workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("history is empty")
	}
	index := headerIndex(rows[0])
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("history is missing required column %q", col)
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		record, err := parseRecord(index, row)
		if err != nil {
			return nil, fmt.Errorf("history row %d: %w", i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name != "" {
			index[name] = i
		}
	}
	return index
}

func parseRecord(index map[string]int, row []string) (Record, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := datetime.ParseDate(cell(ColumnDate))
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColumnDate, err)
	}
	name := cell(ColumnProduct)
	if name == "" {
		return Record{}, fmt.Errorf("%s is empty", ColumnProduct)
	}
	price, err := parseNumber(cell(ColumnPrice), 0, true)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColumnPrice, err)
	}
	if price <= 0 {
		return Record{}, fmt.Errorf("%s: price %v must be positive", ColumnPrice, price)
	}

	record := Record{
		Date:        date,
		ProductName: name,
		Category:    cell(ColumnCategory),
		Brand:       cell(ColumnBrand),
		Emirate:     cell(ColumnEmirate),
		StoreType:   cell(ColumnStoreType),
		Price:       price,
	}

	numeric := []struct {
		col      string
		fallback float64
		dst      *float64
	}{
		{ColumnSalesUnits, 0, &record.SalesUnits},
		{ColumnRolling3M, constants.DefaultRollingMean, &record.Rolling.Mean3},
		{ColumnRolling7M, constants.DefaultRollingMean, &record.Rolling.Mean7},
		{ColumnRolling30M, constants.DefaultRollingMean, &record.Rolling.Mean30},
		{ColumnRolling3S, constants.DefaultRollingStd, &record.Rolling.Std3},
		{ColumnRolling7S, constants.DefaultRollingStd, &record.Rolling.Std7},
		{ColumnRolling30S, constants.DefaultRollingStd, &record.Rolling.Std30},
	}
	for _, n := range numeric {
		value, err := parseNumber(cell(n.col), n.fallback, false)
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", n.col, err)
		}
		*n.dst = value
	}
	return record, nil
}

// parseNumber parses a non-negative finite numeric cell. Empty cells take the
// fallback unless the value is required.
func parseNumber(value string, fallback float64, required bool) (float64, error) {
	if value == "" {
		if required {
			return 0, errors.New("value is empty")
		}
		return fallback, nil
	}
	number, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, fmt.Errorf("non-finite number %q", value)
	}
	if number < 0 {
		return 0, fmt.Errorf("negative number %q", value)
	}
	return number, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
