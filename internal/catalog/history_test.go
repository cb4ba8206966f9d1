package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleHistory))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}

	first := records[0]
	if first.ProductName != "NIDO FORTIFIED" || first.Emirate != "Dubai" || first.Price != 10 || first.SalesUnits != 1200 {
		t.Errorf("first record = %+v", first)
	}
	if first.Rolling.Mean7 != 1150 || first.Rolling.Std30 != 70 {
		t.Errorf("first rolling = %+v", first.Rolling)
	}

	sparse := records[4]
	if sparse.Rolling != DefaultRollingStats() {
		t.Errorf("empty rolling cells = %+v, expected defaults", sparse.Rolling)
	}
}

func TestReadCSVHeaders(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{
			name:  "Minimal columns",
			input: "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,MAGGI,1.25\n",
			want:  1,
		},
		{
			name:  "Header case and byte order mark",
			input: "\ufeffPeriod_Normalized_Date, Product_Name ,PRICE_PER_SALES_UNIT\n2025-01-01,MAGGI,1.25\n",
			want:  1,
		},
		{
			name:  "Thousands separator",
			input: "period_normalized_date,product_name,price_per_sales_unit,sales_units\n2025-01-01,MAGGI,1.25,\"1,200\"\n",
			want:  1,
		},
		{
			name:    "Missing price column",
			input:   "period_normalized_date,product_name\n2025-01-01,MAGGI\n",
			wantErr: "price_per_sales_unit",
		},
		{
			name:    "Invalid price",
			input:   "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,MAGGI,cheap\n",
			wantErr: "row 2",
		},
		{
			name:    "Empty price",
			input:   "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,MAGGI,\n",
			wantErr: "value is empty",
		},
		{
			name:    "NaN price",
			input:   "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,MAGGI,NaN\n",
			wantErr: "non-finite number",
		},
		{
			name:    "Infinite price",
			input:   "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,MAGGI,+Inf\n",
			wantErr: "non-finite number",
		},
		{
			name:    "Zero price",
			input:   "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,MAGGI,0\n",
			wantErr: "must be positive",
		},
		{
			name:    "Negative price",
			input:   "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,MAGGI,-1.25\n",
			wantErr: "negative number",
		},
		{
			name:    "Non-finite rolling mean",
			input:   "period_normalized_date,product_name,price_per_sales_unit,rolling_7day_mean\n2025-01-01,MAGGI,1.25,inf\n",
			wantErr: "rolling_7day_mean",
		},
		{
			name:    "Negative sales units",
			input:   "period_normalized_date,product_name,price_per_sales_unit,sales_units\n2025-01-01,MAGGI,1.25,-4\n",
			wantErr: "negative number",
		},
		{
			name:    "Invalid date",
			input:   "period_normalized_date,product_name,price_per_sales_unit\nsoon,MAGGI,1\n",
			wantErr: "period_normalized_date",
		},
		{
			name:    "Empty product",
			input:   "period_normalized_date,product_name,price_per_sales_unit\n2025-01-01,,1\n",
			wantErr: "product_name is empty",
		},
		{
			name:    "Empty input",
			input:   "",
			wantErr: "history is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("ReadCSV() error = %v, expected to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadCSV() error: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("expected %d records, got %d", tt.want, len(records))
			}
		})
	}
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"period_normalized_date", "product_name", "category", "emirate", "store_type", "price_per_sales_unit", "sales_units", "rolling_7day_mean"},
		{"2025-03-01", "NIDO FORTIFIED", "DAIRY", "Dubai", "Hypermarket", 10.25, 1200, 1150},
		{"2025-03-02", "NIDO FORTIFIED", "DAIRY", "Dubai", "Hypermarket", 10.5, 1100},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error: %v", err)
	}
}

func TestLoadHistoryXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	writeWorkbook(t, path)

	records, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Price != 10.25 || records[0].Rolling.Mean7 != 1150 {
		t.Errorf("first record = %+v", records[0])
	}
	// short rows read missing cells as empty
	if records[1].Rolling.Mean7 != 50 {
		t.Errorf("second record rolling mean = %v, expected default", records[1].Rolling.Mean7)
	}
}

func TestLoadHistoryFileTypes(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "history.CSV")
	if err := os.WriteFile(csvPath, []byte(sampleHistory), 0o644); err != nil {
		t.Fatal(err)
	}
	if records, err := LoadHistory(csvPath); err != nil || len(records) != 5 {
		t.Errorf("LoadHistory(csv) = %d records, %v", len(records), err)
	}

	txtPath := filepath.Join(dir, "history.txt")
	if err := os.WriteFile(txtPath, []byte(sampleHistory), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHistory(txtPath); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("LoadHistory(txt) error = %v, expected unsupported type", err)
	}

	if _, err := LoadHistory(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRollingStatsMean(t *testing.T) {
	stats := RollingStats{Mean3: 3, Mean7: 7, Mean30: 30}
	tests := []struct {
		window   int
		expected float64
	}{
		{3, 3},
		{7, 7},
		{30, 30},
		{14, 7},
	}
	for _, tt := range tests {
		if got := stats.Mean(tt.window); got != tt.expected {
			t.Errorf("Mean(%d) = %v, expected %v", tt.window, got, tt.expected)
		}
	}
}
