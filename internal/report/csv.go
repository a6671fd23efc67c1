package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const timestampLayout = "2006-01-02 15:04"

// CSVWriter emits promotion reports as CSV files under a base directory.
type CSVWriter struct {
	dir string
}

// NewCSVWriter builds a writer rooted at dir; the directory is created
// on first write.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Write stores the rows as <chain>-promos-<store>-<date>.csv and returns
// the file path.
func (w *CSVWriter) Write(chain, storeID string, rows []Row) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s-promos-%s-%s.csv", chain, storeID, time.Now().Format("2006-01-02"))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, rows); err != nil {
		return "", err
	}
	return path, nil
}

// Encode writes the header row and one CSV record per report row.
func Encode(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Description,
			row.ItemName,
			row.Price.String(),
			row.DiscountedPrice.String(),
			row.DiscountFraction.String(),
			row.ClubID.String(),
			row.MaxQty.String(),
			strconv.FormatBool(row.AllowMultipleDiscounts),
			strconv.FormatBool(row.Started),
			row.StartTime.Format(timestampLayout),
			row.EndTime.Format(timestampLayout),
			row.UpdateTime.Format(timestampLayout),
			row.Manufacturer,
			row.ItemCode,
			strconv.Itoa(row.RewardCode),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
