package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PromoScanner/internal/domain"
)

func testPromotion(items ...*domain.Item) *domain.Promotion {
	half := decimal.RequireFromString("0.5")
	return &domain.Promotion{
		PromotionID: 42,
		Description: "1+1 מוצרי חלב",
		StartTime:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 2, 1, 23, 59, 0, 0, time.UTC),
		UpdateTime:  time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
		RewardType:  domain.RewardNthInstanceForFree,
		MinQty:      decimal.NewFromInt(2),
		PriceFn: func(item *domain.Item) decimal.Decimal {
			return item.Price.Mul(half)
		},
		Items: items,
	}
}

func TestRows(t *testing.T) {
	t.Parallel()

	itemA := domain.NewItem("חלב טרי", "תנובה", "100", decimal.NewFromInt(10), decimal.Zero)
	itemB := domain.NewItem("גבינה לבנה", "תנובה", "200", decimal.RequireFromString("0.8"), decimal.Zero)
	promo := testPromotion(itemA, itemB)
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

	rows := Rows([]*domain.Promotion{promo}, now)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want one per (promotion, item) pair", len(rows))
	}

	row := rows[0]
	if row.Description != promo.Description || row.ItemCode != "100" {
		t.Fatalf("row = %+v", row)
	}
	if !row.DiscountedPrice.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("discounted = %s, want 5", row.DiscountedPrice)
	}
	if want := decimal.RequireFromString("0.5"); !row.DiscountFraction.Equal(want) {
		t.Fatalf("fraction = %s, want %s", row.DiscountFraction, want)
	}
	if !row.Started {
		t.Fatal("promotion that began before now should be marked started")
	}
	if row.RewardCode != 7 {
		t.Fatalf("reward code = %d", row.RewardCode)
	}

	// Sub-unit prices divide by one so the fraction stays an absolute
	// amount rather than exploding.
	cheap := rows[1]
	if want := decimal.RequireFromString("0.4"); !cheap.DiscountFraction.Equal(want) {
		t.Fatalf("fraction for cheap item = %s, want %s", cheap.DiscountFraction, want)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	item := domain.NewItem("חלב טרי", "תנובה", "100", decimal.NewFromInt(10), decimal.Zero)
	promo := testPromotion(item)
	rows := Rows([]*domain.Promotion{promo}, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	if err := Encode(&buf, rows); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	parsed, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading encoded output: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("len(records) = %d, want header + 1 row", len(parsed))
	}
	if len(parsed[0]) != len(Headers) {
		t.Fatalf("header has %d columns, want %d", len(parsed[0]), len(Headers))
	}
	if parsed[0][0] != Headers[0] {
		t.Fatalf("first header = %q", parsed[0][0])
	}

	record := parsed[1]
	if len(record) != len(Headers) {
		t.Fatalf("row has %d columns, want %d", len(record), len(Headers))
	}
	if record[2] != "10" || record[3] != "5" {
		t.Fatalf("price columns = %q, %q", record[2], record[3])
	}
	if record[9] != "2026-01-01 00:00" {
		t.Fatalf("start column = %q", record[9])
	}
}

func TestCSVWriterWrite(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "reports")
	writer := NewCSVWriter(dir)

	item := domain.NewItem("חלב טרי", "תנובה", "100", decimal.NewFromInt(10), decimal.Zero)
	rows := Rows([]*domain.Promotion{testPromotion(item)}, time.Now())

	path, err := writer.Write("shufersal", "005", rows)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "shufersal-promos-005-") {
		t.Fatalf("unexpected file name: %s", path)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report written outside output dir: %s", path)
	}
}
