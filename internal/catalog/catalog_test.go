package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"PromoScanner/internal/feed"
)

func TestBuildLaterPassWins(t *testing.T) {
	t.Parallel()

	full := []feed.ItemRecord{
		{Code: "100", Name: "חלב 3%", Manufacturer: "תנובה", Price: "10.00", PriceByMeasure: "10.00"},
		{Code: "200", Name: "לחם אחיד", Price: "6.50"},
	}
	incremental := []feed.ItemRecord{
		{Code: "100", Name: "חלב 3%", Manufacturer: "תנובה", Price: "8.00", PriceByMeasure: "8.00"},
	}

	lookup, skipped := Build(full, incremental)
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(lookup) != 2 {
		t.Fatalf("len(lookup) = %d, want 2", len(lookup))
	}

	item := lookup.Get("100")
	if item == nil {
		t.Fatal("item 100 missing")
	}
	if want := decimal.NewFromInt(8); !item.Price.Equal(want) {
		t.Fatalf("price = %s, want %s (incremental pass should override)", item.Price, want)
	}
	if !lookup.Get("200").Price.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("price for 200 = %s", lookup.Get("200").Price)
	}
}

func TestBuildSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	records := []feed.ItemRecord{
		{Code: "", Name: "ללא ברקוד", Price: "5.00"},
		{Code: "300", Name: "", Price: "5.00"},
		{Code: "400", Name: "ללא מחיר", Price: ""},
		{Code: "500", Name: "מחיר פגום", Price: "abc"},
		{Code: "600", Name: "תקין", Price: "12.30", PriceByMeasure: "not-a-number"},
	}

	lookup, skipped := Build(records)
	if skipped != 4 {
		t.Fatalf("skipped = %d, want 4", skipped)
	}
	if len(lookup) != 1 {
		t.Fatalf("len(lookup) = %d, want 1", len(lookup))
	}

	item := lookup.Get("600")
	if item == nil {
		t.Fatal("valid record was dropped")
	}
	if !item.PriceByMeasure.IsZero() {
		t.Fatalf("bad per-measure price should decode to zero, got %s", item.PriceByMeasure)
	}
}

func TestGetUnknownCode(t *testing.T) {
	t.Parallel()

	lookup, _ := Build(nil)
	if lookup.Get("whatever") != nil {
		t.Fatal("unknown code should return nil")
	}
}
