package assemble

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PromoScanner/internal/catalog"
	"PromoScanner/internal/config"
	"PromoScanner/internal/feed"
)

var testNow = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

func record(id string, mods ...func(*feed.PromoRecord)) feed.PromoRecord {
	r := feed.PromoRecord{
		PromotionID: id,
		Description: "1+1 מוצרי חלב",
		StartDate:   "2026-01-01",
		StartHour:   "00:00",
		EndDate:     "2026-02-01",
		EndHour:     "23:59",
		UpdateDate:  "2026-01-15 08:00",
		RewardType:  "7",
		MinQty:      "2",
		ClubID:      "0",
		ItemCodes:   []string{"A"},
	}
	for _, mod := range mods {
		mod(&r)
	}
	return r
}

func testCatalog(t *testing.T, codes ...string) catalog.Lookup {
	t.Helper()
	records := make([]feed.ItemRecord, 0, len(codes))
	for _, code := range codes {
		records = append(records, feed.ItemRecord{Code: code, Name: "פריט " + code, Price: "100.00"})
	}
	lookup, skipped := catalog.Build(records)
	if skipped != 0 {
		t.Fatalf("catalog skipped %d records", skipped)
	}
	return lookup
}

func newTestAssembler(cfg config.ChainConfig) *Assembler {
	return New(cfg, nil)
}

func TestAssembleAppliesPromotionToItems(t *testing.T) {
	t.Parallel()

	items := testCatalog(t, "A")
	promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(
		[]feed.PromoRecord{record("1")}, items, testNow)

	if stats.Invalid != 0 || stats.Malformed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(promos) != 1 {
		t.Fatalf("len(promos) = %d, want 1", len(promos))
	}

	promo := promos[0]
	if promo.PromotionID != 1 {
		t.Fatalf("id = %d", promo.PromotionID)
	}

	item := items.Get("A")
	fifty := decimal.NewFromInt(50)
	if got := promo.PriceFn(item); !got.Equal(fifty) {
		t.Fatalf("discounted price = %s, want %s", got, fifty)
	}
	if !item.FinalPrice.Equal(fifty) {
		t.Fatalf("final price = %s, want %s", item.FinalPrice, fifty)
	}
	if len(item.AppliedPromotions) != 1 || item.AppliedPromotions[0].Description != promo.Description {
		t.Fatalf("applied promotions = %+v", item.AppliedPromotions)
	}
}

func TestAssembleMergesAdjacentRecords(t *testing.T) {
	t.Parallel()

	items := testCatalog(t, "A", "B", "C")
	records := []feed.PromoRecord{
		record("1"),
		// Continuation rows carry only the id and more item codes.
		{PromotionID: "1", ItemCodes: []string{"B", "C"}},
	}

	promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
	if len(promos) != 1 {
		t.Fatalf("len(promos) = %d, want 1", len(promos))
	}
	if got := len(promos[0].Items); got != 3 {
		t.Fatalf("merged item count = %d, want 3", got)
	}
	if stats.Malformed != 0 {
		t.Fatalf("continuation row counted as malformed: %+v", stats)
	}
}

func TestAssembleCountsMalformedRecords(t *testing.T) {
	t.Parallel()

	items := testCatalog(t, "A")
	records := []feed.PromoRecord{
		record("not-a-number"),
		record("2", func(r *feed.PromoRecord) { r.Description = "" }),
		record("3", func(r *feed.PromoRecord) { r.EndDate = "01/02/2026" }),
		record("4", func(r *feed.PromoRecord) { r.RewardType = "" }),
	}

	promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
	if len(promos) != 0 {
		t.Fatalf("len(promos) = %d, want 0", len(promos))
	}
	if stats.Malformed != 4 {
		t.Fatalf("malformed = %d, want 4", stats.Malformed)
	}
}

func TestAssembleValidity(t *testing.T) {
	t.Parallel()

	t.Run("expired promotion dropped", func(t *testing.T) {
		t.Parallel()
		items := testCatalog(t, "A")
		records := []feed.PromoRecord{record("1", func(r *feed.PromoRecord) {
			r.EndDate, r.EndHour = "2026-01-10", "00:00"
		})}
		promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
		if len(promos) != 0 || stats.Invalid != 1 {
			t.Fatalf("promos = %d, stats = %+v", len(promos), stats)
		}
	})

	t.Run("promotion ending exactly now retained", func(t *testing.T) {
		t.Parallel()
		items := testCatalog(t, "A")
		records := []feed.PromoRecord{record("1", func(r *feed.PromoRecord) {
			r.EndDate, r.EndHour = "2026-01-20", "12:00"
		})}
		promos, _ := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
		if len(promos) != 1 {
			t.Fatalf("len(promos) = %d, want 1", len(promos))
		}
	})

	t.Run("ignore term drops promotion", func(t *testing.T) {
		t.Parallel()
		items := testCatalog(t, "A")
		cfg := config.ChainConfig{PromotionIgnoreTerms: []string{"קופון"}}
		records := []feed.PromoRecord{record("1", func(r *feed.PromoRecord) {
			r.Description = "קופון הנחה באתר"
		})}
		promos, stats := newTestAssembler(cfg).Assemble(records, items, testNow)
		if len(promos) != 0 || stats.Invalid != 1 {
			t.Fatalf("promos = %d, stats = %+v", len(promos), stats)
		}
	})

	t.Run("promotion without catalog items dropped", func(t *testing.T) {
		t.Parallel()
		items := testCatalog(t, "A")
		records := []feed.PromoRecord{record("1", func(r *feed.PromoRecord) {
			r.ItemCodes = []string{"unknown-1", "unknown-2"}
		})}
		promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
		if len(promos) != 0 || stats.Invalid != 1 || stats.DroppedCodes != 2 {
			t.Fatalf("promos = %d, stats = %+v", len(promos), stats)
		}
	})

	t.Run("oversized promotion dropped", func(t *testing.T) {
		t.Parallel()
		codes := make([]string, maxPromotionItems)
		for i := range codes {
			codes[i] = strconv.Itoa(i)
		}
		items := testCatalog(t, codes...)
		records := []feed.PromoRecord{record("1", func(r *feed.PromoRecord) {
			r.ItemCodes = codes
		})}
		promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
		if len(promos) != 0 || stats.Invalid != 1 {
			t.Fatalf("promos = %d, stats = %+v", len(promos), stats)
		}
	})

	t.Run("non-discounting promotion dropped", func(t *testing.T) {
		t.Parallel()
		items := testCatalog(t, "A")
		records := []feed.PromoRecord{record("1", func(r *feed.PromoRecord) {
			r.RewardType = "0"
		})}
		promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
		if len(promos) != 0 || stats.Invalid != 1 {
			t.Fatalf("promos = %d, stats = %+v", len(promos), stats)
		}
	})

	t.Run("club promotion exempt from discount check", func(t *testing.T) {
		t.Parallel()
		items := testCatalog(t, "A")
		cfg := config.ChainConfig{ClubExemptFromDiscountCheck: true}
		records := []feed.PromoRecord{record("1", func(r *feed.PromoRecord) {
			r.RewardType = "0"
			r.ClubID = "1"
		})}
		promos, _ := newTestAssembler(cfg).Assemble(records, items, testNow)
		if len(promos) != 1 {
			t.Fatalf("len(promos) = %d, want 1", len(promos))
		}
	})
}

func TestAssembleDropsNonAdjacentDuplicates(t *testing.T) {
	t.Parallel()

	items := testCatalog(t, "A", "B")
	records := []feed.PromoRecord{
		record("1"),
		record("2", func(r *feed.PromoRecord) { r.ItemCodes = []string{"B"} }),
		record("1"),
	}

	promos, stats := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
	if len(promos) != 2 {
		t.Fatalf("len(promos) = %d, want 2", len(promos))
	}
	if stats.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", stats.Duplicates)
	}
}

func TestAssembleSortsMostRecentlyTouchedFirst(t *testing.T) {
	t.Parallel()

	items := testCatalog(t, "A", "B", "C")
	records := []feed.PromoRecord{
		record("1", func(r *feed.PromoRecord) {
			r.UpdateDate = "2026-01-10 08:00"
			r.ItemCodes = []string{"A"}
		}),
		record("2", func(r *feed.PromoRecord) {
			r.UpdateDate = "2026-01-18 08:00"
			r.ItemCodes = []string{"B"}
		}),
		// Same touch date as promotion 2 but a shorter run, so it ranks
		// ahead on the duration tiebreak.
		record("3", func(r *feed.PromoRecord) {
			r.UpdateDate = "2026-01-18 15:00"
			r.StartDate = "2026-01-05"
			r.ItemCodes = []string{"C"}
		}),
	}

	promos, _ := newTestAssembler(config.ChainConfig{}).Assemble(records, items, testNow)
	if len(promos) != 3 {
		t.Fatalf("len(promos) = %d, want 3", len(promos))
	}

	got := []int64{promos[0].PromotionID, promos[1].PromotionID, promos[2].PromotionID}
	want := []int64{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
