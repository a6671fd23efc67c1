package catalog

import (
	"github.com/shopspring/decimal"

	"PromoScanner/internal/domain"
	"PromoScanner/internal/feed"
)

// Lookup maps an item code to its catalog entry for one feed generation.
// A Lookup is rebuilt from scratch on every ingestion cycle and must not
// be shared across concurrent ingestions: the assembler mutates the
// items in place.
type Lookup map[string]*domain.Item

// Get returns the item for a code, or nil when the code is unknown.
func (l Lookup) Get(code string) *domain.Item {
	return l[code]
}

// Build creates a code-keyed item lookup from one or more ordered feed
// passes, conventionally a full snapshot followed by an optional
// incremental one. When a code appears in several passes the later pass
// wins. Records missing a code, name, or parseable price are skipped;
// the count of skipped records is returned alongside the lookup.
func Build(passes ...[]feed.ItemRecord) (Lookup, int) {
	lookup := make(Lookup)
	skipped := 0

	for _, pass := range passes {
		for _, record := range pass {
			item, ok := itemFromRecord(record)
			if !ok {
				skipped++
				continue
			}
			lookup[item.Code] = item
		}
	}

	return lookup, skipped
}

func itemFromRecord(record feed.ItemRecord) (*domain.Item, bool) {
	if record.Code == "" || record.Name == "" || record.Price == "" {
		return nil, false
	}
	price, err := decimal.NewFromString(record.Price)
	if err != nil {
		return nil, false
	}
	// The per-measure price is informational; a bad value does not
	// disqualify the record.
	priceByMeasure, err := decimal.NewFromString(record.PriceByMeasure)
	if err != nil {
		priceByMeasure = decimal.Zero
	}
	return domain.NewItem(record.Name, record.Manufacturer, record.Code, price, priceByMeasure), true
}
