package assemble

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"PromoScanner/internal/catalog"
	"PromoScanner/internal/config"
	"PromoScanner/internal/domain"
	"PromoScanner/internal/feed"
	"PromoScanner/internal/reward"
)

const (
	// discountCheckSampleSize caps how many items are priced when
	// verifying a promotion actually discounts something.
	discountCheckSampleSize = 50

	// maxPromotionItems guards against malformed "all products"
	// promotions flooding the output.
	maxPromotionItems = 1000
)

// Stats summarizes one assembly pass for diagnostics. Data-quality
// problems are counted here instead of being surfaced as errors.
type Stats struct {
	Records      int
	Malformed    int
	Invalid      int
	Duplicates   int
	DroppedCodes int
}

// Assembler reduces a raw promotion record stream to a deduplicated,
// ranked promotion list for one chain.
type Assembler struct {
	cfg    config.ChainConfig
	logger *slog.Logger
}

// New builds an assembler for one chain configuration.
func New(cfg config.ChainConfig, logger *slog.Logger) *Assembler {
	return &Assembler{cfg: cfg, logger: logger}
}

// Assemble scans records in feed order, merging adjacent records that
// share a promotion id, discarding invalid promotions, and applying each
// surviving promotion to its items. The feeds keep multi-item records
// for one promotion adjacent, so only the most recently built promotion
// is a merge candidate. The result is sorted most-recently-touched
// first. now anchors expiry checks.
func (a *Assembler) Assemble(records []feed.PromoRecord, items catalog.Lookup, now time.Time) ([]*domain.Promotion, Stats) {
	stats := Stats{Records: len(records)}

	var (
		out     []*domain.Promotion
		current *domain.Promotion
		seen    = map[int64]bool{}
	)

	for _, record := range records {
		id, err := strconv.ParseInt(strings.TrimSpace(record.PromotionID), 10, 64)
		if err != nil {
			stats.Malformed++
			a.debug("skipping promotion record without id", "error", err)
			continue
		}

		if current != nil && current.PromotionID == id {
			current.Items = append(current.Items, a.resolveItems(record.ItemCodes, items, &stats)...)
			continue
		}

		a.finalize(current, now, seen, &out, &stats)
		current = nil

		promo, err := a.newPromotion(record, id, items, &stats)
		if err != nil {
			stats.Malformed++
			a.debug("skipping malformed promotion record", "promotion_id", id, "error", err)
			continue
		}
		current = promo
	}

	a.finalize(current, now, seen, &out, &stats)
	sortPromotions(out)
	return out, stats
}

// newPromotion constructs a promotion from the first record bearing its id.
func (a *Assembler) newPromotion(record feed.PromoRecord, id int64, items catalog.Lookup, stats *Stats) (*domain.Promotion, error) {
	if record.Description == "" {
		return nil, fmt.Errorf("missing description")
	}

	layout := a.cfg.DateHourLayout()
	start, err := time.Parse(layout, record.StartDate+" "+record.StartHour)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	end, err := time.Parse(layout, record.EndDate+" "+record.EndHour)
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}
	update, err := time.Parse(a.cfg.UpdateDateLayout(), record.UpdateDate)
	if err != nil {
		return nil, fmt.Errorf("update time: %w", err)
	}

	rewardCode, err := strconv.Atoi(strings.TrimSpace(record.RewardType))
	if err != nil {
		return nil, fmt.Errorf("reward type: %w", err)
	}
	rewardType := domain.RewardTypeFromCode(rewardCode)

	discountedPrice := decimalOrZero(record.DiscountedPrice)
	discountRate := reward.DecodeDiscountRate(record.DiscountRate, reward.IsPercentage(rewardType, discountedPrice))
	minQty := decimalOrZero(record.MinQty)
	maxQty := decimalOrZero(record.MaxQty)

	priceFn := reward.Resolve(reward.Input{
		RewardType:      rewardType,
		Remark:          record.Remark,
		Description:     record.Description,
		MinQty:          minQty,
		DiscountRate:    discountRate,
		DiscountedPrice: discountedPrice,
	})

	clubCode, err := strconv.Atoi(strings.TrimSpace(record.ClubID))
	if err != nil {
		clubCode = 0
	}

	return &domain.Promotion{
		PromotionID:            id,
		Description:            record.Description,
		StartTime:              start,
		EndTime:                end,
		UpdateTime:             update,
		ClubID:                 domain.ClubIDFromCode(clubCode),
		RewardType:             rewardType,
		MinQty:                 minQty,
		MaxQty:                 maxQty,
		AllowMultipleDiscounts: intFlag(record.AllowMultipleDiscounts),
		PriceFn:                priceFn,
		Items:                  a.resolveItems(record.ItemCodes, items, stats),
	}, nil
}

// resolveItems maps item codes to catalog entries. Codes missing from
// the catalog are dropped; the chains routinely advertise items a store
// does not stock.
func (a *Assembler) resolveItems(codes []string, items catalog.Lookup, stats *Stats) []*domain.Item {
	resolved := make([]*domain.Item, 0, len(codes))
	for _, code := range codes {
		item := items.Get(code)
		if item == nil {
			stats.DroppedCodes++
			continue
		}
		resolved = append(resolved, item)
	}
	return resolved
}

// finalize validity-checks a pending promotion and, when it survives,
// applies it to its items and appends it to the output.
func (a *Assembler) finalize(promo *domain.Promotion, now time.Time, seen map[int64]bool, out *[]*domain.Promotion, stats *Stats) {
	if promo == nil {
		return
	}
	if seen[promo.PromotionID] {
		stats.Duplicates++
		a.debug("dropping duplicate promotion id", "promotion_id", promo.PromotionID)
		return
	}
	if !a.valid(promo, now) {
		stats.Invalid++
		return
	}

	seen[promo.PromotionID] = true
	for _, item := range promo.Items {
		item.Apply(promo.Description, promo.PriceFn(item))
	}
	*out = append(*out, promo)
}

// valid is the validity predicate for assembled promotions.
func (a *Assembler) valid(promo *domain.Promotion, now time.Time) bool {
	if promo.EndTime.Before(now) {
		return false
	}
	if len(promo.Items) == 0 || len(promo.Items) >= maxPromotionItems {
		return false
	}
	for _, term := range a.cfg.PromotionIgnoreTerms {
		if strings.Contains(promo.Description, term) {
			return false
		}
	}
	if a.cfg.ClubExemptFromDiscountCheck && promo.ClubID != domain.ClubRegular {
		return true
	}
	return a.discountsSomething(promo)
}

// discountsSomething samples the first items and checks that the pricing
// function moves at least one of them off its shelf price.
func (a *Assembler) discountsSomething(promo *domain.Promotion) bool {
	sample := promo.Items
	if len(sample) > discountCheckSampleSize {
		sample = sample[:discountCheckSampleSize]
	}
	for _, item := range sample {
		if !promo.PriceFn(item).Equal(item.Price) {
			return true
		}
	}
	return false
}

// sortPromotions orders promotions descending by the most recent of
// their update and start dates, then by start minus end time.
func sortPromotions(promos []*domain.Promotion) {
	sort.SliceStable(promos, func(i, j int) bool {
		di, dj := touchDate(promos[i]), touchDate(promos[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return promos[i].StartTime.Sub(promos[i].EndTime) > promos[j].StartTime.Sub(promos[j].EndTime)
	})
}

// touchDate is the later of the update and start times, truncated to a date.
func touchDate(promo *domain.Promotion) time.Time {
	t := promo.UpdateTime
	if promo.StartTime.After(t) {
		t = promo.StartTime
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func decimalOrZero(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return value
}

func intFlag(raw string) bool {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	return err == nil && value != 0
}

func (a *Assembler) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
