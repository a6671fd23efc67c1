package report

import (
	"time"

	"github.com/shopspring/decimal"

	"PromoScanner/internal/domain"
)

// Headers are the published column titles of the promotions table.
var Headers = []string{
	"תיאור מבצע",
	"הפריט המשתתף במבצע",
	"מחיר לפני מבצע",
	"מחיר אחרי מבצע",
	"אחוז הנחה",
	"סוג מבצע",
	"כמות מקס",
	"כפל הנחות",
	"המבצע החל",
	"זמן תחילת מבצע",
	"זמן סיום מבצע",
	"זמן עדכון אחרון",
	"יצרן",
	"ברקוד פריט",
	"סוג מבצע לפי תקנות שקיפות מחירים",
}

// Row is one (promotion, item) pair of the promotions table.
type Row struct {
	Description            string
	ItemName               string
	Price                  decimal.Decimal
	DiscountedPrice        decimal.Decimal
	DiscountFraction       decimal.Decimal
	ClubID                 domain.ClubID
	MaxQty                 decimal.Decimal
	AllowMultipleDiscounts bool
	Started                bool
	StartTime              time.Time
	EndTime                time.Time
	UpdateTime             time.Time
	Manufacturer           string
	ItemCode               string
	RewardCode             int
}

var one = decimal.NewFromInt(1)

// Rows flattens an ordered promotion list into report rows, one per
// (promotion, item) pair, preserving promotion order. Pricing functions
// are pure, so re-invoking them per row is safe.
func Rows(promos []*domain.Promotion, now time.Time) []Row {
	var rows []Row
	for _, promo := range promos {
		for _, item := range promo.Items {
			rows = append(rows, rowFor(promo, item, now))
		}
	}
	return rows
}

func rowFor(promo *domain.Promotion, item *domain.Item, now time.Time) Row {
	discounted := promo.PriceFn(item)
	denominator := item.Price
	if denominator.LessThan(one) {
		denominator = one
	}

	return Row{
		Description:            promo.Description,
		ItemName:               item.Name,
		Price:                  item.Price,
		DiscountedPrice:        discounted,
		DiscountFraction:       item.Price.Sub(discounted).Div(denominator),
		ClubID:                 promo.ClubID,
		MaxQty:                 promo.MaxQty,
		AllowMultipleDiscounts: promo.AllowMultipleDiscounts,
		Started:                promo.Started(now),
		StartTime:              promo.StartTime,
		EndTime:                promo.EndTime,
		UpdateTime:             promo.UpdateTime,
		Manufacturer:           item.Manufacturer,
		ItemCode:               item.Code,
		RewardCode:             int(promo.RewardType),
	}
}
