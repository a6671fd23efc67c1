package domain

import "github.com/shopspring/decimal"

// Item is a core entity describing one product from a chain price feed.
type Item struct {
	Name           string
	Manufacturer   string
	Code           string
	Price          decimal.Decimal
	PriceByMeasure decimal.Decimal

	// FinalPrice starts at Price and only ever decreases as valid
	// promotions touching this item are applied in feed order.
	FinalPrice        decimal.Decimal
	AppliedPromotions []AppliedPromotion
}

// AppliedPromotion records one promotion that lowered an item's price.
type AppliedPromotion struct {
	Description     string
	DiscountedPrice decimal.Decimal
}

// NewItem builds an Item with FinalPrice initialized to the shelf price.
func NewItem(name, manufacturer, code string, price, priceByMeasure decimal.Decimal) *Item {
	return &Item{
		Name:           name,
		Manufacturer:   manufacturer,
		Code:           code,
		Price:          price,
		PriceByMeasure: priceByMeasure,
		FinalPrice:     price,
	}
}

// Apply lowers the item's final price if the discounted price beats it.
// Non-positive prices are rejected; they mark promotions that could not
// be priced.
func (i *Item) Apply(description string, discounted decimal.Decimal) {
	if discounted.Sign() <= 0 {
		return
	}
	if discounted.LessThan(i.Price) {
		i.AppliedPromotions = append(i.AppliedPromotions, AppliedPromotion{
			Description:     description,
			DiscountedPrice: discounted,
		})
	}
	if discounted.LessThan(i.FinalPrice) {
		i.FinalPrice = discounted
	}
}
