package reward

import (
	"strings"

	"github.com/shopspring/decimal"

	"PromoScanner/internal/domain"
)

// Invalid is the sentinel price returned when a promotion cannot be
// priced from the data it carries.
var Invalid = decimal.NewFromInt(-1)

// Marker phrases published verbatim inside the chains' promotion feeds.
const (
	// perMeasureRemark flags that the discounted price is the final
	// per-kilogram price rather than an amount to subtract.
	perMeasureRemark = `מחיר המבצע הינו המחיר לק"ג`
	// secondUnitMarker flags a "second unit at..." framing.
	secondUnitMarker = "השני ב"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// Input carries the promotion fields the resolver dispatches on.
// Zero-valued DiscountRate and DiscountedPrice mean the feed did not
// publish the field; the chains emit empty or literal-zero tags for both.
type Input struct {
	RewardType      domain.RewardType
	Remark          string
	Description     string
	MinQty          decimal.Decimal
	DiscountRate    decimal.Decimal
	DiscountedPrice decimal.Decimal
}

// Resolve maps a promotion's reward type and auxiliary fields to the
// pricing function for one participating item. It never fails: data that
// cannot be priced resolves to a function returning Invalid, and
// unrecognized reward codes resolve to the item's own price.
func Resolve(in Input) domain.PriceFn {
	switch in.RewardType {
	case domain.RewardNoPromotion:
		return identity

	case domain.RewardDiscountInPercentage:
		if in.DiscountRate.IsZero() {
			return invalid
		}
		rate := in.DiscountRate
		if strings.Contains(in.Description, secondUnitMarker) {
			rate = rate.Div(two)
		}
		factor := one.Sub(rate)
		return func(item *domain.Item) decimal.Decimal {
			return item.Price.Mul(factor)
		}

	case domain.RewardDiscountByThreshold:
		if in.DiscountRate.IsZero() {
			return invalid
		}
		rate := in.DiscountRate
		return func(item *domain.Item) decimal.Decimal {
			return item.Price.Sub(rate)
		}

	case domain.RewardDiscountIfBuyingOthers:
		// The bundled item's own price is unaffected.
		return identity

	case domain.RewardNthInstanceForFree:
		if in.MinQty.IsZero() {
			return invalid
		}
		factor := one.Sub(one.Div(in.MinQty))
		return func(item *domain.Item) decimal.Decimal {
			return item.Price.Mul(factor)
		}

	case domain.RewardSecondSameDiscount:
		if strings.Contains(in.Description, secondUnitMarker) {
			if in.DiscountedPrice.IsZero() {
				return invalid
			}
			price := in.DiscountedPrice
			return func(item *domain.Item) decimal.Decimal {
				return item.Price.Add(price).Div(two)
			}
		}
		return bundlePrice(in.DiscountedPrice, in.MinQty)

	case domain.RewardSecondDifferentDiscount:
		if in.MinQty.IsZero() {
			return invalid
		}
		if in.DiscountedPrice.IsZero() {
			if in.DiscountRate.IsZero() {
				return invalid
			}
			factor := one.Sub(in.DiscountRate.Div(in.MinQty))
			return func(item *domain.Item) decimal.Decimal {
				return item.Price.Mul(factor)
			}
		}
		minQty, price := in.MinQty, in.DiscountedPrice
		return func(item *domain.Item) decimal.Decimal {
			return item.Price.Mul(minQty.Sub(one)).Add(price).Div(minQty)
		}

	case domain.RewardMultipleInstances:
		return bundlePrice(in.DiscountedPrice, in.MinQty)

	case domain.RewardDiscountInAmount:
		if strings.Contains(in.Remark, perMeasureRemark) && !in.DiscountedPrice.IsZero() {
			price := in.DiscountedPrice
			return func(*domain.Item) decimal.Decimal { return price }
		}
		return bundlePrice(in.DiscountedPrice, in.MinQty)
	}

	return identity
}

// bundlePrice prices "min_qty units for discounted_price" promotions.
func bundlePrice(discounted, minQty decimal.Decimal) domain.PriceFn {
	if discounted.IsZero() || minQty.IsZero() {
		return invalid
	}
	unit := discounted.Div(minQty)
	return func(*domain.Item) decimal.Decimal { return unit }
}

func identity(item *domain.Item) decimal.Decimal {
	return item.Price
}

func invalid(*domain.Item) decimal.Decimal {
	return Invalid
}
