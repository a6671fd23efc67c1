package reward

import (
	"strings"

	"github.com/shopspring/decimal"

	"PromoScanner/internal/domain"
)

// IsPercentage reports whether a promotion's raw discount rate encodes a
// percentage. Percentage rewards always do; for other reward types the
// feeds publish a percentage whenever no discounted price is given.
func IsPercentage(rewardType domain.RewardType, discountedPrice decimal.Decimal) bool {
	return rewardType == domain.RewardDiscountInPercentage || discountedPrice.IsZero()
}

// DecodeDiscountRate turns a raw DiscountRate field into a usable value.
// Percentage values carry an implicit decimal point whose position is the
// character count of the raw field, so "20" is 0.20 and "2000" is 0.2000.
// The published feeds rely on this width-based convention; it is kept
// verbatim, including its behavior on unusual widths. Non-percentage
// values are literal currency amounts. Unparseable or zero input decodes
// to zero, which downstream treats as "absent".
func DecodeDiscountRate(raw string, percentage bool) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsZero() {
		return decimal.Zero
	}
	if percentage {
		return value.Shift(int32(-len(raw)))
	}
	return value
}
