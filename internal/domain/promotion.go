package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardType is the integer code from the promotion feed schema
// identifying the discount mechanism.
type RewardType int

const (
	RewardNoPromotion             RewardType = 0
	RewardDiscountInAmount        RewardType = 1
	RewardDiscountInPercentage    RewardType = 2
	RewardDiscountByThreshold     RewardType = 3
	RewardDiscountIfBuyingOthers  RewardType = 6
	RewardNthInstanceForFree      RewardType = 7
	RewardSecondSameDiscount      RewardType = 8
	RewardSecondDifferentDiscount RewardType = 9
	RewardMultipleInstances       RewardType = 10
	RewardOther                   RewardType = 11
)

// RewardTypeFromCode maps a raw feed code to a RewardType. Codes that are
// not part of the published schema map to RewardOther rather than failing.
func RewardTypeFromCode(code int) RewardType {
	switch RewardType(code) {
	case RewardNoPromotion, RewardDiscountInAmount, RewardDiscountInPercentage,
		RewardDiscountByThreshold, RewardDiscountIfBuyingOthers,
		RewardNthInstanceForFree, RewardSecondSameDiscount,
		RewardSecondDifferentDiscount, RewardMultipleInstances:
		return RewardType(code)
	}
	return RewardOther
}

// ClubID is the membership tier required to receive a promotion.
type ClubID int

const (
	ClubRegular    ClubID = 0
	ClubLoyalty    ClubID = 1
	ClubCreditCard ClubID = 2
	ClubOther      ClubID = 3
)

// ClubIDFromCode maps a raw feed code to a ClubID, defaulting to ClubOther.
func ClubIDFromCode(code int) ClubID {
	switch ClubID(code) {
	case ClubRegular, ClubLoyalty, ClubCreditCard:
		return ClubID(code)
	}
	return ClubOther
}

func (c ClubID) String() string {
	switch c {
	case ClubRegular:
		return "REGULAR"
	case ClubLoyalty:
		return "CLUB"
	case ClubCreditCard:
		return "CREDIT_CARD"
	default:
		return "OTHER"
	}
}

// PriceFn computes the after-discount price of an item under one
// promotion. Implementations are pure: calling a PriceFn never mutates
// the item, so callers may invoke it repeatedly.
type PriceFn func(*Item) decimal.Decimal

// Promotion is one assembled promotion with its participating items.
// Items may repeat when a product is offered multiple times within the
// same promotion id; callers must not assume uniqueness.
type Promotion struct {
	PromotionID            int64
	Description            string
	StartTime              time.Time
	EndTime                time.Time
	UpdateTime             time.Time
	ClubID                 ClubID
	RewardType             RewardType
	MinQty                 decimal.Decimal
	MaxQty                 decimal.Decimal
	AllowMultipleDiscounts bool
	PriceFn                PriceFn
	Items                  []*Item
}

// Started reports whether the promotion is already running at the given time.
func (p *Promotion) Started(now time.Time) bool {
	return !p.StartTime.After(now)
}
