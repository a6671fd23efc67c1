package domain

import "time"

// SurfacedPromotion is the snapshot persisted for every promotion that
// reached a report, used to tell new promotions from repeats on later
// runs.
type SurfacedPromotion struct {
	RunID       string
	Chain       string
	StoreID     string
	PromotionID int64
	Description string
	StartTime   time.Time
	EndTime     time.Time
	UpdateTime  time.Time
	ItemCount   int
}
