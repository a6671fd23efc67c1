package feed

// ItemRecord is one raw product entry from a chain price feed. Fields
// keep the feed's text form; the catalog builder owns parsing and
// malformed-record accounting.
type ItemRecord struct {
	Code           string
	Name           string
	Manufacturer   string
	Price          string
	PriceByMeasure string
}

// PromoRecord is one raw promotion entry from a chain promotions feed.
// Multi-item promotions span several adjacent records sharing a
// PromotionID; the assembler merges them.
type PromoRecord struct {
	PromotionID            string
	Description            string
	StartDate              string
	StartHour              string
	EndDate                string
	EndHour                string
	UpdateDate             string
	RewardType             string
	DiscountRate           string
	DiscountedPrice        string
	MinQty                 string
	MaxQty                 string
	ClubID                 string
	AllowMultipleDiscounts string
	Remark                 string
	ItemCodes              []string
}

// StoreRecord is one branch entry from a chain stores feed.
type StoreRecord struct {
	ID      string
	Name    string
	City    string
	Address string
}
