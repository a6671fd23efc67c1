package ports

import (
	"context"
	"time"

	"PromoScanner/internal/config"
	"PromoScanner/internal/domain"
	"PromoScanner/internal/fetch"
	"PromoScanner/internal/report"
)

// FeedProvider downloads one published feed document for a chain store.
type FeedProvider interface {
	FetchFeed(ctx context.Context, chain config.ChainConfig, storeID string, category fetch.Category) ([]byte, error)
}

// PromotionRepository persists surfaced promotions for run-over-run
// deduplication and audit.
type PromotionRepository interface {
	AlreadySurfaced(ctx context.Context, chain string, ids []int64) (map[int64]bool, error)
	SaveSurfaced(ctx context.Context, promo domain.SurfacedPromotion) error
}

// ReportWriter emits the promotions table for one store scan and
// returns where it was written.
type ReportWriter interface {
	Write(chain, storeID string, rows []report.Row) (string, error)
}

// Notifier streams digests of newly surfaced promotions to Telegram or
// other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when scans execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
