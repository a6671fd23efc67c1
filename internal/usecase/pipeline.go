package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"PromoScanner/internal/assemble"
	"PromoScanner/internal/catalog"
	"PromoScanner/internal/config"
	"PromoScanner/internal/domain"
	"PromoScanner/internal/feed"
	"PromoScanner/internal/fetch"
	"PromoScanner/internal/ports"
	"PromoScanner/internal/report"
)

// maxDigestPromos caps how many newly surfaced promotions one digest
// message describes.
const maxDigestPromos = 15

// PipelineDeps wires all driven adapters into the scan pipeline.
type PipelineDeps struct {
	Provider   ports.FeedProvider
	Repository ports.PromotionRepository
	Reporter   ports.ReportWriter
	Notifier   ports.Notifier
	Chains     []config.ChainConfig
	// IncludeNonFull also ingests the incremental Price/Promo feeds,
	// which override the full snapshots.
	IncludeNonFull bool
	Logger         *slog.Logger
}

// Pipeline implements the feed-ingestion workflow: download feeds, build
// the item catalog, assemble promotions, emit the report, persist and
// announce what is new.
type Pipeline struct {
	provider       ports.FeedProvider
	repository     ports.PromotionRepository
	reporter       ports.ReportWriter
	notifier       ports.Notifier
	chains         []config.ChainConfig
	includeNonFull bool
	logger         *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		provider:       deps.Provider,
		repository:     deps.Repository,
		reporter:       deps.Reporter,
		notifier:       deps.Notifier,
		chains:         deps.Chains,
		includeNonFull: deps.IncludeNonFull,
		logger:         deps.Logger,
	}
}

// ProcessAll scans every configured chain and store once. A failing
// chain never blocks the remaining ones; all failures are joined into
// the returned error.
func (p *Pipeline) ProcessAll(ctx context.Context, now time.Time) error {
	if p.provider == nil {
		return nil
	}

	runID := uuid.NewString()
	p.info("scan started", "run_id", runID, "chains", len(p.chains))

	var errs []error
	for _, chain := range p.chains {
		for _, storeID := range chain.StoreIDs {
			if err := p.ProcessStore(ctx, runID, chain, storeID, now); err != nil {
				p.warn("store scan failed", "chain", chain.Name, "store", storeID, "error", err)
				errs = append(errs, fmt.Errorf("chain %s store %s: %w", chain.Name, storeID, err))
			}
		}
	}

	p.info("scan finished", "run_id", runID, "failures", len(errs))
	return errors.Join(errs...)
}

// ProcessStore ingests one store's feeds, writes its promotions report,
// and persists and announces promotions not seen on earlier runs.
func (p *Pipeline) ProcessStore(ctx context.Context, runID string, chain config.ChainConfig, storeID string, now time.Time) error {
	_, promos, stats, err := p.assembleStore(ctx, chain, storeID, now)
	if err != nil {
		return err
	}

	p.info("store assembled",
		"chain", chain.Name, "store", storeID,
		"promotions", len(promos),
		"records", stats.Records, "malformed", stats.Malformed,
		"invalid", stats.Invalid, "duplicates", stats.Duplicates)

	rows := report.Rows(promos, now)
	if p.reporter != nil {
		path, err := p.reporter.Write(chain.Name, storeID, rows)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		p.info("report written", "chain", chain.Name, "store", storeID, "rows", len(rows), "path", path)
	}

	fresh, err := p.freshPromotions(ctx, chain, promos)
	if err != nil {
		return err
	}

	if p.repository != nil {
		for _, promo := range fresh {
			err := p.repository.SaveSurfaced(ctx, domain.SurfacedPromotion{
				RunID:       runID,
				Chain:       chain.Name,
				StoreID:     storeID,
				PromotionID: promo.PromotionID,
				Description: promo.Description,
				StartTime:   promo.StartTime,
				EndTime:     promo.EndTime,
				UpdateTime:  promo.UpdateTime,
				ItemCount:   len(promo.Items),
			})
			if err != nil {
				return fmt.Errorf("persist promotion %d: %w", promo.PromotionID, err)
			}
		}
	}

	if p.notifier != nil && len(fresh) > 0 {
		digest := buildDigestMessage(chain.Name, storeID, fresh)
		if err := p.notifier.PublishDigest(ctx, digest); err != nil {
			return fmt.Errorf("publish digest: %w", err)
		}
	}

	return nil
}

// PricesWithPromos ingests one store and returns the catalog items whose
// final price was lowered by at least one promotion, best discounts
// first.
func (p *Pipeline) PricesWithPromos(ctx context.Context, chainName, storeID string, now time.Time) ([]*domain.Item, error) {
	chain, err := p.chain(chainName)
	if err != nil {
		return nil, err
	}

	lookup, _, _, err := p.assembleStore(ctx, chain, storeID, now)
	if err != nil {
		return nil, err
	}

	var discounted []*domain.Item
	for _, item := range lookup {
		if item.FinalPrice.LessThan(item.Price) {
			discounted = append(discounted, item)
		}
	}

	sort.Slice(discounted, func(i, j int) bool {
		fi := discounted[i].Price.Sub(discounted[i].FinalPrice).Div(discounted[i].Price)
		fj := discounted[j].Price.Sub(discounted[j].FinalPrice).Div(discounted[j].Price)
		if !fi.Equal(fj) {
			return fi.GreaterThan(fj)
		}
		return discounted[i].Code < discounted[j].Code
	})

	return discounted, nil
}

// SearchPromotions ingests one store and returns the assembled
// promotions whose description contains the fragment.
func (p *Pipeline) SearchPromotions(ctx context.Context, chainName, storeID, fragment string, now time.Time) ([]*domain.Promotion, error) {
	chain, err := p.chain(chainName)
	if err != nil {
		return nil, err
	}

	_, promos, _, err := p.assembleStore(ctx, chain, storeID, now)
	if err != nil {
		return nil, err
	}

	var matched []*domain.Promotion
	for _, promo := range promos {
		if strings.Contains(promo.Description, fragment) {
			matched = append(matched, promo)
		}
	}
	return matched, nil
}

// FindStores downloads the chain's stores feed and returns the branches
// in the given city.
func (p *Pipeline) FindStores(ctx context.Context, chainName, city string) ([]domain.Store, error) {
	chain, err := p.chain(chainName)
	if err != nil {
		return nil, err
	}

	payload, err := p.provider.FetchFeed(ctx, chain, "", fetch.Stores)
	if err != nil {
		return nil, fmt.Errorf("fetch stores feed: %w", err)
	}

	records, err := feed.ParseStores(bytes.NewReader(payload), chain.Schema())
	if err != nil {
		return nil, err
	}

	var stores []domain.Store
	for _, record := range records {
		if record.City == city || strings.Contains(record.Name, city) {
			stores = append(stores, domain.Store{
				ID:      record.ID,
				Name:    record.Name,
				City:    record.City,
				Address: record.Address,
			})
		}
	}
	return stores, nil
}

// assembleStore downloads and parses one store's feeds, builds the item
// catalog, and assembles its promotions.
func (p *Pipeline) assembleStore(ctx context.Context, chain config.ChainConfig, storeID string, now time.Time) (catalog.Lookup, []*domain.Promotion, assemble.Stats, error) {
	priceRecords, err := p.fetchItems(ctx, chain, storeID, fetch.PriceFull)
	if err != nil {
		return nil, nil, assemble.Stats{}, err
	}
	passes := [][]feed.ItemRecord{priceRecords}

	if p.includeNonFull {
		// The incremental feed is optional; most portals only publish
		// it after an intraday change.
		if incremental, err := p.fetchItems(ctx, chain, storeID, fetch.Price); err != nil {
			p.warn("incremental price feed unavailable", "chain", chain.Name, "store", storeID, "error", err)
		} else {
			passes = append(passes, incremental)
		}
	}

	lookup, skipped := catalog.Build(passes...)
	if skipped > 0 {
		p.warn("skipped malformed price records", "chain", chain.Name, "store", storeID, "count", skipped)
	}

	promoRecords, err := p.fetchPromos(ctx, chain, storeID, fetch.PromoFull)
	if err != nil {
		return nil, nil, assemble.Stats{}, err
	}
	if p.includeNonFull {
		if incremental, err := p.fetchPromos(ctx, chain, storeID, fetch.Promo); err != nil {
			p.warn("incremental promo feed unavailable", "chain", chain.Name, "store", storeID, "error", err)
		} else {
			promoRecords = append(promoRecords, incremental...)
		}
	}

	assembler := assemble.New(chain, p.componentLogger("assembler"))
	promos, stats := assembler.Assemble(promoRecords, lookup, now)
	return lookup, promos, stats, nil
}

func (p *Pipeline) fetchItems(ctx context.Context, chain config.ChainConfig, storeID string, category fetch.Category) ([]feed.ItemRecord, error) {
	payload, err := p.provider.FetchFeed(ctx, chain, storeID, category)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", category, err)
	}
	return feed.ParseItems(bytes.NewReader(payload), chain.Schema())
}

func (p *Pipeline) fetchPromos(ctx context.Context, chain config.ChainConfig, storeID string, category fetch.Category) ([]feed.PromoRecord, error) {
	payload, err := p.provider.FetchFeed(ctx, chain, storeID, category)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", category, err)
	}
	return feed.ParsePromos(bytes.NewReader(payload), chain.Schema())
}

// freshPromotions filters out promotions already surfaced on an earlier
// run. Without a repository every promotion counts as fresh.
func (p *Pipeline) freshPromotions(ctx context.Context, chain config.ChainConfig, promos []*domain.Promotion) ([]*domain.Promotion, error) {
	if p.repository == nil || len(promos) == 0 {
		return promos, nil
	}

	ids := make([]int64, len(promos))
	for i, promo := range promos {
		ids[i] = promo.PromotionID
	}

	seen, err := p.repository.AlreadySurfaced(ctx, chain.Name, ids)
	if err != nil {
		return nil, fmt.Errorf("load surfaced: %w", err)
	}

	var fresh []*domain.Promotion
	for _, promo := range promos {
		if !seen[promo.PromotionID] {
			fresh = append(fresh, promo)
		}
	}
	return fresh, nil
}

func (p *Pipeline) chain(name string) (config.ChainConfig, error) {
	for _, chain := range p.chains {
		if chain.Name == name {
			return chain, nil
		}
	}
	return config.ChainConfig{}, fmt.Errorf("chain %s is not configured", name)
}

func buildDigestMessage(chain, storeID string, promos []*domain.Promotion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s store %s: %d new promotions\n\n", chain, storeID, len(promos))

	shown := promos
	if len(shown) > maxDigestPromos {
		shown = shown[:maxDigestPromos]
	}
	for _, promo := range shown {
		fmt.Fprintf(&b, "- %s\n%s – %s\nItems: %d\n\n",
			promo.Description,
			promo.StartTime.Format("2006-01-02"),
			promo.EndTime.Format("2006-01-02"),
			len(promo.Items))
	}
	if rest := len(promos) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "...and %d more\n", rest)
	}

	return b.String()
}

func (p *Pipeline) componentLogger(name string) *slog.Logger {
	if p.logger == nil {
		return nil
	}
	return p.logger.With("component", name)
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
