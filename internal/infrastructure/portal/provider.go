package portal

import (
	"context"
	"fmt"
	"log/slog"

	"PromoScanner/internal/config"
	"PromoScanner/internal/fetch"
	"PromoScanner/internal/ports"
)

// Provider implements FeedProvider via registered download engines.
type Provider struct {
	registry *fetch.Registry
	logger   *slog.Logger
}

var _ ports.FeedProvider = (*Provider)(nil)

// NewProvider wires the engine registry.
func NewProvider(registry *fetch.Registry, logger *slog.Logger) *Provider {
	return &Provider{registry: registry, logger: logger}
}

// FetchFeed resolves the chain's engine and downloads the requested feed.
func (p *Provider) FetchFeed(ctx context.Context, chain config.ChainConfig, storeID string, category fetch.Category) ([]byte, error) {
	if p.registry == nil {
		return nil, fmt.Errorf("fetch registry is not configured")
	}

	engine, err := p.registry.Resolve(chain.Engine)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", chain.Name, err)
	}

	p.debug("fetch feed", "chain", chain.Name, "store", storeID, "category", category, "engine", engine.Name())

	payload, err := engine.Fetch(ctx, fetch.Request{Chain: chain, StoreID: storeID, Category: category})
	if err != nil {
		return nil, err
	}

	p.debug("feed downloaded", "chain", chain.Name, "category", category, "bytes", len(payload))
	return payload, nil
}

func (p *Provider) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
