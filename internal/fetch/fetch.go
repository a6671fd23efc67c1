package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"PromoScanner/internal/config"
)

// Category identifies one published feed document kind. The regulator's
// transparency format names files by these tokens.
type Category string

const (
	Price     Category = "Price"
	PriceFull Category = "PriceFull"
	Promo     Category = "Promo"
	PromoFull Category = "PromoFull"
	Stores    Category = "StoresFull"
)

// Full reports whether this category is a full snapshot rather than an
// incremental delta.
func (c Category) Full() bool {
	return c == PriceFull || c == PromoFull || c == Stores
}

// Request carries all parameters required to download one feed document.
type Request struct {
	Chain    config.ChainConfig
	StoreID  string
	Category Category
}

// Engine is a single download-protocol implementation (session-login
// portals, directory-listing portals, multi-page catalogs).
type Engine interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Registry keeps a mapping from engine names to their implementations.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: map[string]Engine{}}
}

// Register adds or replaces an engine implementation.
func (r *Registry) Register(engine Engine) {
	if r.engines == nil {
		r.engines = map[string]Engine{}
	}
	r.engines[engine.Name()] = engine
}

// Resolve returns an engine by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Engine, error) {
	if engine, ok := r.engines[name]; ok {
		return engine, nil
	}
	return nil, fmt.Errorf("fetch engine %s is not registered", name)
}

var fullExpr = regexp.MustCompile(`(?i)full`)

// MatchesFile reports whether a published file name carries the
// requested category for the requested store. Portal listings name files
// like PromoFull7290..-245-202009010200.gz; store ids are zero-padded to
// three digits.
func MatchesFile(name string, storeID string, category Category) bool {
	if !strings.Contains(name, string(category)) {
		return false
	}
	// Incremental categories share their token with the full variant;
	// reject the full files when a delta was requested.
	if !category.Full() && fullExpr.MatchString(name) {
		return false
	}
	if category == Stores {
		return true
	}
	return strings.Contains(name, "-"+padStoreID(storeID)+"-20")
}

func padStoreID(storeID string) string {
	if n, err := strconv.Atoi(storeID); err == nil {
		return fmt.Sprintf("%03d", n)
	}
	return storeID
}
