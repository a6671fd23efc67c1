package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(telegramTokenEnv, "")
	t.Setenv(telegramChatEnv, "")

	cfg := Load()

	if cfg.Logging.Level != "info" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	if cfg.Scheduler.Interval != 24*time.Hour {
		t.Errorf("interval = %s", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.Location().String() != "Asia/Jerusalem" {
		t.Errorf("timezone = %s", cfg.Scheduler.Location())
	}
	if len(cfg.Chains) != 4 {
		t.Fatalf("len(chains) = %d, want 4", len(cfg.Chains))
	}
	for _, chain := range cfg.Chains {
		if chain.Engine == "" {
			t.Errorf("chain %s has no engine", chain.Name)
		}
		if len(chain.PromotionIgnoreTerms) == 0 {
			t.Errorf("chain %s has no ignore terms", chain.Name)
		}
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
logging:
  level: debug
scheduler:
  interval: 6h
output:
  dir: /tmp/promos
chains:
  - name: shufersal
    engine: multipage
    portalUrl: https://prices.shufersal.co.il/
    storeIds: ["7", "245"]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(telegramTokenEnv, "")
	t.Setenv(telegramChatEnv, "")

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	if cfg.Scheduler.Interval != 6*time.Hour {
		t.Errorf("interval = %s", cfg.Scheduler.Interval)
	}
	if cfg.Output.Dir != "/tmp/promos" {
		t.Errorf("output dir = %q", cfg.Output.Dir)
	}
	if len(cfg.Chains) != 1 || len(cfg.Chains[0].StoreIDs) != 2 {
		t.Fatalf("chains = %+v", cfg.Chains)
	}
	// Unset timezone keeps the default.
	if cfg.Scheduler.Location().String() != "Asia/Jerusalem" {
		t.Errorf("timezone = %s", cfg.Scheduler.Location())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "postgres://scanner@localhost/promos?sslmode=disable")
	t.Setenv(telegramTokenEnv, "123:abc")
	t.Setenv(telegramChatEnv, "-100200300")

	cfg := Load()

	if cfg.Database.DSN != "postgres://scanner@localhost/promos?sslmode=disable" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Notifications.Telegram.BotToken != "123:abc" || cfg.Notifications.Telegram.ChatID != "-100200300" {
		t.Errorf("telegram = %+v", cfg.Notifications.Telegram)
	}
}

func TestChainLayoutFallbacks(t *testing.T) {
	t.Parallel()

	var chain ChainConfig
	if got := chain.DateHourLayout(); got != "2006-01-02 15:04" {
		t.Errorf("date-hour layout = %q", got)
	}
	if got := chain.UpdateDateLayout(); got != "2006-01-02 15:04" {
		t.Errorf("update layout = %q", got)
	}

	chain.DateHourFormat = "2006/01/02 15:04:05"
	if got := chain.UpdateDateLayout(); got != "2006/01/02 15:04:05" {
		t.Errorf("update layout should inherit date-hour layout, got %q", got)
	}
	chain.UpdateDateFormat = "2006-01-02"
	if got := chain.UpdateDateLayout(); got != "2006-01-02" {
		t.Errorf("update layout = %q", got)
	}
}

func TestChainSchema(t *testing.T) {
	t.Parallel()

	chain := ChainConfig{ItemTag: "Product", PromoTag: "Sale", PromoUpdateTag: "PriceUpdateDate"}
	schema := chain.Schema()
	if schema.ItemTag != "Product" || schema.PromoTag != "Sale" || schema.PromoUpdateTag != "PriceUpdateDate" {
		t.Fatalf("schema = %+v", schema)
	}
}
