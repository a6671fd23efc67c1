package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"PromoScanner/internal/feed"
)

const (
	defaultTimezone  = "Asia/Jerusalem"
	configPathEnv    = "PROMO_SCANNER_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Output        OutputConfig       `yaml:"output"`
	Chains        []ChainConfig      `yaml:"chains"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when recurring scans should run.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send digests.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// OutputConfig describes where promotion reports are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ChainConfig describes a single supermarket chain. Chain differences
// are data: portal location, feed dialect tag names, date layouts, and
// validity tuning. The engine name selects one of the few genuinely
// distinct download protocols.
type ChainConfig struct {
	Name      string   `yaml:"name"`
	Engine    string   `yaml:"engine"`
	PortalURL string   `yaml:"portalUrl"`
	Username  string   `yaml:"username"`
	StoreIDs  []string `yaml:"storeIds"`

	// Go time layouts for the chain's promotion timestamps.
	DateHourFormat   string `yaml:"dateHourFormat"`
	UpdateDateFormat string `yaml:"updateDateFormat"`

	ItemTag        string `yaml:"itemTag"`
	PromoTag       string `yaml:"promoTag"`
	PromoUpdateTag string `yaml:"promoUpdateTag"`
	StoreTag       string `yaml:"storeTag"`

	// Promotions whose description contains any of these terms are
	// discarded.
	PromotionIgnoreTerms []string `yaml:"promotionIgnoreTerms"`

	// Some chains publish club-card promotions whose feed data cannot
	// demonstrate a discount; this flag exempts them from the
	// must-discount validity check.
	ClubExemptFromDiscountCheck bool `yaml:"clubExemptFromDiscountCheck"`

	Options map[string]string `yaml:"options"`
}

// Schema returns the chain's feed dialect tag names.
func (c ChainConfig) Schema() feed.Schema {
	return feed.Schema{
		ItemTag:        c.ItemTag,
		PromoTag:       c.PromoTag,
		PromoUpdateTag: c.PromoUpdateTag,
		StoreTag:       c.StoreTag,
	}
}

// DateHourLayout returns the configured promotion timestamp layout,
// falling back to the common publisher layout.
func (c ChainConfig) DateHourLayout() string {
	if c.DateHourFormat != "" {
		return c.DateHourFormat
	}
	return "2006-01-02 15:04"
}

// UpdateDateLayout returns the configured update timestamp layout,
// falling back to the promotion timestamp layout.
func (c ChainConfig) UpdateDateLayout() string {
	if c.UpdateDateFormat != "" {
		return c.UpdateDateFormat
	}
	return c.DateHourLayout()
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Chains) == 0 {
		cfg.Chains = defaultConfig().Chains
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.Interval != 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Output.Dir != "" {
		base.Output = override.Output
	}

	if len(override.Chains) > 0 {
		base.Chains = override.Chains
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour, Timezone: defaultTimezone, location: tz},
		Output:    OutputConfig{Dir: "results"},
		Chains: []ChainConfig{
			{
				Name:                 "shufersal",
				Engine:               "multipage",
				PortalURL:            "https://prices.shufersal.co.il/",
				StoreIDs:             []string{"245"},
				PromotionIgnoreTerms: []string{"קופון"},
			},
			{
				Name:                 "rami-levi",
				Engine:               "cerberus",
				PortalURL:            "https://url.publishedprices.co.il/",
				Username:             "RamiLevi",
				StoreIDs:             []string{"1"},
				PromotionIgnoreTerms: []string{"קופון"},
			},
			{
				Name:                 "king-store",
				Engine:               "listing",
				PortalURL:            "https://kingstore.binaprojects.com/",
				StoreIDs:             []string{"1"},
				DateHourFormat:       "2006-01-02 15:04:05",
				UpdateDateFormat:     "2006-01-02 15:04:05",
				PromotionIgnoreTerms: []string{"קופון"},
			},
			{
				Name:                        "victory",
				Engine:                      "cerberus",
				PortalURL:                   "https://url.publishedprices.co.il/",
				Username:                    "Victory",
				StoreIDs:                    []string{"089"},
				DateHourFormat:              "2006/01/02 15:04:05",
				UpdateDateFormat:            "2006/01/02 15:04:05",
				ItemTag:                     "Product",
				PromoTag:                    "Sale",
				PromoUpdateTag:              "PriceUpdateDate",
				ClubExemptFromDiscountCheck: true,
				PromotionIgnoreTerms:        []string{"קופון"},
			},
		},
	}
}
