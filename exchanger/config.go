package exchanger

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/exchanger/core/config"
	coredatabase "github.com/m3rciful/exchanger/core/database"
)

// ExchangeConfig holds settings specific to the exchange bot.
type ExchangeConfig struct {
	// AdminIDs are the users allowed into the admin panel. They also bypass
	// the status/ban/subscription/banner gates.
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"EXCHANGE_ADMIN_IDS"`
	// RequestRecipients receive new exchange requests. Empty means AdminIDs.
	RequestRecipients []int64 `yaml:"request_recipients" envconfig:"EXCHANGE_REQUEST_RECIPIENTS"`
	SupportURL        string  `yaml:"support_url" envconfig:"EXCHANGE_SUPPORT_URL"`
	FAQText           string  `yaml:"faq_text"`
	// SeedDefaults populates default currencies and payment methods on startup.
	SeedDefaults bool `yaml:"seed_defaults" envconfig:"EXCHANGE_SEED_DEFAULTS"`
}

// Config aggregates core, database, and exchange-specific configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Exchange ExchangeConfig      `yaml:"exchange"`
}

// LoadConfig reads the YAML file, applies environment overrides, and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	if cfg.Core.Telegram.AdminID != 0 {
		cfg.Exchange.AdminIDs = appendUnique(cfg.Exchange.AdminIDs, cfg.Core.Telegram.AdminID)
	}
	if len(cfg.Exchange.AdminIDs) == 0 {
		return fmt.Errorf("exchange.admin_ids is required")
	}
	if len(cfg.Exchange.RequestRecipients) == 0 {
		cfg.Exchange.RequestRecipients = append([]int64(nil), cfg.Exchange.AdminIDs...)
	}
	if strings.TrimSpace(cfg.Database.Host) == "" {
		return fmt.Errorf("database.host is required")
	}
	if strings.TrimSpace(cfg.Database.Name) == "" {
		return fmt.Errorf("database.name is required")
	}
	return nil
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// IsAdmin reports whether the user id belongs to the admin set.
func (c *Config) IsAdmin(userID int64) bool {
	if c == nil {
		return false
	}
	for _, id := range c.Exchange.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
