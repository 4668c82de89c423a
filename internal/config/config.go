package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/picklevibe/bookings-crawler/internal/domain"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort        string `mapstructure:"SERVER_PORT"`
	RemoteEndpoint    string `mapstructure:"REMOTE_ENDPOINT"`
	ScheduleTime      string `mapstructure:"SCHEDULE_TIME"`
	ScheduleTimezone  string `mapstructure:"SCHEDULE_TIMEZONE"`
	DataFile          string `mapstructure:"DATA_FILE"`
	OrganizationsFile string `mapstructure:"ORGANIZATIONS_FILE"`

	LoginURL      string `mapstructure:"LOGIN_URL"`
	LoginEmail    string `mapstructure:"LOGIN_EMAIL"`
	LoginPassword string `mapstructure:"LOGIN_PASSWORD"`
	Headless      bool   `mapstructure:"HEADLESS"`

	RunTimeoutMinutes       int `mapstructure:"RUN_TIMEOUT_MINUTES"`
	SettleSeconds           int `mapstructure:"SETTLE_SECONDS"`
	StabilizeTimeoutSeconds int `mapstructure:"STABILIZE_TIMEOUT_SECONDS"`
	MaxPages                int `mapstructure:"MAX_PAGES"`
	RemoteTimeoutSeconds    int `mapstructure:"REMOTE_TIMEOUT_SECONDS"`

	PostgresURL     string `mapstructure:"POSTGRES_URL"`
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	CacheTTLMinutes int    `mapstructure:"CACHE_TTL_MINUTES"`
}

// Load reads configuration from a .env file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REMOTE_ENDPOINT", "")
	viper.SetDefault("SCHEDULE_TIME", "23:50")
	viper.SetDefault("SCHEDULE_TIMEZONE", "Asia/Kuala_Lumpur")
	viper.SetDefault("DATA_FILE", "all_bookings.json")
	viper.SetDefault("ORGANIZATIONS_FILE", "organizations.yml")
	viper.SetDefault("LOGIN_URL", "https://business.courtsite.my/login")
	viper.SetDefault("LOGIN_EMAIL", "")
	viper.SetDefault("LOGIN_PASSWORD", "")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("RUN_TIMEOUT_MINUTES", 30)
	viper.SetDefault("SETTLE_SECONDS", 3)
	viper.SetDefault("STABILIZE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("MAX_PAGES", 200)
	viper.SetDefault("REMOTE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("POSTGRES_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("CACHE_TTL_MINUTES", 60)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrganizations reads the crawl targets from a YAML file of the form:
//
//	organizations:
//	  - name: The Pickle Vibe @ Kepong
//	    url: https://business.courtsite.my/organisation/xxx/masa/bookings
func LoadOrganizations(path string) ([]domain.Organization, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read organizations file %s: %w", path, err)
	}

	var orgs []domain.Organization
	if err := v.UnmarshalKey("organizations", &orgs); err != nil {
		return nil, fmt.Errorf("could not parse organizations file %s: %w", path, err)
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("organizations file %s defines no organizations", path)
	}
	for i, org := range orgs {
		if org.URL == "" {
			return nil, fmt.Errorf("organization %d in %s has no url", i, path)
		}
	}
	return orgs, nil
}
