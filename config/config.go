package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "REGATTA_"

// Config holds all application configuration.
type Config struct {
	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     string `koanf:"postgres_port"`
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDB       string `koanf:"postgres_db"`
	PostgresSSLMode  string `koanf:"postgres_sslmode"`

	// Store selects the result store: "postgres" or "memory".
	Store string `koanf:"store"`

	ClubspotAPIURL   string `koanf:"clubspot_api_url"`
	ClubspotBaseURL  string `koanf:"clubspot_base_url"`
	ClubspotAPILimit int    `koanf:"clubspot_api_limit"`

	TechscoreHSURL      string `koanf:"techscore_hs_url"`
	TechscoreCollegeURL string `koanf:"techscore_college_url"`

	MaxRegattas     int           `koanf:"max_regattas"`
	ScraperTimeout  time.Duration `koanf:"scraper_timeout"`
	PageLoadTimeout time.Duration `koanf:"page_load_timeout"`
	HarvestPasses   int           `koanf:"harvest_passes"`
	HarvestSettle   time.Duration `koanf:"harvest_settle"`
	RateLimitMs     int           `koanf:"rate_limit_ms"`
	MaxRetries      int           `koanf:"max_retries"`

	ResultsCSV    string `koanf:"results_csv"`
	SearchedCSV   string `koanf:"searched_csv"`
	ScraperDFPath string `koanf:"scraper_df_path"`

	ChromeBin   string `koanf:"chrome_bin"`
	LogLevel    string `koanf:"log_level"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "regatta",
		PostgresPassword: "regatta",
		PostgresDB:       "regatta_resume",
		PostgresSSLMode:  "disable",

		Store: "postgres",

		ClubspotAPIURL:   "https://theclubspot.com/parse/classes/regattas",
		ClubspotBaseURL:  "https://theclubspot.com",
		ClubspotAPILimit: 15000,

		TechscoreHSURL:      "https://scores.hssailing.org/sailors/",
		TechscoreCollegeURL: "https://scores.collegesailing.org/sailors/",

		MaxRegattas:     250,
		ScraperTimeout:  12 * time.Second,
		PageLoadTimeout: 30 * time.Second,
		HarvestPasses:   16,
		HarvestSettle:   250 * time.Millisecond,
		RateLimitMs:     0,
		MaxRetries:      3,

		ResultsCSV:    "./output/results.csv",
		SearchedCSV:   "./output/searched_regattas.csv",
		ScraperDFPath: "./output/scraper_df.csv",

		LogLevel: "info",
	}
}

// Load reads the .env file, then layers an optional YAML file (REGATTA_CONFIG)
// and REGATTA_-prefixed environment variables over the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Default()
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: store must be postgres or memory, got %q", c.Store)
	}
	if c.MaxRegattas <= 0 {
		return fmt.Errorf("config: max_regattas must be positive")
	}
	if c.HarvestPasses <= 0 {
		return fmt.Errorf("config: harvest_passes must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ResultsURL returns the rendered results page of a listing.
func (c *Config) ResultsURL(listingID string) string {
	return strings.TrimRight(c.ClubspotBaseURL, "/") + "/regatta/" + listingID + "/results"
}
