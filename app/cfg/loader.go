package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"jarr" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"jarr" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"jarr" description:"Database name"`

	// HTTP server configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://jarr.example.com)"`

	// Crawler configuration
	CrawlerType     string `long:"crawler-type" env:"CRAWLER_TYPE" default:"http" description:"Crawling method reported to clients"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for feed fetching"`
	CrawlerInterval int    `long:"crawler-interval" env:"CRAWLER_INTERVAL" default:"60" description:"Crawler scheduling interval in seconds"`
	FeedErrorMax    int    `long:"feed-error-max" env:"FEED_ERROR_MAX" default:"6" description:"Error count after which a feed is no longer fetched"`
	ErrorThreshold  int    `long:"feed-error-threshold" env:"FEED_ERROR_THRESHOLD" default:"3" description:"Error count after which a feed is reported in notifications"`
	AdminOnlyFetch  bool   `long:"admin-only-fetch" env:"ADMIN_ONLY_FETCH" description:"Restrict the /fetch endpoint to admin users"`

	// Content parsing configuration
	ReadabilityEndpoint string `long:"readability-endpoint" env:"READABILITY_ENDPOINT" description:"Remote content extraction API endpoint (optional, local extraction is used when unset)"`
	ReadabilityKey      string `long:"readability-key" env:"READABILITY_KEY" description:"Default content extraction API key used when a user has none"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"JARR/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:              raw.DBHost,
		DBPort:              raw.DBPort,
		DBUser:              raw.DBUser,
		DBPassword:          raw.DBPassword,
		DBName:              raw.DBName,
		Port:                raw.Port,
		BaseUrl:             raw.BaseUrl,
		CrawlerType:         raw.CrawlerType,
		WorkerCount:         raw.WorkerCount,
		CrawlerInterval:     raw.CrawlerInterval,
		FeedErrorMax:        raw.FeedErrorMax,
		ErrorThreshold:      raw.ErrorThreshold,
		AdminOnlyFetch:      raw.AdminOnlyFetch,
		ReadabilityEndpoint: raw.ReadabilityEndpoint,
		ReadabilityKey:      raw.ReadabilityKey,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
