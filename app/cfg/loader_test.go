package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:                "8080",
		BaseUrl:             "https://jarr.example.com",
		UserAgent:           "Test Agent",
		WorkerCount:         5,
		CrawlerInterval:     60,
		CrawlerType:         "http",
		FeedErrorMax:        6,
		ErrorThreshold:      3,
		ReadabilityEndpoint: "https://parser.example.com/parse",
		ReadabilityKey:      "global-key",
		DBHost:              "localhost",
		DBPort:              "5432",
		DBUser:              "test_user",
		DBPassword:          "test_password",
		DBName:              "test_db",
		Timezone:            "UTC",
		Debug:               true,
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.CrawlerType != "http" {
		t.Errorf("Expected crawler type 'http', got '%s'", cfg.CrawlerType)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.FeedErrorMax != 6 {
		t.Errorf("Expected feed error max 6, got %d", cfg.FeedErrorMax)
	}
	if cfg.ErrorThreshold != 3 {
		t.Errorf("Expected error threshold 3, got %d", cfg.ErrorThreshold)
	}
	if cfg.ReadabilityKey != "global-key" {
		t.Errorf("Expected readability key 'global-key', got '%s'", cfg.ReadabilityKey)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("Expected DB host 'localhost', got '%s'", cfg.DBHost)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
