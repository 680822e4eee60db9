package config

import (
	"os"
	"testing"
	"time"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

func TestLoad_Success(t *testing.T) {
	envVars := map[string]string{
		"MONGODB_URI":               "mongodb://localhost:27017",
		"MONGODB_DB":                "taifex_test",
		"TAIFEX_BASE_URL":           "http://localhost:9999",
		"LINE_CHANNEL_SECRET":       "test_secret",
		"LINE_CHANNEL_ACCESS_TOKEN": "test_token",
		"LISTEN_ADDR":               ":9000",
		"HOLIDAYS":                  "2024-01-01, 2024-02-08",
	}
	for key, value := range envVars {
		os.Setenv(key, value)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"MongoURI", cfg.MongoURI, "mongodb://localhost:27017"},
		{"MongoDB", cfg.MongoDB, "taifex_test"},
		{"TaifexBaseURL", cfg.TaifexBaseURL, "http://localhost:9999"},
		{"LineChannelSecret", cfg.LineChannelSecret, "test_secret"},
		{"LineChannelToken", cfg.LineChannelToken, "test_token"},
		{"ListenAddr", cfg.ListenAddr, ":9000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	defer os.Unsetenv("MONGODB_URI")
	for _, key := range []string{"MONGODB_DB", "TAIFEX_BASE_URL", "LISTEN_ADDR", "HOLIDAYS"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.MongoDB != "taifex" {
		t.Errorf("MongoDB = %q, want default %q", cfg.MongoDB, "taifex")
	}
	if cfg.TaifexBaseURL != "https://www.taifex.com.tw" {
		t.Errorf("TaifexBaseURL = %q, want production default", cfg.TaifexBaseURL)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want default %q", cfg.ListenAddr, ":8000")
	}
}

func TestLoad_MissingMongoURI(t *testing.T) {
	os.Unsetenv("MONGODB_URI")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing MONGODB_URI, got nil")
	}
}

func TestHolidayDates(t *testing.T) {
	cfg := &Config{Holidays: "2024-01-01,2024-02-08 , 2024-02-09"}

	dates, err := cfg.HolidayDates()
	if err != nil {
		t.Fatalf("HolidayDates() returned unexpected error: %v", err)
	}

	want := []time.Time{
		model.Date(2024, time.January, 1),
		model.Date(2024, time.February, 8),
		model.Date(2024, time.February, 9),
	}
	if len(dates) != len(want) {
		t.Fatalf("HolidayDates() returned %d dates, want %d", len(dates), len(want))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestHolidayDates_Empty(t *testing.T) {
	cfg := &Config{}
	dates, err := cfg.HolidayDates()
	if err != nil {
		t.Fatalf("HolidayDates() returned unexpected error: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("HolidayDates() = %v, want empty", dates)
	}
}

func TestHolidayDates_Invalid(t *testing.T) {
	cfg := &Config{Holidays: "2024/01/01"}
	if _, err := cfg.HolidayDates(); err == nil {
		t.Error("HolidayDates() expected error for bad date format, got nil")
	}
}

func TestRequireLineCredentials(t *testing.T) {
	full := &Config{LineChannelSecret: "s", LineChannelToken: "t"}
	if err := full.RequireLineCredentials(); err != nil {
		t.Errorf("RequireLineCredentials() returned unexpected error: %v", err)
	}

	missing := &Config{LineChannelSecret: "s"}
	if err := missing.RequireLineCredentials(); err == nil {
		t.Error("RequireLineCredentials() expected error for missing token, got nil")
	}
}
