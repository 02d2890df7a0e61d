package cfg

import (
	"errors"
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		t.Logf("Version: %s", version)
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs([]string{
		"--api-access-key", "secret",
		"--db-driver", "sqlite",
		"--timezone", "UTC",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}

	if cfg.AviationAPIKey != "secret" {
		t.Errorf("Expected API key 'secret', got '%s'", cfg.AviationAPIKey)
	}
	if cfg.AviationBaseURL != "https://api.aviationstack.com/v1" {
		t.Errorf("Expected default base URL, got '%s'", cfg.AviationBaseURL)
	}
	if cfg.DepIATA != "AUS" {
		t.Errorf("Expected departure airport 'AUS', got '%s'", cfg.DepIATA)
	}
	if cfg.FlightStatus != "landed" {
		t.Errorf("Expected flight status 'landed', got '%s'", cfg.FlightStatus)
	}
	if cfg.PageSize != 100 {
		t.Errorf("Expected page size 100, got %d", cfg.PageSize)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected request timeout 30s, got %v", cfg.RequestTimeout)
	}
	if cfg.RunInterval != 24*time.Hour {
		t.Errorf("Expected run interval 24h, got %v", cfg.RunInterval)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("Expected output format 'json', got '%s'", cfg.OutputFormat)
	}
	if !cfg.DatabaseEnabled() {
		t.Error("Expected database sink to be enabled for the sqlite driver")
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadArgsOverrides(t *testing.T) {
	cfg, err := LoadArgs([]string{
		"--api-access-key", "secret",
		"--db-driver", "none",
		"--output-file", "response.json",
		"--output-format", "yaml",
		"--page-size", "50",
		"--request-timeout", "5s",
		"--once",
		"--timezone", "UTC",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.DatabaseEnabled() {
		t.Error("Expected database sink to be disabled")
	}
	if cfg.OutputFile != "response.json" {
		t.Errorf("Expected output file 'response.json', got '%s'", cfg.OutputFile)
	}
	if cfg.OutputFormat != OutputFormatYAML {
		t.Errorf("Expected output format 'yaml', got '%s'", cfg.OutputFormat)
	}
	if cfg.PageSize != 50 {
		t.Errorf("Expected page size 50, got %d", cfg.PageSize)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected request timeout 5s, got %v", cfg.RequestTimeout)
	}
	if !cfg.Once {
		t.Error("Expected once mode to be enabled")
	}
}

func TestLoadArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "page size above free plan limit",
			args: []string{"--api-access-key", "k", "--db-driver", "sqlite", "--page-size", "101"},
		},
		{
			name: "zero page size",
			args: []string{"--api-access-key", "k", "--db-driver", "sqlite", "--page-size", "0"},
		},
		{
			name: "invalid airport code",
			args: []string{"--api-access-key", "k", "--db-driver", "sqlite", "--dep-iata", "KAUS"},
		},
		{
			name: "postgres without password",
			args: []string{"--api-access-key", "k", "--db-driver", "postgres", "--db-password", ""},
		},
		{
			name: "no sink configured",
			args: []string{"--api-access-key", "k", "--db-driver", "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_PASSWORD", "")
			t.Setenv("OUTPUT_FILE", "")
			t.Setenv("NATS_URL", "")
			t.Setenv("CLICKHOUSE_ADDR", "")

			_, err := LoadArgs(append(tt.args, "--timezone", "UTC"))
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestLoadArgsOnceDefaultsToResponseFile(t *testing.T) {
	t.Setenv("OUTPUT_FILE", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("CLICKHOUSE_ADDR", "")

	cfg, err := LoadArgs([]string{
		"--api-access-key", "secret",
		"--db-driver", "none",
		"--once",
		"--timezone", "UTC",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.OutputFile != "response.json" {
		t.Errorf("Expected output file 'response.json', got '%s'", cfg.OutputFile)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("Expected output format 'json', got '%s'", cfg.OutputFormat)
	}
}
