package config_test

import (
	"strings"
	"testing"
	"time"

	"sales-reports/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/sales_test")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestParse_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ServerAddress != ":8080" {
		t.Errorf("ServerAddress = %q", cfg.ServerAddress)
	}
	if cfg.ReportWorkers != 4 {
		t.Errorf("ReportWorkers = %d, want 4", cfg.ReportWorkers)
	}
	if cfg.SummaryTimeout != 15*time.Second {
		t.Errorf("SummaryTimeout = %v, want 15s", cfg.SummaryTimeout)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.SMTPEnabled() {
		t.Errorf("SMTPEnabled with no host")
	}
}

func TestParse_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := config.Parse(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL and JWT_SECRET")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"zero workers", "REPORT_WORKERS", "0", "REPORT_WORKERS"},
		{"negative workers", "REPORT_WORKERS", "-2", "REPORT_WORKERS"},
		{"bad log format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"bad smtp port", "SMTP_PORT", "70000", "SMTP_PORT"},
		{"zero rate", "RATE_LIMIT_RPS", "0", "RATE_LIMIT_RPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %s", err, tt.wantMsg)
			}
		})
	}
}

func TestOrigins(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: " https://a.example.com, ,https://b.example.com "}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("Origins() = %v", got)
	}
}
