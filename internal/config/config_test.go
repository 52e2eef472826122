package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMemoryBackendDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("APP_PORT", "")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Backend != BackendMemory {
		t.Errorf("backend = %q", cfg.Database.Backend)
	}
	if cfg.Reporting.CronSchedule != "0 20 * * 6" {
		t.Errorf("cron = %q", cfg.Reporting.CronSchedule)
	}
	if cfg.MongoDB.Enabled() || cfg.Sheets.Enabled() {
		t.Error("optional sinks must be disabled without configuration")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := strings.Join([]string{
		"STORE_BACKEND=postgres",
		"DB_USER=prod",
		"DB_NAME=prodtrack_test",
		"DB_MAX_OPEN_CONNS=5",
		"TIMEZONE=UTC",
	}, "\n")
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables already present in the environment.
	for _, key := range []string{"STORE_BACKEND", "DB_USER", "DB_NAME", "DB_MAX_OPEN_CONNS", "TIMEZONE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.User != "prod" || cfg.Database.MaxOpenConns != 5 {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if !strings.Contains(cfg.Database.DSN(), "dbname=prodtrack_test") {
		t.Errorf("DSN = %q", cfg.Database.DSN())
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Database:  DatabaseConfig{Backend: BackendMemory},
			Reporting: ReportingConfig{CronSchedule: "0 20 * * 6", Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "postgres without user", mutate: func(c *Config) {
			c.Database = DatabaseConfig{Backend: BackendPostgres, Host: "db", Name: "x", MaxOpenConns: 1}
		}, wantErr: "DB_USER"},
		{name: "unknown backend", mutate: func(c *Config) { c.Database.Backend = "sqlite" }, wantErr: "STORE_BACKEND"},
		{name: "whatsapp partial", mutate: func(c *Config) { c.WhatsApp.AccessToken = "tok" }, wantErr: "WHATSAPP_PHONE_NUMBER_ID"},
		{name: "sheets partial", mutate: func(c *Config) { c.Sheets.SpreadsheetID = "sheet" }, wantErr: "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{name: "bad timezone", mutate: func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" }, wantErr: "TIMEZONE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate error = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}
