package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("sqlpilot-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.Schema != "public" {
		t.Fatalf("Database.Schema = %q", cfg.Database.Schema)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.Agent.MaxAttempts != 3 {
		t.Fatalf("Agent.MaxAttempts = %d", cfg.Agent.MaxAttempts)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"SQLPILOT_PROFILE": "prod"})
	cfg, err := Load("sqlpilot-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"SQLPILOT_PROFILE":            "test",
		"SQLPILOT_SERVICE_NAME":       "sqlpilot-custom",
		"SQLPILOT_HTTP_ADDR":          ":9999",
		"SQLPILOT_HTTP_READ_TIMEOUT":  "2s",
		"SQLPILOT_DB_DRIVER":          "duckdb",
		"SQLPILOT_DB_DSN":             "analytics.db",
		"SQLPILOT_DB_SCHEMA":          "main",
		"SQLPILOT_DB_MAX_OPEN_CONNS":  "42",
		"SQLPILOT_AI_BASE_URL":        "https://api.example.com",
		"SQLPILOT_AI_API_KEY":         "secret-key",
		"SQLPILOT_AI_MODEL":           "gpt-5.2",
		"SQLPILOT_AI_TEMPERATURE":     "0.3",
		"SQLPILOT_AI_TIMEOUT":         "21s",
		"SQLPILOT_AGENT_MAX_ATTEMPTS": "5",
		"SQLPILOT_LOG_LEVEL":          "error",
		"SQLPILOT_AUTH_REQUIRED":      "true",
		"SQLPILOT_AUTH_STATIC_KEYS":   "k1:analyst:ask",
	})
	cfg, err := Load("sqlpilot-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "sqlpilot-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Database.Driver != "duckdb" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "analytics.db" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.Schema != "main" {
		t.Fatalf("Database.Schema = %q", cfg.Database.Schema)
	}
	if cfg.Database.MaxOpenConns != 42 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.AI.BaseURL != "https://api.example.com" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.APIKey != "secret-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "gpt-5.2" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.Agent.MaxAttempts != 5 {
		t.Fatalf("Agent.MaxAttempts = %d", cfg.Agent.MaxAttempts)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:analyst:ask" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"SQLPILOT_PROFILE": "oops"},
		{"SQLPILOT_HTTP_READ_TIMEOUT": "NaN"},
		{"SQLPILOT_DB_DRIVER": "oracle"},
		{"SQLPILOT_DB_MAX_OPEN_CONNS": "oops"},
		{"SQLPILOT_AI_TEMPERATURE": "bad"},
		{"SQLPILOT_AGENT_MAX_ATTEMPTS": "0"},
		{"SQLPILOT_AUTH_REQUIRED": "not-bool"},
		{"SQLPILOT_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("sqlpilot-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
