package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoadConfigOptional_EmptyPath tests loading when file path is empty
func TestLoadConfigOptional_EmptyPath(t *testing.T) {
	t.Setenv("VISIONGO_API_KEY", "env-key")

	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional with empty path should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("Expected APIKey=env-key from env, got %q", cfg.APIKey)
	}
}

// TestLoadConfigOptional_WhitespacePath tests loading when file path is only whitespace
func TestLoadConfigOptional_WhitespacePath(t *testing.T) {
	cfg, err := LoadConfigOptional("   ")
	if err != nil {
		t.Fatalf("LoadConfigOptional with whitespace path should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
}

// TestLoadConfigOptional_FileNotExist tests loading when file does not exist
func TestLoadConfigOptional_FileNotExist(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "config-does-not-exist.yaml")

	cfg, err := LoadConfigOptional(nonExistentPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional with non-existent file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
}

func TestLoadConfig_FileNotExist(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig should fail for a missing file")
	}
}

// TestLoadConfigOptional_InvalidYAML tests loading when file exists but has invalid YAML
func TestLoadConfigOptional_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
apiBaseUrl: "https://api.example.com"
apiKey: "k"
  invalid indentation here
  more bad yaml
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadConfigOptional(configPath); err == nil {
		t.Fatal("Expected error when loading invalid YAML, got nil")
	}
}

// TestLoadConfigOptional_ValidConfig tests loading when file exists with valid config
func TestLoadConfigOptional_ValidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "valid.yaml")

	validYAML := `
apiBaseUrl: "http://localhost:8080"
apiKey: "file-key"
logLevel: "debug"
env: "test"
redisAddr: "localhost:6379"
rateLimit:
  requestsPerMinute: 600
  burstSize: 10
pollIntervalMs: 250
fakeApi:
  port: 9000
  apiKeys: ["a", "b"]
`
	if err := os.WriteFile(configPath, []byte(validYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	cfg, err := LoadConfigOptional(configPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional with valid config should not error: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Errorf("Expected APIBaseURL from file, got %q", cfg.APIBaseURL)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("Expected APIKey=file-key, got %q", cfg.APIKey)
	}
	if cfg.RateLimit.RequestsPerMinute != 600 || cfg.RateLimit.BurstSize != 10 {
		t.Errorf("Unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Errorf("Expected PollInterval=250ms, got %v", cfg.PollInterval())
	}
	if cfg.FakeAPI.Port != 9000 || len(cfg.FakeAPI.APIKeys) != 2 {
		t.Errorf("Unexpected fake api config %+v", cfg.FakeAPI)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

// TestLoadConfigOptional_EnvOverrides tests that environment variables override file values
func TestLoadConfigOptional_EnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configYAML := `
apiBaseUrl: "http://file:8080"
apiKey: "file-key"
redisAddr: "localhost:6379"
tracingEnabled: false
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	t.Setenv("VISIONGO_API_BASE_URL", "http://env:9090")
	t.Setenv("VISIONGO_API_KEY", "env-key")
	t.Setenv("VISIONGO_REDIS_ADDR", "env-redis:6380")
	t.Setenv("VISIONGO_TRACING_ENABLED", "true")
	t.Setenv("VISIONGO_TRACE_SAMPLE_RATIO", "0.25")
	t.Setenv("VISIONGO_FAKEAPI_KEYS", "one, two,,three")
	t.Setenv("VISIONGO_REQUEST_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := LoadConfigOptional(configPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}

	if cfg.APIBaseURL != "http://env:9090" {
		t.Errorf("Expected APIBaseURL from env, got %q", cfg.APIBaseURL)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("Expected APIKey from env, got %q", cfg.APIKey)
	}
	if cfg.RedisAddr != "env-redis:6380" {
		t.Errorf("Expected RedisAddr from env, got %q", cfg.RedisAddr)
	}
	if !cfg.TracingEnabled {
		t.Error("Expected TracingEnabled from env")
	}
	if cfg.TraceSampleRatio != 0.25 {
		t.Errorf("Expected TraceSampleRatio=0.25, got %v", cfg.TraceSampleRatio)
	}
	if strings.Join(cfg.FakeAPI.APIKeys, "|") != "one|two|three" {
		t.Errorf("Unexpected FakeAPI.APIKeys %v", cfg.FakeAPI.APIKeys)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("Invalid env value should keep the default, got %v", cfg.RequestTimeout())
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional: %v", err)
	}
	if cfg.APIBaseURL != "https://api.clarifai.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.PollMaxAttempts != 20 || cfg.PollInterval() != time.Second {
		t.Errorf("unexpected poll defaults: %d attempts every %v", cfg.PollMaxAttempts, cfg.PollInterval())
	}
	if cfg.PollBackoffPolicy != "fixed" {
		t.Errorf("PollBackoffPolicy = %q", cfg.PollBackoffPolicy)
	}
	if cfg.RateLimit.Enabled() {
		t.Error("rate limit should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, _ := LoadConfigOptional("")
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad url", func(c *Config) { c.APIBaseURL = "ftp://x" }, "apiBaseUrl"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "logLevel"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "logFormat"},
		{"bad policy", func(c *Config) { c.PollBackoffPolicy = "random" }, "pollBackoffPolicy"},
		{"inverted poll bounds", func(c *Config) { c.PollMaxIntervalMs = 10 }, "pollMaxIntervalMs"},
		{"limiter without redis", func(c *Config) {
			c.RateLimit.RequestsPerMinute = 60
			c.RateLimit.BurstSize = 5
		}, "redisAddr"},
		{"prod without key", func(c *Config) { c.Env = "prod" }, "apiKey"},
		{"prod with key", func(c *Config) {
			c.Env = "prod"
			c.APIKey = "k"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
