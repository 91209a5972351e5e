package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/backoff"
	"github.com/osvaldoandrade/visiongo/internal/providers"
	"github.com/osvaldoandrade/visiongo/internal/ratelimit"

	"gopkg.in/yaml.v3"
)

const envPrefix = "VISIONGO_"

type Config struct {
	APIBaseURL            string `yaml:"apiBaseUrl"`
	APIKey                string `yaml:"apiKey"`
	UserAgent             string `yaml:"userAgent"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	Env       string `yaml:"env"`

	TracingEnabled   bool    `yaml:"tracingEnabled"`
	ServiceName      string  `yaml:"serviceName"`
	OTLPEndpoint     string  `yaml:"otlpEndpoint"`
	OTLPInsecure     bool    `yaml:"otlpInsecure"`
	TraceSampleRatio float64 `yaml:"traceSampleRatio"`

	// An empty RedisAddr turns the shared rate limiter off.
	RedisAddr     string           `yaml:"redisAddr"`
	RedisPassword string           `yaml:"redisPassword"`
	RedisDB       int              `yaml:"redisDb"`
	RateLimit     ratelimit.Bucket `yaml:"rateLimit"`

	PollIntervalMs    int    `yaml:"pollIntervalMs"`
	PollMaxIntervalMs int    `yaml:"pollMaxIntervalMs"`
	PollMaxAttempts   int    `yaml:"pollMaxAttempts"`
	PollBackoffPolicy string `yaml:"pollBackoffPolicy"`

	// PredictConcurrency caps how many predict calls the CLI runs at once.
	PredictConcurrency int   `yaml:"predictConcurrency"`
	MaxInputBytes      int64 `yaml:"maxInputBytes"`

	FakeAPI FakeAPIConfig `yaml:"fakeApi"`
}

// RedisOptions is the bucket store connection, timed out like API calls.
func (c *Config) RedisOptions() providers.RedisOptions {
	return providers.RedisOptions{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		Timeout:  c.RequestTimeout(),
	}
}

// FakeAPIConfig configures cmd/fakeapi, the local stand-in for the service.
type FakeAPIConfig struct {
	Port          int              `yaml:"port"`
	APIKeys       []string         `yaml:"apiKeys"`
	TrainingReads int              `yaml:"trainingReads"`
	RateLimit     ratelimit.Bucket `yaml:"rateLimit"`
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) PollMaxInterval() time.Duration {
	return time.Duration(c.PollMaxIntervalMs) * time.Millisecond
}

// LoadConfig reads the yaml file at filePath, then applies VISIONGO_*
// environment overrides and defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	applyEnv(&c)
	applyDefaults(&c)
	return &c, nil
}

// LoadConfigOptional is LoadConfig for callers where the file may be missing:
// an empty path or a file that does not exist yields env and defaults only.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		return fromEnv(), nil
	}
	cfg, err := LoadConfig(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return fromEnv(), nil
	}
	return cfg, err
}

func fromEnv() *Config {
	var c Config
	applyEnv(&c)
	applyDefaults(&c)
	return &c
}

func applyEnv(c *Config) {
	envString("API_BASE_URL", &c.APIBaseURL)
	envString("API_KEY", &c.APIKey)
	envString("USER_AGENT", &c.UserAgent)
	envInt("REQUEST_TIMEOUT_SECONDS", &c.RequestTimeoutSeconds)

	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)
	envString("ENV", &c.Env)

	envBool("TRACING_ENABLED", &c.TracingEnabled)
	envString("SERVICE_NAME", &c.ServiceName)
	envString("OTLP_ENDPOINT", &c.OTLPEndpoint)
	envBool("OTLP_INSECURE", &c.OTLPInsecure)
	if v := os.Getenv(envPrefix + "TRACE_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TraceSampleRatio = f
		}
	}

	envString("REDIS_ADDR", &c.RedisAddr)
	envString("REDIS_PASSWORD", &c.RedisPassword)
	envInt("REDIS_DB", &c.RedisDB)
	envInt("RATE_LIMIT_RPM", &c.RateLimit.RequestsPerMinute)
	envInt("RATE_LIMIT_BURST", &c.RateLimit.BurstSize)

	envInt("POLL_INTERVAL_MS", &c.PollIntervalMs)
	envInt("POLL_MAX_INTERVAL_MS", &c.PollMaxIntervalMs)
	envInt("POLL_MAX_ATTEMPTS", &c.PollMaxAttempts)
	envString("POLL_BACKOFF_POLICY", &c.PollBackoffPolicy)

	envInt("PREDICT_CONCURRENCY", &c.PredictConcurrency)
	if v := os.Getenv(envPrefix + "MAX_INPUT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxInputBytes = n
		}
	}

	envInt("FAKEAPI_PORT", &c.FakeAPI.Port)
	if v := os.Getenv(envPrefix + "FAKEAPI_KEYS"); v != "" {
		c.FakeAPI.APIKeys = splitList(v)
	}
	envInt("FAKEAPI_TRAINING_READS", &c.FakeAPI.TrainingReads)
}

func applyDefaults(c *Config) {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.clarifai.com"
	}
	if c.UserAgent == "" {
		c.UserAgent = "visiongo"
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.ServiceName == "" {
		c.ServiceName = "visiongo"
	}
	if c.TraceSampleRatio <= 0 {
		c.TraceSampleRatio = 1
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = 1000
	}
	if c.PollMaxIntervalMs <= 0 {
		c.PollMaxIntervalMs = 30000
	}
	if c.PollMaxAttempts == 0 {
		c.PollMaxAttempts = 20
	}
	if c.PollBackoffPolicy == "" {
		c.PollBackoffPolicy = string(backoff.Fixed)
	}
	if c.PredictConcurrency <= 0 {
		c.PredictConcurrency = 4
	}
	if c.MaxInputBytes <= 0 {
		c.MaxInputBytes = 20 << 20
	}
	if c.FakeAPI.Port == 0 {
		c.FakeAPI.Port = 8080
	}
	if c.FakeAPI.TrainingReads <= 0 {
		c.FakeAPI.TrainingReads = 2
	}
}

func (c *Config) Validate() error {
	var errs []string

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "apiBaseUrl must be a valid http(s) URL")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logLevel %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, "logFormat must be json or text")
	}
	if _, err := backoff.ParsePolicy(c.PollBackoffPolicy); err != nil {
		errs = append(errs, "pollBackoffPolicy: "+err.Error())
	}
	if c.PollMaxIntervalMs < c.PollIntervalMs {
		errs = append(errs, "pollMaxIntervalMs must not be below pollIntervalMs")
	}
	if c.TraceSampleRatio > 1 {
		errs = append(errs, "traceSampleRatio must be within (0, 1]")
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.BurstSize < 0 {
		errs = append(errs, "rateLimit values must not be negative")
	}
	if c.RateLimit.Enabled() && c.RedisAddr == "" {
		errs = append(errs, "rateLimit needs redisAddr")
	}
	env := strings.ToLower(strings.TrimSpace(c.Env))
	if env != "dev" && env != "test" && strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, "apiKey is required in non-dev")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(envPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(envPrefix + name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
