package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	UpstreamURL             string        `yaml:"upstream_url"`
	UpstreamMaxConns        int           `yaml:"upstream_max_conns"`
	UpstreamMaxIdleConns    int           `yaml:"upstream_max_idle_conns"`
	UpstreamDialTimeout     time.Duration `yaml:"upstream_dial_timeout"`
	UpstreamResponseTimeout time.Duration `yaml:"upstream_response_timeout"`

	ConcurrencyMax     int           `yaml:"concurrency_max"`
	ConcurrencyTimeout time.Duration `yaml:"concurrency_timeout"`

	OutcomeStatsEnabled       bool          `yaml:"outcome_stats_enabled"`
	OutcomeStatsRedisAddr     string        `yaml:"outcome_stats_redis_addr"`
	OutcomeStatsRedisPassword string        `yaml:"outcome_stats_redis_password"`
	OutcomeStatsRedisDB       int           `yaml:"outcome_stats_redis_db"`
	OutcomeStatsPrefix        string        `yaml:"outcome_stats_prefix"`
	OutcomeStatsTTL           time.Duration `yaml:"outcome_stats_ttl"`
	OutcomeStatsBucket        string        `yaml:"outcome_stats_bucket"`
	OutcomeStatsTimeout       time.Duration `yaml:"outcome_stats_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func defaultConfig() config {
	return config{
		ListenAddr:              ":8080",
		MetricsAddr:             ":9090",
		UpstreamURL:             "http://localhost:8112/api/v1/employee",
		UpstreamMaxConns:        20,
		UpstreamMaxIdleConns:    100,
		UpstreamDialTimeout:     5 * time.Second,
		UpstreamResponseTimeout: 10 * time.Second,
		ConcurrencyMax:          100,
		OutcomeStatsPrefix:      "employee-gateway:upstream",
		OutcomeStatsTTL:         24 * time.Hour,
		OutcomeStatsBucket:      "minute",
		OutcomeStatsTimeout:     250 * time.Millisecond,
		LogLevel:                "info",
		LogFormat:               "text",
	}
}

// readConfig parte dos padrões, aplica o YAML de CONFIG_FILE (se houver) e por
// fim as variáveis de ambiente, que sempre ganham.
func readConfig() (config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return config{}, err
		}
	}

	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.MetricsAddr = getenvAllowEmpty("METRICS_ADDR", cfg.MetricsAddr)
	cfg.UpstreamURL = getenvDefault("UPSTREAM_URL", cfg.UpstreamURL)
	cfg.UpstreamMaxConns = getenvIntDefault("UPSTREAM_MAX_CONNS", cfg.UpstreamMaxConns)
	cfg.UpstreamMaxIdleConns = getenvIntDefault("UPSTREAM_MAX_IDLE_CONNS", cfg.UpstreamMaxIdleConns)
	cfg.UpstreamDialTimeout = getenvDurationDefault("UPSTREAM_DIAL_TIMEOUT", cfg.UpstreamDialTimeout)
	cfg.UpstreamResponseTimeout = getenvDurationDefault("UPSTREAM_RESPONSE_TIMEOUT", cfg.UpstreamResponseTimeout)
	cfg.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", cfg.ConcurrencyMax)
	cfg.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", cfg.ConcurrencyTimeout)

	cfg.OutcomeStatsEnabled = getenvBoolDefault("OUTCOME_STATS_ENABLED", cfg.OutcomeStatsEnabled)
	cfg.OutcomeStatsRedisAddr = getenvDefault("OUTCOME_STATS_REDIS_ADDR", cfg.OutcomeStatsRedisAddr)
	cfg.OutcomeStatsRedisPassword = getenvDefault("OUTCOME_STATS_REDIS_PASSWORD", cfg.OutcomeStatsRedisPassword)
	cfg.OutcomeStatsRedisDB = getenvIntDefault("OUTCOME_STATS_REDIS_DB", cfg.OutcomeStatsRedisDB)
	cfg.OutcomeStatsPrefix = getenvDefault("OUTCOME_STATS_PREFIX", cfg.OutcomeStatsPrefix)
	cfg.OutcomeStatsTTL = getenvDurationDefault("OUTCOME_STATS_TTL", cfg.OutcomeStatsTTL)
	cfg.OutcomeStatsBucket = getenvDefault("OUTCOME_STATS_BUCKET", cfg.OutcomeStatsBucket)
	cfg.OutcomeStatsTimeout = getenvDurationDefault("OUTCOME_STATS_TIMEOUT", cfg.OutcomeStatsTimeout)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c config) validate() error {
	u, err := url.Parse(strings.TrimSpace(c.UpstreamURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("UPSTREAM_URL must be an absolute http(s) URL, got %q", c.UpstreamURL)
	}
	if c.UpstreamMaxConns <= 0 {
		return errors.New("UPSTREAM_MAX_CONNS must be > 0")
	}
	if c.UpstreamMaxIdleConns <= 0 {
		return errors.New("UPSTREAM_MAX_IDLE_CONNS must be > 0")
	}
	if c.UpstreamDialTimeout <= 0 || c.UpstreamResponseTimeout <= 0 {
		return errors.New("UPSTREAM_DIAL_TIMEOUT and UPSTREAM_RESPONSE_TIMEOUT must be > 0")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.OutcomeStatsEnabled && strings.TrimSpace(c.OutcomeStatsRedisAddr) == "" {
		return errors.New("OUTCOME_STATS_REDIS_ADDR is required when OUTCOME_STATS_ENABLED=true")
	}
	switch strings.ToLower(c.OutcomeStatsBucket) {
	case "minute", "none":
	default:
		return fmt.Errorf("OUTCOME_STATS_BUCKET must be minute or none, got %q", c.OutcomeStatsBucket)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func newLogger(cfg config, w io.Writer) *slog.Logger {
	lvl, _ := parseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty respeita a variável definida como vazia (ex.: METRICS_ADDR=
// desliga o servidor de métricas).
func getenvAllowEmpty(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
