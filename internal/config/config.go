package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultCMCBaseURL = "https://pro-api.coinmarketcap.com"
	DefaultHTTPPort   = 30000
)

type Config struct {
	CMCKey              string
	CMCBaseURL          string
	UpstreamTimeoutSecs int
	TrendingLimit       int

	ServerDomain string
	PlotDir      string
	ImageDir     string
	CoinListFile string

	HTTPBind     string
	HTTPPort     int
	MCPTransport string
	MCPAuthToken string

	TelegramBotToken string

	TracingEnabled bool
	OTLPEndpoint   string

	LogLevel  string
	LogFormat string

	// Warnings lists problems found while loading. The caller logs them once
	// its logger is configured.
	Warnings []string
}

func Load() *Config {
	cfg := &Config{
		CMCKey:           strings.TrimSpace(os.Getenv("CMC_KEY")),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OTLPEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.CMCKey == "" {
		cfg.warn("CMC_KEY not set, upstream requests will be rejected")
	}

	cfg.CMCBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("CMC_BASE_URL")), "/")
	if cfg.CMCBaseURL == "" {
		cfg.CMCBaseURL = DefaultCMCBaseURL
	}

	cfg.UpstreamTimeoutSecs = cfg.positiveInt("UPSTREAM_TIMEOUT_SECS", 15)
	cfg.TrendingLimit = cfg.positiveInt("TRENDING_LIMIT", 20)

	cfg.PlotDir = orDefault(os.Getenv("PLOT_DIR"), "plts")
	cfg.ImageDir = orDefault(os.Getenv("IMAGE_DIR"), "images")
	cfg.CoinListFile = orDefault(os.Getenv("COIN_LIST_FILE"), "cmc_coin_list.json")

	cfg.HTTPBind = orDefault(os.Getenv("HTTP_BIND"), "0.0.0.0")
	cfg.HTTPPort = cfg.positiveInt("HTTP_PORT", DefaultHTTPPort)

	cfg.ServerDomain = strings.TrimRight(strings.TrimSpace(os.Getenv("SERVER_DOMAIN")), "/")
	if cfg.ServerDomain == "" {
		cfg.ServerDomain = fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)
		cfg.warn(fmt.Sprintf("SERVER_DOMAIN not set, chart links will use %s", cfg.ServerDomain))
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "http"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		cfg.warn(fmt.Sprintf("unsupported MCP_TRANSPORT=%q, defaulting to http", cfg.MCPTransport))
		cfg.MCPTransport = "http"
	}

	if cfg.TelegramBotToken == "" {
		cfg.warn("TELEGRAM_BOT_TOKEN not set, telegram bot disabled")
	}

	cfg.TracingEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "true")

	cfg.LogLevel = strings.ToLower(orDefault(os.Getenv("LOG_LEVEL"), "info"))
	cfg.LogFormat = strings.ToLower(orDefault(os.Getenv("LOG_FORMAT"), "json"))

	return cfg
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func (c *Config) warn(msg string) {
	c.Warnings = append(c.Warnings, msg)
}

func (c *Config) positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.warn(fmt.Sprintf("invalid %s=%q, defaulting to %d", key, v, def))
		return def
	}
	return n
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
