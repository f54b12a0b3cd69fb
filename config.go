package main

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	ListenPort  int `json:"listen_port"`
	MetricsPort int `json:"metrics_port"`
	ManagePort  int `json:"manage_port"`

	GeoProviderURL   string  `json:"geo_provider_url"`
	GeoUpstreamRPS   float64 `json:"geo_upstream_rps"`
	GeoUpstreamBurst int     `json:"geo_upstream_burst"`
	GeoIPDBPath      string  `json:"geoip_db_path"`

	RateLimit RateLimitConfig `json:"rate_limit"`

	AssetsDir string `json:"assets_dir"`

	WeChatAppID  string `json:"wechat_app_id"`
	WeChatSecret string `json:"wechat_secret"`

	ChatAPIURL string `json:"chat_api_url"`
	ChatAPIKey string `json:"chat_api_key"`
	ChatModel  string `json:"chat_model"`
}

type RateLimitConfig struct {
	WindowSeconds int `json:"window_seconds"`
	MaxRequests   int `json:"max_requests"`
	BlockSeconds  int `json:"block_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config

	// Try loading from file first
	file, err := os.Open(path)
	if err == nil {
		decoder := json.NewDecoder(file)
		err = decoder.Decode(&cfg)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	// Override with ENV variables if present
	if val := os.Getenv("EDGEGATE_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.ListenPort)
	}
	if val := os.Getenv("EDGEGATE_GEO_URL"); val != "" {
		cfg.GeoProviderURL = val
	}
	if val := os.Getenv("EDGEGATE_GEOIP_DB"); val != "" {
		cfg.GeoIPDBPath = val
	}
	if val := os.Getenv("EDGEGATE_ASSETS_DIR"); val != "" {
		cfg.AssetsDir = val
	}
	if val := os.Getenv("EDGEGATE_WECHAT_APPID"); val != "" {
		cfg.WeChatAppID = val
	}
	if val := os.Getenv("EDGEGATE_WECHAT_SECRET"); val != "" {
		cfg.WeChatSecret = val
	}
	if val := os.Getenv("EDGEGATE_CHAT_API_KEY"); val != "" {
		cfg.ChatAPIKey = val
	}

	// Default values if nothing exists
	if cfg.ListenPort == 0 {
		cfg.ListenPort = 8080
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
	if cfg.ManagePort == 0 {
		cfg.ManagePort = 9091
	}
	if cfg.GeoProviderURL == "" {
		cfg.GeoProviderURL = "https://ipapi.co"
	}
	if cfg.GeoUpstreamRPS == 0 {
		cfg.GeoUpstreamRPS = 5
	}
	if cfg.GeoUpstreamBurst == 0 {
		cfg.GeoUpstreamBurst = 10
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = "public"
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 10
	}
	if cfg.RateLimit.BlockSeconds == 0 {
		cfg.RateLimit.BlockSeconds = 300
	}
	if cfg.ChatAPIURL == "" {
		cfg.ChatAPIURL = "https://api.deepseek.com/chat/completions"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "deepseek-chat"
	}

	return &cfg, nil
}
