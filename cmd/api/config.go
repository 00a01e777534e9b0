package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/anBertoli/slice-vault/pkg/store"
	"github.com/anBertoli/slice-vault/services/slices"
)

var (
	version = "<unknown>"
)

const (
	defaultBucket          = "images"
	defaultCanvasWidth     = 640
	defaultCanvasHeight    = 480
	defaultMetricsEndpoint = "/metrics"
)

// Define a config struct to hold all the configuration settings for our application.
// We will read in these configuration settings from a config file when the
// application starts.
type config struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Env     string `json:"env"`
	Storage struct {
		store.Config
		Bucket string `json:"bucket"`
	} `json:"storage"`
	Resize struct {
		TargetWidth    int    `json:"target_width"`
		KeyPrefix      string `json:"key_prefix"`
		MaxUploadBytes int64  `json:"max_upload_bytes"`
	} `json:"resize"`
	Render struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"render"`
	RateLimit struct {
		Enabled bool    `json:"enabled"`
		PerIp   bool    `json:"per_ip"`
		Rps     float64 `json:"rps"`
		Burst   int     `json:"burst"`
	} `json:"rate-limit"`
	Metrics struct {
		MetricsEndpoint string `json:"metrics-endpoint"`
	} `json:"metrics"`
	Cors struct {
		TrustedOrigins []string `json:"trusted_origins"`
	} `json:"cors"`
	DisplayVersion bool // not from config file
}

// Parse command line flags and read in the config file at the provided path.
func parseConfig() (config, error) {
	var cfg config

	version := flag.Bool("version", false, "Display version and exit")
	configPath := flag.String("config", "./conf/api.dev.json", "Path to config file")
	flag.Parse()

	configBytes, err := os.ReadFile(*configPath)
	if err != nil {
		return config{}, err
	}
	err = json.Unmarshal(configBytes, &cfg)
	if err != nil {
		return config{}, err
	}

	// This is not from the config file.
	cfg.DisplayVersion = *version

	cfg.applyDefaults()
	return cfg, nil
}

// Fill the settings left empty in the config file.
func (cfg *config) applyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = 4000
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = defaultBucket
	}
	if cfg.Resize.KeyPrefix == "" {
		cfg.Resize.KeyPrefix = slices.DefaultKeyPrefix
	}
	if cfg.Resize.MaxUploadBytes <= 0 {
		cfg.Resize.MaxUploadBytes = slices.DefaultMaxBytes
	}
	if cfg.Render.Width <= 0 || cfg.Render.Height <= 0 {
		cfg.Render.Width, cfg.Render.Height = defaultCanvasWidth, defaultCanvasHeight
	}
	if cfg.Metrics.MetricsEndpoint == "" {
		cfg.Metrics.MetricsEndpoint = defaultMetricsEndpoint
	}
	if len(cfg.Cors.TrustedOrigins) == 0 {
		cfg.Cors.TrustedOrigins = []string{"*"}
	}
}
