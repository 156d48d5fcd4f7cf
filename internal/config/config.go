// Package config loads the engine configuration. Everything has a working
// default; an optional ~/.vending/config.toml overrides it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/openvending/vending/internal/protocol"
)

const (
	configDirName  = ".vending"
	configName     = "config"
	configType     = "toml"
	defaultBackend = "https://play.googleapis.com/fdfe"
)

// Load returns a viper instance with defaults applied and, when present,
// the user config file merged in. A missing file is not an error.
func Load() (*viper.Viper, error) {
	cfg := viper.New()
	SetDefaults(cfg)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDirName))

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

// SetDefaults applies every engine default onto cfg. Adapters layer their
// own defaults on top of the same instance.
func SetDefaults(cfg *viper.Viper) {
	cfg.SetDefault("backend.base_url", defaultBackend)
	cfg.SetDefault("backend.sku_details_path", "/skuDetails")
	cfg.SetDefault("backend.acquire_path", "/acquire")
	cfg.SetDefault("backend.consume_path", "/consumePurchase")
	cfg.SetDefault("backend.acknowledge_path", "/acknowledgePurchase")
	cfg.SetDefault("backend.history_path", "/purchaseHistory")
	cfg.SetDefault("backend.auth_proof_path", "/api/rapt")

	cfg.SetDefault("transport.request_timeout", 15*time.Second)

	cfg.SetDefault("cache.sku_details.capacity", 2048)
	cfg.SetDefault("cache.sku_details.ttl", 2*time.Hour)
	cfg.SetDefault("cache.sessions.ttl", time.Minute)

	cfg.SetDefault("flows.max_active", 64)
	cfg.SetDefault("flows.idle_ttl", 10*time.Minute)

	cfg.SetDefault("server.addr", "127.0.0.1:8123")

	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.dir", "")

	cfg.SetDefault("credentials.path", "")
}

// CredentialsPath resolves the accounts file location, defaulting to
// ~/.vending/credentials.toml.
func CredentialsPath(cfg *viper.Viper) (string, error) {
	if p := cfg.GetString("credentials.path"); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, configDirName, "credentials.toml"), nil
}

// Endpoints assembles the backend URL set from the configured base.
func Endpoints(cfg *viper.Viper) protocol.Endpoints {
	base := cfg.GetString("backend.base_url")
	return protocol.Endpoints{
		SkuDetails:      base + cfg.GetString("backend.sku_details_path"),
		Acquire:         base + cfg.GetString("backend.acquire_path"),
		Consume:         base + cfg.GetString("backend.consume_path"),
		Acknowledge:     base + cfg.GetString("backend.acknowledge_path"),
		PurchaseHistory: base + cfg.GetString("backend.history_path"),
		AuthProof:       base + cfg.GetString("backend.auth_proof_path"),
	}
}
