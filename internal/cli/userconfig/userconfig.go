package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	configDirName  = "shopfront"
	configFileName = "config.json"

	// DefaultGateway is used when neither flag, environment nor config name one
	DefaultGateway = "http://localhost:3000"
)

// UserConfig represents the user's local configuration stored in ~/.config/shopfront/config.json
type UserConfig struct {
	GatewayURL string `json:"gateway_url"`
}

// Dir returns the shopfront config directory
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetGateway updates the default gateway and saves the config
func SetGateway(gateway string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.GatewayURL = normalize(gateway)
	return Save(cfg)
}

// ResolveGateway picks the gateway URL: flag, then SHOPFRONT_URL, then the config file, then the default
func ResolveGateway(flag string) (string, error) {
	if flag != "" {
		return normalize(flag), nil
	}
	if env := os.Getenv("SHOPFRONT_URL"); env != "" {
		return normalize(env), nil
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.GatewayURL != "" {
		return normalize(cfg.GatewayURL), nil
	}
	return DefaultGateway, nil
}

func normalize(gateway string) string {
	gateway = strings.TrimRight(strings.TrimSpace(gateway), "/")
	if !strings.Contains(gateway, "://") {
		gateway = "http://" + gateway
	}
	return gateway
}
