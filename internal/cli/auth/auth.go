package auth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/zalando/go-keyring"
)

const (
	service = "shopfront-cli"
)

// ErrNotAuthenticated is returned when no token is stored for a gateway
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'shopfront login' first")

// getKeyringKey returns a unique key for storing tokens per gateway host
func getKeyringKey(gateway string) string {
	host := gateway
	if u, err := url.Parse(gateway); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("token-%s", host)
}

// SaveToken persists the bearer token securely in the OS keychain/credential manager
func SaveToken(gateway, token string) error {
	key := getKeyringKey(gateway)
	if err := keyring.Set(service, key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the bearer token from the OS keychain/credential manager
func LoadToken(gateway string) (string, error) {
	key := getKeyringKey(gateway)
	token, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the bearer token from the OS keychain/credential manager
func DeleteToken(gateway string) error {
	key := getKeyringKey(gateway)
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
