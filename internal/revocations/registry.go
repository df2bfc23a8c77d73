// Package revocations records logged-out bearer tokens so that every gateway
// path refuses them, regardless of which cookie or local copy still holds them.
package revocations

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/shopfront-dev/shopfront/internal/assert"
	"github.com/shopfront-dev/shopfront/internal/config"
)

// Registry is the server-side record of revoked tokens
type Registry interface {
	// Revoke marks token as logged out until expiresAt
	Revoke(ctx context.Context, token, userID string, expiresAt time.Time) error
	// IsRevoked reports whether token was revoked and has not expired yet
	IsRevoked(ctx context.Context, token string) (bool, error)
	// Purge drops entries that expired before now and returns how many were removed
	Purge(ctx context.Context, now time.Time) (int64, error)
	Close() error
}

// fingerprintLength matches the fingerprint column width
const fingerprintLength = 2 * blake2b.Size256

// Fingerprint hashes a token for storage
func Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	fp := hex.EncodeToString(sum[:])
	assert.Length("fingerprint", fp, fingerprintLength)
	return fp
}

// Open builds the registry selected by the store configuration
func Open(cfg *config.Config, log zerolog.Logger) (Registry, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory revocation registry - revocations are lost on restart")
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg.Redis.Address)
	case "sqlite", "postgres":
		return NewGorm(cfg.Store, log)
	default:
		return nil, fmt.Errorf("unknown session store driver %q", cfg.Store.Driver)
	}
}
