package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopfront-dev/shopfront/internal/auth"
	cliauth "github.com/shopfront-dev/shopfront/internal/cli/auth"
)

// ErrAdminRequired is returned by RequireAdmin for guests and customers
var ErrAdminRequired = errors.New("this command requires an admin account")

// Context is the single read/write path for the CLI's session state.
// The root command builds one and hands it to every command.
type Context struct {
	Gateway string
	Tokens  cliauth.TokenStore
	Store   Store

	loaded bool
	local  *LocalSession
}

// NewContext creates a session context for gateway
func NewContext(gateway string, tokens cliauth.TokenStore, store Store) *Context {
	return &Context{Gateway: gateway, Tokens: tokens, Store: store}
}

func (c *Context) load() *LocalSession {
	if !c.loaded {
		c.loaded = true
		s, err := c.Store.Load()
		if err == nil && s != nil && s.Gateway == c.Gateway {
			c.local = s
		}
	}
	return c.local
}

// Token returns the stored bearer token or cliauth.ErrNotAuthenticated
func (c *Context) Token() (string, error) {
	return c.Tokens.LoadToken(c.Gateway)
}

// OptionalToken returns the token or "" for guests
func (c *Context) OptionalToken() string {
	token, err := c.Token()
	if err != nil {
		return ""
	}
	return token
}

// Profile resolves the current user snapshot, nil for a guest
func (c *Context) Profile() *auth.Profile {
	s := c.load()
	if s == nil {
		return nil
	}
	return Resolve(s.UserCookie, s.User)
}

// IsAdmin applies the role gate to the current snapshot
func (c *Context) IsAdmin() bool {
	return IsAdmin(c.Profile())
}

// RequireAdmin hides admin commands from customers. The backend still authorizes every call.
func (c *Context) RequireAdmin() error {
	if _, err := c.Token(); err != nil {
		return err
	}
	if !c.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// Establish replaces any previous session with a fresh login
func (c *Context) Establish(token string, user json.RawMessage, userCookie string) error {
	if err := c.Clear(); err != nil {
		return err
	}

	if err := c.Tokens.SaveToken(c.Gateway, token); err != nil {
		return err
	}

	s := &LocalSession{
		Gateway:    c.Gateway,
		User:       string(user),
		UserCookie: userCookie,
		SavedAt:    time.Now().UTC(),
	}
	if err := c.Store.Save(s); err != nil {
		return err
	}

	c.local, c.loaded = s, true
	return nil
}

// Clear drops the token and the user snapshot. Both are attempted even if one fails.
func (c *Context) Clear() error {
	tokenErr := c.Tokens.DeleteToken(c.Gateway)
	storeErr := c.Store.Clear()
	c.local, c.loaded = nil, true

	if tokenErr != nil || storeErr != nil {
		return fmt.Errorf("failed to clear local session: %w", errors.Join(tokenErr, storeErr))
	}
	return nil
}
