package auth

import (
	"context"
	"encoding/json"
	"strings"
)

// RoleAdmin is the only role the gateway and clients treat specially.
// Every other role string is a customer.
const (
	RoleAdmin   = "admin"
	DefaultRole = "user"
)

// Profile is the user snapshot carried in the readable cookie and in local storage
type Profile struct {
	ID    any    `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
}

// IsAdmin reports whether the snapshot claims the admin role.
// The comparison is exact and case-sensitive; a nil profile is a guest.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// IDString renders the user id for logs and revocation records
func (p *Profile) IDString() string {
	if p == nil || p.ID == nil {
		return ""
	}
	switch v := p.ID.(type) {
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// LandingPath returns where a freshly authenticated user is sent.
// Unlike IsAdmin the role is matched case-insensitively here.
func LandingPath(p *Profile) string {
	if p != nil && strings.EqualFold(p.Role, RoleAdmin) {
		return "/products"
	}
	return "/dashboard"
}

type profileKey struct{}

// WithProfile stores the resolved profile in ctx
func WithProfile(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, profileKey{}, p)
}

// ProfileFromContext returns the profile resolved by the edge gate, if any
func ProfileFromContext(ctx context.Context) (*Profile, bool) {
	p, ok := ctx.Value(profileKey{}).(*Profile)
	return p, ok && p != nil
}
