package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie names shared with the browser frontend
const (
	TokenCookie = "token"
	UserCookie  = "user"
)

const bearerPrefix = "Bearer "

// CookiePolicy applies the session cookie attributes
type CookiePolicy struct {
	MaxAge time.Duration
	Secure bool
}

// SetSessionCookies writes the httpOnly token cookie and the readable user cookie
func (p CookiePolicy) SetSessionCookies(w http.ResponseWriter, token string, profile *Profile) error {
	http.SetCookie(w, p.cookie(TokenCookie, token, true))
	return p.SetProfileCookie(w, profile)
}

// SetProfileCookie writes only the readable user cookie
func (p CookiePolicy) SetProfileCookie(w http.ResponseWriter, profile *Profile) error {
	value, err := EncodeProfile(profile)
	if err != nil {
		return err
	}
	http.SetCookie(w, p.cookie(UserCookie, value, false))
	return nil
}

// ClearToken expires the token cookie
func (p CookiePolicy) ClearToken(w http.ResponseWriter) {
	http.SetCookie(w, p.expired(TokenCookie, true))
}

// ClearSessionCookies expires both session cookies
func (p CookiePolicy) ClearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, p.expired(TokenCookie, true))
	http.SetCookie(w, p.expired(UserCookie, false))
}

func (p CookiePolicy) cookie(name, value string, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(p.MaxAge.Seconds()),
		HttpOnly: httpOnly,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (p CookiePolicy) expired(name string, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: httpOnly,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ReadToken returns the token cookie value
func ReadToken(r *http.Request) (string, error) {
	c, err := r.Cookie(TokenCookie)
	if err != nil || c.Value == "" {
		return "", ErrMissingToken
	}
	return c.Value, nil
}

// ReadProfile decodes the readable user cookie, returning nil when absent or unreadable
func ReadProfile(r *http.Request) *Profile {
	c, err := r.Cookie(UserCookie)
	if err != nil {
		return nil
	}
	p, err := DecodeProfile(c.Value)
	if err != nil {
		return nil
	}
	return p
}

// EncodeProfile serializes a profile into a cookie-safe, URL-encoded JSON value
func EncodeProfile(p *Profile) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil profile")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	return url.PathEscape(string(raw)), nil
}

// DecodeProfile parses a URL-encoded JSON profile as written by EncodeProfile or a browser
func DecodeProfile(raw string) (*Profile, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty profile")
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unescape profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal([]byte(decoded), &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

// BearerFromHeader strips the Bearer prefix from an Authorization header
func BearerFromHeader(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}

// BearerHeader formats token as an Authorization header value
func BearerHeader(token string) string {
	return bearerPrefix + token
}
