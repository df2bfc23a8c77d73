package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("missing token")
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")
)

// Claims is the user snapshot read from a bearer token's payload.
// Older backends emit user_id, newer ones userId; both are accepted.
// Fields are read loosely: a claim of an unexpected JSON type is stringified, never rejected.
type Claims struct {
	UserID    any
	Email     string
	Role      string
	Name      string
	ExpiresAt *time.Time
}

// claimsFromMap pulls the known claims out of a decoded payload object
func claimsFromMap(m map[string]any) *Claims {
	c := &Claims{}
	if present(m["userId"]) {
		c.UserID = m["userId"]
	} else if present(m["user_id"]) {
		c.UserID = m["user_id"]
	}
	c.Email = looseString(m["email"])
	c.Role = looseString(m["role"])
	c.Name = looseString(m["name"])
	if exp, ok := m["exp"].(float64); ok {
		t := time.Unix(int64(exp), 0)
		c.ExpiresAt = &t
	}
	return c
}

// Profile derives the readable user snapshot from the claims
func (c *Claims) Profile() *Profile {
	p := &Profile{
		ID:    c.UserID,
		Email: c.Email,
		Role:  c.Role,
		Name:  c.Name,
	}
	if p.Role == "" {
		p.Role = DefaultRole
	}
	if p.Name == "" && c.Email != "" {
		p.Name, _, _ = strings.Cut(c.Email, "@")
	}
	return p
}

// present mirrors a truthiness check on a decoded JSON value
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}

// looseString renders a truthy claim as text; falsy claims become ""
func looseString(v any) string {
	if !present(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

// Decoder turns a bearer token into claims. Without a secret it only decodes the
// payload segment; with one it also verifies the HS256 signature.
type Decoder struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

// NewDecoder creates a decoder; an empty secret disables signature checks
func NewDecoder(secret string) *Decoder {
	return &Decoder{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithPaddingAllowed()),
		now:    time.Now,
	}
}

// Verifies reports whether the decoder checks signatures
func (d *Decoder) Verifies() bool {
	return len(d.secret) > 0
}

// Decode extracts the claims from token
func (d *Decoder) Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if d.Verifies() {
		return d.verify(token)
	}

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(segments))
	}

	payload, err := d.parser.DecodeSegment(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedToken)
	}

	claims := claimsFromMap(m)
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(d.now()) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

func (d *Decoder) verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.secret, nil
	}, jwt.WithTimeFunc(d.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	return claimsFromMap(m), nil
}

// ExpiryOr returns the token's exp claim, or fallback when it carries none
func (c *Claims) ExpiryOr(fallback time.Time) time.Time {
	if c != nil && c.ExpiresAt != nil {
		return *c.ExpiresAt
	}
	return fallback
}
