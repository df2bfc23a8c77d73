package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/logger"
	"github.com/shopfront-dev/shopfront/internal/metrics"
	"github.com/shopfront-dev/shopfront/internal/revocations"
)

// Identity headers the gate forwards to page handlers. Client-supplied values are always dropped.
const (
	headerUserID    = "X-User-Id"
	headerUserRole  = "X-User-Role"
	headerUserEmail = "X-User-Email"
)

// Gate hydrates the readable user cookie on protected page navigations
type Gate struct {
	Prefixes  []string
	LoginPath string
	Decoder   *auth.Decoder
	Registry  revocations.Registry
	Cookies   auth.CookiePolicy
	Logger    zerolog.Logger
}

// Protects reports whether path is a protected prefix or lies below one
func (g *Gate) Protects(path string) bool {
	for _, prefix := range g.Prefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Handler returns the gin middleware
func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del(headerUserID)
		c.Request.Header.Del(headerUserRole)
		c.Request.Header.Del(headerUserEmail)

		if !g.Protects(c.Request.URL.Path) {
			c.Next()
			return
		}

		log := logger.FromContext(c.Request.Context())

		token, err := auth.ReadToken(c.Request)
		if err != nil {
			metrics.GateDecisions.WithLabelValues("missing").Inc()
			g.redirect(c)
			return
		}

		claims, err := g.Decoder.Decode(token)
		if err != nil {
			outcome := "malformed"
			if errors.Is(err, auth.ErrTokenExpired) {
				outcome = "expired"
			}
			metrics.GateDecisions.WithLabelValues(outcome).Inc()
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Rejecting session token")
			g.Cookies.ClearToken(c.Writer)
			g.redirect(c)
			return
		}

		if g.revoked(c, token, log) {
			metrics.GateDecisions.WithLabelValues("revoked").Inc()
			log.Warn().Str("path", c.Request.URL.Path).Msg("Rejecting revoked session token")
			g.Cookies.ClearSessionCookies(c.Writer)
			g.redirect(c)
			return
		}

		profile := claims.Profile()
		if err := g.Cookies.SetProfileCookie(c.Writer, profile); err != nil {
			log.Error().Err(err).Msg("Failed to encode user cookie")
		}

		c.Request.Header.Set(headerUserID, profile.IDString())
		c.Request.Header.Set(headerUserRole, profile.Role)
		if profile.Email != "" {
			c.Request.Header.Set(headerUserEmail, profile.Email)
		}
		c.Request = c.Request.WithContext(auth.WithProfile(c.Request.Context(), profile))

		metrics.GateDecisions.WithLabelValues("pass").Inc()
		c.Next()
	}
}

// revoked fails open: the backend still validates every token it receives
func (g *Gate) revoked(c *gin.Context, token string, log *zerolog.Logger) bool {
	if g.Registry == nil {
		return false
	}
	revoked, err := g.Registry.IsRevoked(c.Request.Context(), token)
	if err != nil {
		log.Error().Err(err).Msg("Revocation lookup failed")
		return false
	}
	return revoked
}

func (g *Gate) redirect(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, g.LoginPath)
	c.Abort()
}

// authorization picks the credential to forward upstream: the Authorization header
// if present, else the token cookie as a bearer header. Revoked tokens yield ErrTokenRevoked.
func (s *Server) authorization(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	var token string
	if header != "" {
		bearer, ok := auth.BearerFromHeader(header)
		if !ok {
			// non-bearer schemes are forwarded untouched
			return header, nil
		}
		token = bearer
	} else {
		cookieToken, err := auth.ReadToken(c.Request)
		if err != nil {
			return "", nil
		}
		token = cookieToken
		header = auth.BearerHeader(token)
	}

	revoked, err := s.registry.IsRevoked(c.Request.Context(), token)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg("Revocation lookup failed")
		return header, nil
	}
	if revoked {
		return "", auth.ErrTokenRevoked
	}
	return header, nil
}

// forwardCredential resolves the upstream Authorization header or writes a 401 and aborts
func (s *Server) forwardCredential(c *gin.Context) (string, bool) {
	header, err := s.authorization(c)
	if errors.Is(err, auth.ErrTokenRevoked) {
		logger.FromContext(c.Request.Context()).Warn().Str("path", c.Request.URL.Path).Msg("Refusing revoked credential")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session revoked"})
		return "", false
	}
	return header, true
}
