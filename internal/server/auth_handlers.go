package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/backend"
	"github.com/shopfront-dev/shopfront/internal/logger"
	"github.com/shopfront-dev/shopfront/internal/metrics"
)

// AuthRequest is the credential payload accepted by POST /api/auth.
// The whole body is relayed, so extra registration fields pass through.
type AuthRequest struct {
	Type     string `json:"type"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// AuthResponse is the backend's answer to a successful login or registration
type AuthResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// SessionResponse describes the caller's session as the gateway sees it
type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *auth.Profile `json:"user"`
	IsAdmin       bool          `json:"isAdmin"`
}

// @Summary Auth endpoint usage
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth [get]
func (s *Server) authInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":          "Auth API endpoint",
		"availableMethods": []string{"POST"},
		"instructions":     "Send POST request with {type: 'login'|'register', email, password}",
	})
}

// @Summary Log in or register
// @Description Relays credentials to the backend and sets the token and user cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param request body AuthRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth [post]
func (s *Server) authenticate(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, endpoint := "/register", "auth.register"
	if t, _ := body["type"].(string); t == "login" {
		path, endpoint = "/login", "auth.login"
	}

	reqBody, err := backend.JSONBody(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method:      http.MethodPost,
		Path:        path,
		Endpoint:    endpoint,
		ContentType: "application/json",
		Body:        reqBody,
	})
	if err != nil {
		logger.FromContext(c.Request.Context()).Error().Err(err).Str("endpoint", endpoint).Msg("Backend unreachable")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !resp.OK() {
		message := resp.ErrorField()
		if message == "" {
			message = "Authentication failed"
		}
		c.JSON(resp.StatusCode, gin.H{"error": message})
		return
	}

	var data AuthResponse
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid response from backend"})
		return
	}

	var profile auth.Profile
	if len(data.User) > 0 {
		if err := json.Unmarshal(data.User, &profile); err != nil {
			logger.FromContext(c.Request.Context()).Warn().Err(err).Msg("Backend user payload is not an object")
		}
	}

	if data.Token != "" {
		if err := s.cookies.SetSessionCookies(c.Writer, data.Token, &profile); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", resp.Body)
}

// @Summary Log out
// @Description Revokes the current token and clears both session cookies
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	// Cookies go regardless of what happens to the revocation
	s.cookies.ClearSessionCookies(c.Writer)

	token := s.presentedToken(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		return
	}

	fallback := time.Now().Add(s.config.Session.MaxAge)
	claims, err := s.decoder.Decode(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		return
	}

	var userID string
	if err == nil {
		userID = claims.Profile().IDString()
	}

	if err := s.registry.Revoke(c.Request.Context(), token, userID, claims.ExpiryOr(fallback)); err != nil {
		log.Error().Err(err).Msg("Failed to revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke session"})
		return
	}
	metrics.Revocations.Inc()

	log.Info().Str("user_id", userID).Msg("Session revoked")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// @Summary Current session
// @Description Resolves the caller's profile from the token, never from client-readable state
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /api/auth/session [get]
func (s *Server) currentSession(c *gin.Context) {
	anonymous := SessionResponse{}

	token := s.presentedToken(c)
	if token == "" {
		c.JSON(http.StatusOK, anonymous)
		return
	}

	claims, err := s.decoder.Decode(token)
	if err != nil {
		c.JSON(http.StatusOK, anonymous)
		return
	}

	revoked, err := s.registry.IsRevoked(c.Request.Context(), token)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg("Revocation lookup failed")
	}
	if revoked {
		c.JSON(http.StatusOK, anonymous)
		return
	}

	profile := claims.Profile()
	c.JSON(http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          profile,
		IsAdmin:       profile.IsAdmin(),
	})
}

// presentedToken returns the bearer token from the Authorization header or the token cookie
func (s *Server) presentedToken(c *gin.Context) string {
	if token, ok := auth.BearerFromHeader(c.GetHeader("Authorization")); ok {
		return token
	}
	token, err := auth.ReadToken(c.Request)
	if err != nil {
		return ""
	}
	return token
}
