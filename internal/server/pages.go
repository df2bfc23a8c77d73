package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopfront-dev/shopfront/internal/auth"
)

// servePage handles every path without an API route. With a web root configured it
// serves the built frontend, falling back to index.html for client-side routes.
func (s *Server) servePage(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	root := s.config.Server.WebRoot
	if root == "" {
		page := gin.H{"path": c.Request.URL.Path}
		if profile, ok := auth.ProfileFromContext(c.Request.Context()); ok {
			page["user"] = profile
			page["isAdmin"] = profile.IsAdmin()
		}
		c.JSON(http.StatusOK, page)
		return
	}

	clean := filepath.Clean("/" + c.Request.URL.Path)
	candidate := filepath.Join(root, filepath.FromSlash(clean))
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		c.File(candidate)
		return
	}

	index := filepath.Join(root, "index.html")
	if _, err := os.Stat(index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.File(index)
}
