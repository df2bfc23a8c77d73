package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopfront-dev/shopfront/internal/backend"
	"github.com/shopfront-dev/shopfront/internal/logger"
)

// searchParams are the only query parameters relayed by the search route
var searchParams = []string{"q", "category", "minPrice", "maxPrice"}

var errInvalidUpstreamJSON = errors.New("backend returned invalid JSON")

// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {array} catalog.Product
// @Failure 500 {object} map[string]interface{}
// @Router /api/products [get]
func (s *Server) listProducts(c *gin.Context) {
	s.fetchProducts(c, nil, "products.list")
}

// @Summary Search products
// @Description Relays q, category, minPrice and maxPrice when non-empty
// @Tags products
// @Produce json
// @Param q query string false "Text query"
// @Param category query string false "Category"
// @Param minPrice query string false "Minimum price"
// @Param maxPrice query string false "Maximum price"
// @Success 200 {array} catalog.Product
// @Failure 500 {object} map[string]interface{}
// @Router /api/products/search [get]
func (s *Server) searchProducts(c *gin.Context) {
	query := url.Values{}
	for _, key := range searchParams {
		if v := c.Query(key); v != "" {
			query.Set(key, v)
		}
	}
	s.fetchProducts(c, query, "products.search")
}

func (s *Server) fetchProducts(c *gin.Context, query url.Values, endpoint string) {
	authz, ok := s.forwardCredential(c)
	if !ok {
		return
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method:        http.MethodGet,
		Path:          "/products",
		Endpoint:      endpoint,
		Query:         query,
		Authorization: authz,
	})
	if err != nil {
		s.upstreamFailed(c, err, gin.H{"error": err.Error()})
		return
	}
	if !resp.OK() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to fetch products: %d", resp.StatusCode)})
		return
	}
	if !json.Valid(resp.Body) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInvalidUpstreamJSON.Error()})
		return
	}
	relay(c, http.StatusOK, resp.Body)
}

// @Summary Create product
// @Description Accepts JSON or multipart/form-data; multipart bodies are streamed unchanged
// @Tags products
// @Accept json
// @Accept mpfd
// @Produce json
// @Success 201 {object} catalog.Product
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/products [post]
func (s *Server) createProduct(c *gin.Context) {
	authz, ok := s.forwardCredential(c)
	if !ok {
		return
	}

	body, contentType, err := forwardBody(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method:        http.MethodPost,
		Path:          "/products",
		Endpoint:      "products.create",
		Authorization: authz,
		ContentType:   contentType,
		Body:          body,
	})
	if err != nil {
		s.upstreamFailed(c, err, gin.H{"error": err.Error()})
		return
	}
	if !resp.OK() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Backend error: %d - %s", resp.StatusCode, resp.Text()),
		})
		return
	}
	if !json.Valid(resp.Body) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInvalidUpstreamJSON.Error()})
		return
	}
	relay(c, http.StatusCreated, resp.Body)
}

// @Summary Get product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} catalog.Product
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id := c.Param("id")
	authz, ok := s.forwardCredential(c)
	if !ok {
		return
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method:        http.MethodGet,
		Path:          productPath(id),
		Endpoint:      "products.get",
		Authorization: authz,
	})
	if err != nil {
		s.upstreamFailed(c, err, internalError(err))
		return
	}
	if !resp.OK() {
		c.JSON(resp.StatusCode, gin.H{
			"error":      "Product not found",
			"id":         id,
			"status":     resp.StatusCode,
			"statusText": resp.StatusText,
		})
		return
	}
	if !json.Valid(resp.Body) {
		c.JSON(http.StatusInternalServerError, internalError(errInvalidUpstreamJSON))
		return
	}
	relay(c, http.StatusOK, resp.Body)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Accept mpfd
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} catalog.Product
// @Failure 500 {object} map[string]interface{}
// @Router /api/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id := c.Param("id")
	authz, ok := s.forwardCredential(c)
	if !ok {
		return
	}

	updateFailed := func(details string) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update product",
			"details": details,
		})
	}

	body, contentType, err := forwardBody(c)
	if err != nil {
		updateFailed(err.Error())
		return
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method:        http.MethodPut,
		Path:          productPath(id),
		Endpoint:      "products.update",
		Authorization: authz,
		ContentType:   contentType,
		Body:          body,
	})
	if err != nil {
		logger.FromContext(c.Request.Context()).Error().Err(err).Str("id", id).Msg("Backend unreachable")
		updateFailed(err.Error())
		return
	}
	if !resp.OK() {
		updateFailed(fmt.Sprintf("Failed to update product: %d - %s", resp.StatusCode, resp.Text()))
		return
	}
	if !json.Valid(resp.Body) {
		updateFailed(errInvalidUpstreamJSON.Error())
		return
	}
	relay(c, http.StatusOK, resp.Body)
}

// @Summary Delete product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	authz, ok := s.forwardCredential(c)
	if !ok {
		return
	}

	resp, err := s.backend.Do(c.Request.Context(), backend.Request{
		Method:        http.MethodDelete,
		Path:          productPath(id),
		Endpoint:      "products.delete",
		Authorization: authz,
	})
	if err != nil {
		s.upstreamFailed(c, err, internalError(err))
		return
	}
	if !resp.OK() {
		c.JSON(resp.StatusCode, gin.H{
			"error":   "Failed to delete product",
			"details": resp.Text(),
			"id":      id,
			"status":  resp.StatusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
		"id":      id,
	})
}

// forwardBody prepares the upstream body: multipart is streamed with its boundary intact,
// anything else is parsed and re-encoded as JSON
func forwardBody(c *gin.Context) (io.Reader, string, error) {
	contentType := c.GetHeader("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		return c.Request.Body, contentType, nil
	}

	var payload any
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("invalid JSON body: %w", err)
	}
	body, err := backend.JSONBody(payload)
	if err != nil {
		return nil, "", err
	}
	return body, "application/json", nil
}

func (s *Server) upstreamFailed(c *gin.Context, err error, body gin.H) {
	logger.FromContext(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("Backend unreachable")
	c.JSON(http.StatusInternalServerError, body)
}

func internalError(err error) gin.H {
	return gin.H{"error": "Internal server error", "details": err.Error()}
}

func productPath(id string) string {
	return "/products/" + url.PathEscape(id)
}

func relay(c *gin.Context, status int, body []byte) {
	c.Data(status, "application/json; charset=utf-8", body)
}
