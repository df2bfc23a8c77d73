package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/catalog"
)

// ErrUnauthorized is returned when the gateway answers 401
var ErrUnauthorized = errors.New("session is no longer valid")

// APIError is a non-2xx gateway answer
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match ErrUnauthorized on 401 answers
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Client represents an HTTP client for the shopfront gateway API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client
func New(gatewayURL string) *Client {
	return &Client{
		baseURL: gatewayURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// AuthRequest represents the login/register request body
type AuthRequest struct {
	Type     string `json:"type" validate:"oneof=login register"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name,omitempty"`
}

// AuthResult carries everything the gateway hands back on login
type AuthResult struct {
	Token      string          `json:"token"`
	User       json.RawMessage `json:"user"`
	UserCookie string          `json:"-"` // raw readable cookie value, if the gateway set one
}

// SessionInfo is the gateway's view of the current token
type SessionInfo struct {
	Authenticated bool          `json:"authenticated"`
	User          *auth.Profile `json:"user"`
	IsAdmin       bool          `json:"isAdmin"`
}

// Authenticate logs in or registers through POST /api/auth
func (c *Client) Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/auth", "", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == auth.UserCookie {
			result.UserCookie = ck.Value
		}
	}

	return &result, nil
}

// Logout asks the gateway to revoke token
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", token, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Session resolves token server-side
func (c *Client) Session(ctx context.Context, token string) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.getJSON(ctx, "/api/auth/session", token, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListProducts returns every product
func (c *Client) ListProducts(ctx context.Context, token string) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.getJSON(ctx, "/api/products", token, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts relays q, category, minPrice and maxPrice when set
func (c *Client) SearchProducts(ctx context.Context, token string, params url.Values) ([]catalog.Product, error) {
	path := "/api/products/search"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var products []catalog.Product
	if err := c.getJSON(ctx, path, token, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product
func (c *Client) GetProduct(ctx context.Context, token, id string) (*catalog.Product, error) {
	var product catalog.Product
	if err := c.getJSON(ctx, "/api/products/"+url.PathEscape(id), token, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a product. With imagePath set the product is sent as multipart form data.
func (c *Client) CreateProduct(ctx context.Context, token string, product catalog.Product, imagePath string) (*catalog.Product, error) {
	return c.sendProduct(ctx, http.MethodPost, "/api/products", token, product, imagePath)
}

// UpdateProduct replaces the fields of product id
func (c *Client) UpdateProduct(ctx context.Context, token, id string, product catalog.Product, imagePath string) (*catalog.Product, error) {
	return c.sendProduct(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), token, product, imagePath)
}

// DeleteProduct removes product id
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), token, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) sendProduct(ctx context.Context, method, path, token string, product catalog.Product, imagePath string) (*catalog.Product, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if imagePath != "" {
		body, contentType, err = productForm(product, imagePath)
	} else {
		var raw []byte
		raw, err = json.Marshal(product)
		body, contentType = bytes.NewReader(raw), "application/json"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode product: %w", err)
	}

	resp, err := c.do(ctx, method, path, token, contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var saved catalog.Product
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &saved, nil
}

// productForm encodes product as multipart form data with the image file attached
func productForm(product catalog.Product, imagePath string) (io.Reader, string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       product.Title,
		"price":       strconv.FormatFloat(product.Price, 'f', -1, 64),
		"description": product.Description,
		"category":    product.Category,
	}
	for _, name := range []string{"title", "price", "description", "category"} {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}

	part, err := w.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, token, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", auth.BearerHeader(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// checkStatus turns a non-2xx answer into an *APIError carrying the gateway's message
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	message := string(raw)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		message = body.Error
		if body.Details != "" {
			message += ": " + body.Details
		}
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}
