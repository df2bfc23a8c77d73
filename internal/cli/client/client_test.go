package client

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopfront-dev/shopfront/internal/catalog"
)

func TestAPIErrorMatchesUnauthorized(t *testing.T) {
	if !errors.Is(&APIError{Status: http.StatusUnauthorized}, ErrUnauthorized) {
		t.Error("401 should match ErrUnauthorized")
	}
	if errors.Is(&APIError{Status: http.StatusForbidden}, ErrUnauthorized) {
		t.Error("403 should not match ErrUnauthorized")
	}
}

func TestCheckStatusMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to update product","details":"Failed to update product: 403 - nope"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetHTTPClient(srv.Client())
	_, err := c.GetProduct(context.Background(), "", "1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != 500 || apiErr.Message != "Failed to update product: Failed to update product: 403 - nope" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestSearchProductsEncodesParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/search" || r.URL.Query().Get("category") != "home & garden" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"title":"Hose","price":20,"category":"home & garden"}]`))
	}))
	defer srv.Close()

	products, err := New(srv.URL).SearchProducts(context.Background(), "", url.Values{"category": {"home & garden"}})
	if err != nil {
		t.Fatalf("SearchProducts failed: %v", err)
	}
	if len(products) != 1 || products[0].Title != "Hose" {
		t.Errorf("unexpected products: %+v", products)
	}
}

func TestCreateProductMultipart(t *testing.T) {
	image := filepath.Join(t.TempDir(), "lamp.png")
	if err := os.WriteFile(image, []byte("png-bytes"), 0600); err != nil {
		t.Fatal(err)
	}

	type received struct {
		title, price, filename, content string
	}
	got := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var rec received
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			switch part.FormName() {
			case "title":
				rec.title = string(data)
			case "price":
				rec.price = string(data)
			case "image":
				rec.filename, rec.content = part.FileName(), string(data)
			}
		}
		got <- rec
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":5,"title":"Lamp","price":12.5}`))
	}))
	defer srv.Close()

	created, err := New(srv.URL).CreateProduct(context.Background(), "tok", catalog.Product{Title: "Lamp", Price: 12.5}, image)
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if created.Title != "Lamp" {
		t.Errorf("unexpected product: %+v", created)
	}

	rec := <-got
	if rec.title != "Lamp" || rec.price != "12.5" || rec.filename != "lamp.png" || rec.content != "png-bytes" {
		t.Errorf("unexpected form: %+v", rec)
	}
}

func TestAuthenticateCapturesUserCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "tok", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "user", Value: "%7B%22role%22%3A%22admin%22%7D"})
		_, _ = w.Write([]byte(`{"token":"tok","user":{"role":"admin"}}`))
	}))
	defer srv.Close()

	result, err := New(srv.URL).Authenticate(context.Background(), AuthRequest{Type: "login", Email: "a@b.co", Password: "secret1"})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result.Token != "tok" || result.UserCookie != "%7B%22role%22%3A%22admin%22%7D" {
		t.Errorf("unexpected result: %+v", result)
	}
}
