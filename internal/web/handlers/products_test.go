package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/visual-search/internal/catalog"
	"github.com/kozaktomas/visual-search/internal/logging"
)

func newTestProductsHandler(t *testing.T) (*ProductsHandler, *catalog.Service) {
	t.Helper()
	svc, _ := newTestService(t)
	return NewProductsHandler(testConfig(), svc, logging.Noop()), svc
}

func addTestProduct(t *testing.T, svc *catalog.Service, name, category string, reversed bool) string {
	t.Helper()
	p, err := svc.AddProduct(context.Background(), catalog.NewProduct{
		Name:      name,
		Category:  category,
		ImageURL:  "https://example.com/" + name + ".png",
		ImageData: gradientPNG(t, reversed),
	})
	if err != nil {
		t.Fatalf("AddProduct failed: %v", err)
	}
	return p.ID
}

func TestProductsHandler_Upload(t *testing.T) {
	handler, svc := newTestProductsHandler(t)

	req := multipartRequest(t, http.MethodPost, "/api/upload-product",
		map[string]string{"name": " Desk Lamp ", "category": "Home"}, pngPart(gradientPNG(t, false)))
	recorder := httptest.NewRecorder()

	handler.Upload(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")

	var result struct {
		Message string          `json:"message"`
		Product ProductResponse `json:"product"`
	}
	parseJSONResponse(t, recorder, &result)

	if result.Message != "product uploaded successfully" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if result.Product.ID == "" {
		t.Error("expected a product id")
	}
	if result.Product.Name != "Desk Lamp" || result.Product.Category != "Home" {
		t.Errorf("unexpected product %+v", result.Product)
	}
	if !strings.HasPrefix(result.Product.ImageURL, "data:image/png;base64,") {
		t.Errorf("expected a PNG data URL, got %.40s", result.Product.ImageURL)
	}

	stored, err := svc.GetProduct(context.Background(), result.Product.ID)
	if err != nil || stored == nil {
		t.Fatalf("uploaded product not stored: %v", err)
	}
	if stored.Fingerprint.Len() != 64 {
		t.Errorf("expected a 64-bit fingerprint, got %d", stored.Fingerprint.Len())
	}
}

func TestProductsHandler_UploadRejects(t *testing.T) {
	png := gradientPNG(t, false)

	tests := []struct {
		name        string
		fields      map[string]string
		file        *filePart
		wantMessage string
	}{
		{
			name:        "missing name",
			fields:      map[string]string{"category": "Home"},
			file:        pngPart(png),
			wantMessage: "name and category are required",
		},
		{
			name:        "blank category",
			fields:      map[string]string{"name": "Lamp", "category": "   "},
			file:        pngPart(png),
			wantMessage: "name and category are required",
		},
		{
			name:        "missing image",
			fields:      map[string]string{"name": "Lamp", "category": "Home"},
			wantMessage: errNoImage,
		},
		{
			name:        "not an image",
			fields:      map[string]string{"name": "Lamp", "category": "Home"},
			file:        &filePart{field: "image", filename: "a.txt", contentType: "text/plain", data: []byte("lamp")},
			wantMessage: errNotAnImage,
		},
		{
			name:        "name too long",
			fields:      map[string]string{"name": strings.Repeat("x", 256), "category": "Home"},
			file:        pngPart(png),
			wantMessage: "invalid product: name longer than 255 characters",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, svc := newTestProductsHandler(t)

			req := multipartRequest(t, http.MethodPost, "/api/upload-product", tc.fields, tc.file)
			recorder := httptest.NewRecorder()

			handler.Upload(recorder, req)

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tc.wantMessage)

			if n, _ := svc.Count(context.Background()); n != 0 {
				t.Errorf("rejected upload stored %d products", n)
			}
		})
	}
}

func TestProductsHandler_UploadUndecodableImage(t *testing.T) {
	handler, _ := newTestProductsHandler(t)

	req := multipartRequest(t, http.MethodPost, "/api/upload-product",
		map[string]string{"name": "Lamp", "category": "Home"},
		&filePart{field: "image", filename: "a.png", contentType: "image/png", data: []byte("not really a png")})
	recorder := httptest.NewRecorder()

	handler.Upload(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestProductsHandler_List(t *testing.T) {
	handler, svc := newTestProductsHandler(t)
	addTestProduct(t, svc, "lamp", "Home", false)
	addTestProduct(t, svc, "poster", "Posters", true)
	addTestProduct(t, svc, "vase", "home", false)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "", 3},
		{"category", "?category=Home", 2},
		{"category case insensitive", "?category=POSTERS", 1},
		{"unknown category", "?category=garden", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products"+tc.query, nil)
			recorder := httptest.NewRecorder()

			handler.List(recorder, req)

			assertStatusCode(t, recorder, http.StatusOK)

			var result []ProductResponse
			parseJSONResponse(t, recorder, &result)
			if len(result) != tc.want {
				t.Errorf("expected %d products, got %d", tc.want, len(result))
			}
		})
	}
}

func TestProductsHandler_ListStoreError(t *testing.T) {
	svc, store := newTestService(t)
	store.ListError = errors.New("connection refused")
	handler := NewProductsHandler(testConfig(), svc, logging.Noop())

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to fetch products")
}

func TestProductsHandler_Get(t *testing.T) {
	handler, svc := newTestProductsHandler(t)
	id := addTestProduct(t, svc, "lamp", "Home", false)

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/product/"+id, nil), map[string]string{"id": id})
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result ProductResponse
	parseJSONResponse(t, recorder, &result)
	if result.ID != id || result.Name != "lamp" {
		t.Errorf("unexpected product %+v", result)
	}
	if result.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestProductsHandler_GetNotFound(t *testing.T) {
	handler, _ := newTestProductsHandler(t)

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/product/missing", nil), map[string]string{"id": "missing"})
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "product not found")
}

func TestProductsHandler_Delete(t *testing.T) {
	handler, svc := newTestProductsHandler(t)
	id := addTestProduct(t, svc, "lamp", "Home", false)

	req := requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/product/"+id, nil), map[string]string{"id": id})
	recorder := httptest.NewRecorder()

	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["message"] != "product deleted successfully" {
		t.Errorf("unexpected message %q", result["message"])
	}

	// Second delete finds nothing.
	req = requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/product/"+id, nil), map[string]string{"id": id})
	recorder = httptest.NewRecorder()

	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "product not found")
}

func TestProductsHandler_Categories(t *testing.T) {
	handler, svc := newTestProductsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	recorder := httptest.NewRecorder()
	handler.Categories(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if body := strings.TrimSpace(recorder.Body.String()); body != `{"categories":[]}` {
		t.Errorf("expected empty categories, got %s", body)
	}

	addTestProduct(t, svc, "lamp", "Home", false)
	addTestProduct(t, svc, "vase", "Home", false)
	addTestProduct(t, svc, "poster", "Posters", true)

	recorder = httptest.NewRecorder()
	handler.Categories(recorder, req)

	var result struct {
		Categories []string `json:"categories"`
	}
	parseJSONResponse(t, recorder, &result)
	if len(result.Categories) != 2 {
		t.Errorf("expected 2 categories, got %v", result.Categories)
	}
}
