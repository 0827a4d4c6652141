package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/visual-search/internal/catalog"
	"github.com/kozaktomas/visual-search/internal/database"
	"github.com/kozaktomas/visual-search/internal/database/mock"
	"github.com/kozaktomas/visual-search/internal/fingerprint"
	"github.com/kozaktomas/visual-search/internal/logging"
)

func newTestSearchHandler(t *testing.T) (*SearchHandler, *catalog.Service, *mock.MockProductStore) {
	t.Helper()
	svc, store := newTestService(t)
	return NewSearchHandler(testConfig(), svc, logging.Noop()), svc, store
}

func findSimilar(t *testing.T, handler *SearchHandler, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/products/find-similar", fields, pngPart(image))
	recorder := httptest.NewRecorder()
	handler.FindSimilar(recorder, req)
	return recorder
}

func TestSearchHandler_FindSimilar(t *testing.T) {
	handler, svc, _ := newTestSearchHandler(t)
	lampID := addTestProduct(t, svc, "lamp", "Home", false)
	addTestProduct(t, svc, "poster", "Posters", true)

	recorder := findSimilar(t, handler, nil, gradientPNG(t, false))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result FindSimilarResponse
	parseJSONResponse(t, recorder, &result)

	if result.Count != 2 || len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Results))
	}
	if result.Bits != 64 {
		t.Errorf("expected 64 bits, got %d", result.Bits)
	}
	if len(result.QueryHash) != 16 {
		t.Errorf("expected a 16 digit query hash, got %q", result.QueryHash)
	}

	best := result.Results[0]
	if best.ID != lampID || best.Distance != 0 || best.Similarity != 100 {
		t.Errorf("expected exact match first, got %+v", best)
	}
	if best.Name != "lamp" || best.Category != "Home" || best.ImageURL == "" {
		t.Errorf("expected product fields in result, got %+v", best)
	}
	if result.Results[1].Distance <= best.Distance {
		t.Errorf("results not ordered by distance: %+v", result.Results)
	}
}

func TestSearchHandler_FindSimilarOptions(t *testing.T) {
	handler, svc, _ := newTestSearchHandler(t)
	addTestProduct(t, svc, "lamp", "Home", false)
	addTestProduct(t, svc, "vase", "Home", false)
	addTestProduct(t, svc, "poster", "Posters", true)

	tests := []struct {
		name   string
		fields map[string]string
		want   int
	}{
		{"default limit", nil, 3},
		{"limit", map[string]string{"limit": "1"}, 1},
		{"limit above maximum is clamped", map[string]string{"limit": "1000"}, 3},
		{"exact matches only", map[string]string{"max_distance": "0"}, 2},
		{"negative distance disables filter", map[string]string{"max_distance": "-1"}, 3},
		{"category", map[string]string{"category": "posters"}, 1},
		{"category and distance", map[string]string{"category": "Posters", "max_distance": "0"}, 0},
		{"unknown category", map[string]string{"category": "garden"}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := findSimilar(t, handler, tc.fields, gradientPNG(t, false))

			assertStatusCode(t, recorder, http.StatusOK)

			var result FindSimilarResponse
			parseJSONResponse(t, recorder, &result)
			if result.Count != tc.want {
				t.Errorf("expected %d results, got %d", tc.want, result.Count)
			}
			if result.Results == nil {
				t.Error("results should be an empty array, not null")
			}
		})
	}
}

func TestSearchHandler_FindSimilarInvalidParams(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		wantMessage string
	}{
		{"non numeric limit", map[string]string{"limit": "ten"}, "limit must be an integer"},
		{"zero limit", map[string]string{"limit": "0"}, "limit must be at least 1"},
		{"negative limit", map[string]string{"limit": "-3"}, "limit must be at least 1"},
		{"non numeric distance", map[string]string{"max_distance": "close"}, "max_distance must be an integer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, _, _ := newTestSearchHandler(t)

			recorder := findSimilar(t, handler, tc.fields, gradientPNG(t, false))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tc.wantMessage)
		})
	}
}

func TestSearchHandler_FindSimilarEmptyCatalog(t *testing.T) {
	handler, _, _ := newTestSearchHandler(t)

	recorder := findSimilar(t, handler, nil, gradientPNG(t, false))

	assertStatusCode(t, recorder, http.StatusOK)
	if !strings.Contains(recorder.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got %s", recorder.Body.String())
	}
}

func TestSearchHandler_FindSimilarUploadErrors(t *testing.T) {
	handler, _, _ := newTestSearchHandler(t)

	req := multipartRequest(t, http.MethodPost, "/api/products/find-similar", map[string]string{"limit": "5"}, nil)
	recorder := httptest.NewRecorder()
	handler.FindSimilar(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "no image file provided")

	req = multipartRequest(t, http.MethodPost, "/api/products/find-similar", nil,
		&filePart{field: "image", filename: "a.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")})
	recorder = httptest.NewRecorder()
	handler.FindSimilar(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "only image files are allowed")
}

func TestSearchHandler_FindSimilarUndecodableImage(t *testing.T) {
	handler, _, _ := newTestSearchHandler(t)

	recorder := findSimilar(t, handler, nil, []byte("\x89PNG\r\n\x1a\ntruncated"))

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestSearchHandler_FindSimilarImageTooLarge(t *testing.T) {
	handler, _, _ := newTestSearchHandler(t)

	recorder := findSimilar(t, handler, nil, hugePNGHeader())

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "image too large: 12000x12000 exceeds 40000000 pixels")
}

func TestSearchHandler_FindSimilarLengthMismatch(t *testing.T) {
	handler, svc, store := newTestSearchHandler(t)
	addTestProduct(t, svc, "lamp", "Home", false)
	store.AddProduct(database.StoredProduct{
		ID:          "legacy",
		Name:        "legacy",
		Category:    "Home",
		Fingerprint: fingerprint.FromBits(make([]bool, 256)),
		CreatedAt:   time.Now().Add(time.Hour),
	})

	recorder := findSimilar(t, handler, nil, gradientPNG(t, false))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "catalog contains incompatible fingerprints")
}

func TestSearchHandler_FindSimilarStoreError(t *testing.T) {
	handler, _, store := newTestSearchHandler(t)
	store.SnapshotError = errors.New("connection refused")

	recorder := findSimilar(t, handler, nil, gradientPNG(t, false))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to find similar products")
}
