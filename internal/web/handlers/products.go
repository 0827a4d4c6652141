package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/visual-search/internal/catalog"
	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/database"
	"github.com/kozaktomas/visual-search/internal/fingerprint"
	"github.com/kozaktomas/visual-search/internal/logging"
)

// ProductsHandler handles product catalog endpoints
type ProductsHandler struct {
	config  *config.Config
	service *catalog.Service
	logger  *logging.Logger
}

// NewProductsHandler creates a new products handler
func NewProductsHandler(cfg *config.Config, svc *catalog.Service, logger *logging.Logger) *ProductsHandler {
	return &ProductsHandler{
		config:  cfg,
		service: svc,
		logger:  logger,
	}
}

// ProductResponse is a product without its fingerprint
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toProductResponse(p *database.StoredProduct) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}

// Upload stores a new product from a multipart upload with image, name and category.
func (h *ProductsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, err := readImageUpload(w, r, h.config.Web.MaxUploadBytes())
	if err != nil {
		respondUploadError(w, err)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	category := strings.TrimSpace(r.FormValue("category"))
	if name == "" || category == "" {
		respondError(w, http.StatusBadRequest, "name and category are required")
		return
	}

	dataURL := "data:" + upload.ContentType + ";base64," + base64.StdEncoding.EncodeToString(upload.Data)
	product, err := h.service.AddProduct(r.Context(), catalog.NewProduct{
		Name:      name,
		Category:  category,
		ImageURL:  dataURL,
		ImageData: upload.Data,
	})
	switch {
	case errors.Is(err, catalog.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case fingerprint.IsInputError(err):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "failed to upload product",
			"name", sanitizeForLog(name),
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "failed to upload product")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "product uploaded successfully",
		"product": toProductResponse(product),
	})
}

// List returns all products, optionally filtered by the category query parameter.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list products", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	response := make([]ProductResponse, len(products))
	for i := range products {
		response[i] = toProductResponse(&products[i])
	}
	respondJSON(w, http.StatusOK, response)
}

// Get returns a single product.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get product", "id", sanitizeForLog(id), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, errProductMissing)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete removes a product.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.service.DeleteProduct(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, errProductMissing)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to delete product", "id", sanitizeForLog(id), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

// Categories returns the distinct product categories.
func (h *ProductsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list categories", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
