package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kozaktomas/visual-search/internal/catalog"
	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/constants"
	"github.com/kozaktomas/visual-search/internal/fingerprint"
	"github.com/kozaktomas/visual-search/internal/logging"
	"github.com/kozaktomas/visual-search/internal/ranking"
)

// SearchHandler handles similarity search endpoints
type SearchHandler struct {
	config  *config.Config
	service *catalog.Service
	logger  *logging.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(cfg *config.Config, svc *catalog.Service, logger *logging.Logger) *SearchHandler {
	return &SearchHandler{
		config:  cfg,
		service: svc,
		logger:  logger,
	}
}

// SimilarProductResponse is one ranked product. Lower distance is closer.
type SimilarProductResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	ImageURL   string  `json:"image_url"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// FindSimilarResponse is the response of FindSimilar
type FindSimilarResponse struct {
	Results   []SimilarProductResponse `json:"results"`
	Count     int                      `json:"count"`
	Bits      int                      `json:"bits"`
	QueryHash string                   `json:"query_hash"`
}

// searchOptions reads limit, max_distance and category from the form.
func (h *SearchHandler) searchOptions(r *http.Request) (catalog.SearchOptions, error) {
	defaultLimit := h.config.Search.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = constants.DefaultSearchLimit
	}

	limit, err := parseIntParam(r, "limit", defaultLimit)
	if err != nil {
		return catalog.SearchOptions{}, err
	}
	if limit < 1 {
		return catalog.SearchOptions{}, fmt.Errorf("limit must be at least 1")
	}
	limit = min(limit, constants.MaxSearchLimit)

	maxDistance, err := parseIntParam(r, "max_distance", constants.NoDistanceFilter)
	if err != nil {
		return catalog.SearchOptions{}, err
	}

	return catalog.SearchOptions{
		Limit:       limit,
		MaxDistance: maxDistance,
		Category:    r.FormValue("category"),
	}, nil
}

// FindSimilar ranks the catalog against the uploaded image.
func (h *SearchHandler) FindSimilar(w http.ResponseWriter, r *http.Request) {
	upload, err := readImageUpload(w, r, h.config.Web.MaxUploadBytes())
	if err != nil {
		respondUploadError(w, err)
		return
	}

	opts, err := h.searchOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.FindSimilar(r.Context(), upload.Data, opts)
	if err != nil {
		var mismatch *ranking.LengthMismatchError
		switch {
		case fingerprint.IsInputError(err):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &mismatch):
			// Already logged at error level by the service.
			respondError(w, http.StatusInternalServerError, "catalog contains incompatible fingerprints")
		default:
			h.logger.ErrorContext(r.Context(), "failed to find similar products", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to find similar products")
		}
		return
	}

	results := make([]SimilarProductResponse, len(result.Matches))
	for i, m := range result.Matches {
		results[i] = SimilarProductResponse{
			ID:         m.Product.ID,
			Name:       m.Product.Name,
			Category:   m.Product.Category,
			ImageURL:   m.Product.ImageURL,
			Distance:   m.Distance,
			Similarity: float64(m.Similarity),
		}
	}

	respondJSON(w, http.StatusOK, FindSimilarResponse{
		Results:   results,
		Count:     len(results),
		Bits:      result.Query.Len(),
		QueryHash: result.Query.String(),
	})
}
