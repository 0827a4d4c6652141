package handlers

import (
	"net/http"

	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/constants"
	"github.com/kozaktomas/visual-search/internal/database"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	HashWidth    int    `json:"hash_width"`
	HashHeight   int    `json:"hash_height"`
	Bits         int    `json:"bits"`
	DefaultLimit int    `json:"default_limit"`
	MaxLimit     int    `json:"max_limit"`
	MaxUploadMB  int    `json:"max_upload_mb"`
	Database     string `json:"database,omitempty"`
}

// Get returns the search configuration a client needs
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		HashWidth:    h.config.Hash.Width,
		HashHeight:   h.config.Hash.Height,
		Bits:         h.config.Hash.Bits(),
		DefaultLimit: h.config.Search.DefaultLimit,
		MaxLimit:     constants.MaxSearchLimit,
		MaxUploadMB:  h.config.Web.MaxUploadMB,
		Database:     database.BackendName(),
	})
}
