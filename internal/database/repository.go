package database

import (
	"context"

	"github.com/kozaktomas/visual-search/internal/ranking"
)

// ProductReader provides read-only access to the product catalog
type ProductReader interface {
	// Get retrieves a product by ID, returns nil if not found
	Get(ctx context.Context, id string) (*StoredProduct, error)
	// List returns products ordered by creation time.
	// An empty category returns all products; otherwise the category is
	// compared after NormalizeCategory.
	List(ctx context.Context, category string) ([]StoredProduct, error)
	// Count returns the total number of products stored
	Count(ctx context.Context) (int, error)
	// Snapshot returns the fingerprints of the catalog (optionally filtered by
	// category) ordered by created_at, id. The order is the ranking tie-break.
	Snapshot(ctx context.Context, category string) ([]ranking.Entry, error)
}

// ProductWriter provides write access to the product catalog
type ProductWriter interface {
	ProductReader

	// Save inserts or replaces a product
	Save(ctx context.Context, product *StoredProduct) error

	// Delete removes a product, returns ErrNotFound if it does not exist
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every product and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}
