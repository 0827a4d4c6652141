// Package catalog ties fingerprinting, ranking and product storage together.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/kozaktomas/visual-search/internal/database"
	"github.com/kozaktomas/visual-search/internal/fingerprint"
	"github.com/kozaktomas/visual-search/internal/logging"
	"github.com/kozaktomas/visual-search/internal/ranking"
)

// ErrInvalidProduct is returned when product metadata fails validation.
var ErrInvalidProduct = errors.New("invalid product")

// SearchOptions controls FindSimilar.
type SearchOptions struct {
	Limit       int    // maximum matches; <= 0 returns none
	MaxDistance int    // inclusive distance bound; < 0 disables it
	Category    string // optional category filter
}

// Match is a ranked product.
type Match struct {
	Product    database.StoredProduct
	Distance   int
	Similarity ranking.Similarity
}

// SearchResult is the outcome of FindSimilar.
type SearchResult struct {
	Query       fingerprint.Fingerprint
	Matches     []Match
	CatalogSize int
}

// NewProduct is the input to AddProduct.
type NewProduct struct {
	Name      string
	Category  string
	ImageURL  string // stored as is; may be a data: URL
	ImageData []byte // encoded image used for the fingerprint
}

// Service answers similarity queries over the stored catalog.
type Service struct {
	gen    *fingerprint.Generator
	ranker *ranking.Ranker
	store  database.ProductWriter
	logger *logging.Logger
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for search and ingest events.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a catalog service. A nil ranker ranks sequentially.
func NewService(gen *fingerprint.Generator, ranker *ranking.Ranker, store database.ProductWriter, opts ...Option) *Service {
	if ranker == nil {
		ranker = &ranking.Ranker{}
	}
	s := &Service{
		gen:    gen,
		ranker: ranker,
		store:  store,
		logger: logging.Noop(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bits returns the fingerprint length the service produces.
func (s *Service) Bits() int {
	return s.gen.Bits()
}

// Fingerprint computes the fingerprint of an encoded image.
func (s *Service) Fingerprint(imageData []byte) (fingerprint.Fingerprint, error) {
	return s.gen.Generate(imageData)
}

// FindSimilar fingerprints imageData and ranks the catalog against it.
func (s *Service) FindSimilar(ctx context.Context, imageData []byte, opts SearchOptions) (*SearchResult, error) {
	query, err := s.gen.Generate(imageData)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.Snapshot(ctx, opts.Category)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	start := time.Now()
	results, err := s.ranker.RankWithin(query, entries, opts.Limit, opts.MaxDistance)
	s.logger.LogSearch(ctx, len(entries), len(results), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		p, err := s.store.Get(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", r.ID, err)
		}
		// Deleted after the snapshot was taken.
		if p == nil {
			continue
		}
		matches = append(matches, Match{Product: *p, Distance: r.Distance, Similarity: r.Similarity})
	}

	return &SearchResult{Query: query, Matches: matches, CatalogSize: len(entries)}, nil
}

func validateProduct(name, category string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}
	if utf8.RuneCountInString(name) > database.MaxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidProduct, database.MaxNameLength)
	}
	if utf8.RuneCountInString(category) > database.MaxCategoryLength {
		return fmt.Errorf("%w: category longer than %d characters", ErrInvalidProduct, database.MaxCategoryLength)
	}
	return nil
}

// AddProduct fingerprints and stores a new product under a fresh ID.
func (s *Service) AddProduct(ctx context.Context, in NewProduct) (*database.StoredProduct, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if err := validateProduct(name, category); err != nil {
		return nil, err
	}

	fp, err := s.gen.Generate(in.ImageData)
	if err != nil {
		s.logger.LogIngest(ctx, "", name, err)
		return nil, err
	}

	p := &database.StoredProduct{
		ID:          s.newID(),
		Name:        name,
		Category:    category,
		ImageURL:    in.ImageURL,
		Fingerprint: fp,
	}
	if err := s.store.Save(ctx, p); err != nil {
		s.logger.LogIngest(ctx, p.ID, name, err)
		return nil, fmt.Errorf("save product: %w", err)
	}
	s.logger.LogIngest(ctx, p.ID, name, nil)
	return p, nil
}

// GetProduct returns a product or nil when it does not exist.
func (s *Service) GetProduct(ctx context.Context, id string) (*database.StoredProduct, error) {
	return s.store.Get(ctx, id)
}

// ListProducts returns products, optionally restricted to a category.
func (s *Service) ListProducts(ctx context.Context, category string) ([]database.StoredProduct, error) {
	return s.store.List(ctx, category)
}

// Categories returns the distinct category names in catalog order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return lo.Uniq(lo.Map(products, func(p database.StoredProduct, _ int) string {
		return p.Category
	})), nil
}

// DeleteProduct removes a product; database.ErrNotFound if it is missing.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Clear removes every product and returns how many were removed.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	return s.store.DeleteAll(ctx)
}

// Count returns the catalog size.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
