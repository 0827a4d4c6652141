package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/visual-search/internal/database"
	"github.com/kozaktomas/visual-search/internal/ranking"
)

// ProductRepository provides PostgreSQL-backed product storage
type ProductRepository struct {
	pool *Pool
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(pool *Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, category, image_url, image_hash, hash_bits, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*database.StoredProduct, error) {
	var (
		p        database.StoredProduct
		hash     string
		hashBits int
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.ImageURL, &hash, &hashBits, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	fp, err := database.DecodeFingerprint(hash, hashBits)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", p.ID, err)
	}
	p.Fingerprint = fp
	return &p, nil
}

// Get retrieves a product by ID, returns nil if not found
func (r *ProductRepository) Get(ctx context.Context, id string) (*database.StoredProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns products ordered by creation time, optionally filtered by category
func (r *ProductRepository) List(ctx context.Context, category string) ([]database.StoredProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category_key = $1)
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, database.NormalizeCategory(category))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []database.StoredProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Count returns the total number of products stored
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// Snapshot returns the fingerprints of the catalog ordered by created_at, id
func (r *ProductRepository) Snapshot(ctx context.Context, category string) ([]ranking.Entry, error) {
	query := `
		SELECT id, image_hash, hash_bits
		FROM products
		WHERE ($1 = '' OR category_key = $1)
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, database.NormalizeCategory(category))
	if err != nil {
		return nil, fmt.Errorf("snapshot products: %w", err)
	}
	defer rows.Close()

	entries := []ranking.Entry{}
	for rows.Next() {
		var (
			id       string
			hash     string
			hashBits int
		)
		if err := rows.Scan(&id, &hash, &hashBits); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		fp, err := database.DecodeFingerprint(hash, hashBits)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", id, err)
		}
		entries = append(entries, ranking.Entry{ID: id, Fingerprint: fp})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot: %w", err)
	}
	return entries, nil
}

// Save inserts or replaces a product. created_at is kept on update.
func (r *ProductRepository) Save(ctx context.Context, p *database.StoredProduct) error {
	hash, bits, err := database.EncodeFingerprint(p.Fingerprint)
	if err != nil {
		return fmt.Errorf("encode fingerprint: %w", err)
	}

	query := `
		INSERT INTO products (id, name, category, category_key, image_url, image_hash, hash_bits)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			category_key = EXCLUDED.category_key,
			image_url = EXCLUDED.image_url,
			image_hash = EXCLUDED.image_hash,
			hash_bits = EXCLUDED.hash_bits,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Category, p.CategoryKey(), p.ImageURL, hash, bits,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

// Delete removes a product, returns database.ErrNotFound if it does not exist
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if count == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteAll removes every product and returns the count deleted
func (r *ProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM products")
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return count, nil
}

var _ database.ProductWriter = (*ProductRepository)(nil)
